package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths    config.Paths
	log      *logging.Logger
	closeLog = func() error { return nil }
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cargoquote",
		Short: "cargoquote — price calculator bot for a moving and freight company",
		Long: "cargoquote walks customers through a price calculation on Telegram, IRC " +
			"and the website chat, and hands finished quotes to the office.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			if err := config.LoadDotEnv(".env", paths.Env); err != nil {
				return err
			}

			// A broken config file must not stop `config set` from fixing
			// it, so logging falls back to defaults here.
			lc := config.Defaults().Logging
			if cfg, err := config.Load(paths.Config); err == nil {
				lc = cfg.Logging
			}
			if logLevel != "" {
				lc.Level = logLevel
			}
			log, closeLog, err = logging.Open(logging.Options{
				Level: lc.Level,
				Style: lc.ConsoleStyle,
				File:  lc.File,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.cargoquote/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newQuoteCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

// loadConfig reads the config file, applies command-line overrides and
// validates the result.
func loadConfig(override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if override != nil {
		override(&cfg)
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, &config.ConfigError{Message: fmt.Sprintf("validation failed with %d issue(s)", len(issues))}
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
