package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/store"
	"github.com/soyeahso/cargoquote/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cargoquote status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cargoquote %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:   not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Business: %s, %s, %s\n", cfg.Business.Name, cfg.Business.Phone, cfg.Business.Email)
			fmt.Fprintf(out, "Gateway:  port=%d bind=%s tls=%v admin=%v webChat=%v\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.TLS.Enabled,
				cfg.Gateway.Auth.AdminToken != "", cfg.Gateway.WebChatEnabled())

			sess := fmt.Sprintf("store=%s idle=%dm", cfg.Session.Store, cfg.Session.IdleMinutes)
			if cfg.Session.Store == "redis" {
				sess += fmt.Sprintf(" addr=%s lock=%v", cfg.Session.Redis.Addr, cfg.Session.DistributedLock)
			}
			fmt.Fprintf(out, "Session:  %s\n", sess)

			if tc := cfg.Channels.Telegram; tc != nil && tc.Token != "" {
				fmt.Fprintln(out, "Telegram: configured")
			} else {
				fmt.Fprintln(out, "Telegram: (not configured)")
			}
			if irc := cfg.Channels.IRC; irc != nil {
				fmt.Fprintf(out, "IRC:      server=%s:%d nick=%s channels=%s tls=%v\n",
					irc.Server, irc.Port, irc.Nick, strings.Join(irc.Channels, ","), irc.UseTLS)
			} else {
				fmt.Fprintln(out, "IRC:      (not configured)")
			}

			var targets []string
			if cfg.Notify.SMTP.Host != "" {
				targets = append(targets, "smtp → "+cfg.Notify.SMTP.To)
			}
			if c := cfg.Notify.Chat; c != nil {
				targets = append(targets, c.Channel+" → "+c.Target)
			}
			if len(targets) == 0 {
				targets = []string{"(none)"}
			}
			fmt.Fprintf(out, "Notify:   %s\n", strings.Join(targets, ", "))

			printStoreStatus(cmd, cfg)

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}
			return nil
		},
	}

	return cmd
}

func printStoreStatus(cmd *cobra.Command, cfg config.Config) {
	out := cmd.OutOrStdout()
	if cfg.Store.Disabled {
		fmt.Fprintln(out, "Store:    disabled")
		return
	}
	dbPath := paths.Database(cfg.Store)
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(out, "Store:    %s (not created yet)\n", dbPath)
		return
	}
	db, err := store.Open(dbPath, log)
	if err != nil {
		fmt.Fprintf(out, "Store:    %s (error: %v)\n", dbPath, err)
		return
	}
	defer db.Close()

	ctx := cmd.Context()
	schema, _ := db.SchemaVersion(ctx)
	st, err := store.NewQuoteStore(db).Stats(ctx)
	if err != nil {
		fmt.Fprintf(out, "Store:    %s (error: %v)\n", dbPath, err)
		return
	}
	fmt.Fprintf(out, "Store:    %s schema=v%d quotes=%d\n", dbPath, schema, st.Count)
	if rep, err := store.NewSeeder(db).Counts(ctx); err == nil && rep.Orders > 0 {
		fmt.Fprintf(out, "Demo:     loaders=%d transport=%d orders=%d\n", rep.Loaders, rep.Transport, rep.Orders)
	}
}
