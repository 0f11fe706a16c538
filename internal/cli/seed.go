package cli

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/store"
)

func newSeedCmd() *cobra.Command {
	var seed uint64

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the operations tables with demo loaders, vehicles and orders",
		Long: "Replaces the loaders, transport and orders tables with demo rows. " +
			"Calculation history is not touched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}
			db, err := store.Open(paths.Database(cfg.Store), log)
			if err != nil {
				return err
			}
			defer db.Close()

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			rep, err := store.NewSeeder(db).Seed(cmd.Context(), rand.New(rand.NewPCG(seed, seed)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d loaders, %d vehicles and %d orders (seed %d)\n",
				rep.Loaders, rep.Transport, rep.Orders, seed)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible data (default: time based)")
	return cmd
}
