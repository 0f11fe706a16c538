package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cargoquote/internal/config"
	"github.com/soyeahso/cargoquote/internal/store"
)

// openStore opens the history database named by the config file.
func openStore() (*store.DB, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Store.Disabled {
		return nil, errors.New("quote history is disabled (store.disabled)")
	}
	dbPath := paths.Database(cfg.Store)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("no database at %s, run `cargoquote serve` or `cargoquote seed` first", dbPath)
	}
	return store.Open(dbPath, log)
}

func newHistoryCmd() *cobra.Command {
	var (
		limit    int
		identity string
		search   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent calculations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			quotes := store.NewQuoteStore(db)
			ctx := cmd.Context()

			var calcs []store.Calculation
			switch {
			case search != "":
				calcs, err = quotes.Search(ctx, search, limit)
			case identity != "":
				calcs, err = quotes.ByIdentity(ctx, identity, limit)
			default:
				calcs, err = quotes.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), calcs)
			}
			printCalculations(cmd.OutOrStdout(), calcs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultLimit, "maximum rows")
	cmd.Flags().StringVar(&identity, "identity", "", "only this customer, e.g. telegram:123456")
	cmd.Flags().StringVarP(&search, "search", "s", "", "full-text search over reports and names")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(newHistoryStatsCmd())
	return cmd
}

func newHistoryStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the calculation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := store.NewQuoteStore(db).Stats(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Quotes:  %d\n", st.Count)
			fmt.Fprintf(out, "Sum:     %d €\n", st.Sum)
			fmt.Fprintf(out, "Average: %.0f €\n", st.Average)
			fmt.Fprintf(out, "Max:     %d €\n", st.Max)
			for svc, n := range st.ByService {
				fmt.Fprintf(out, "  %-12s %d\n", svc, n)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printCalculations(w io.Writer, calcs []store.Calculation) {
	if len(calcs) == 0 {
		fmt.Fprintln(w, "No calculations.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tCUSTOMER\tSERVICE\tTOTAL")
	for _, c := range calcs {
		who := c.Identity
		if c.Username != "" {
			who = c.Username + " (" + c.Identity + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d €\n",
			c.ID, c.CreatedAt.Local().Format("2006-01-02 15:04"), who, c.Request.Service, c.TotalCost)
	}
	tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
