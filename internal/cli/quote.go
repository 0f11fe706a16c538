package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/cargoquote/internal/dialogue"
	"github.com/soyeahso/cargoquote/internal/pricing"
	"github.com/soyeahso/cargoquote/internal/tariff"
)

func newQuoteCmd() *cobra.Command {
	var (
		req     = pricing.DefaultRequest()
		service string
		volume  string
		urgency string
		lift    string
		tod     string
		day     string
		extras  []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a job from flags without starting a conversation",
		Example: `  cargoquote quote --service moving --workers 3 --hours 4 --floor 5 --elevator no
  cargoquote quote --service rigging --time night --day weekend --extra piano --extra insurance`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Service = tariff.Service(service)
			req.Volume = tariff.Volume(volume)
			req.Urgency = tariff.Urgency(urgency)
			req.Elevator = tariff.Elevator(lift)
			req.TimeOfDay = tariff.TimeOfDay(tod)
			req.DayType = tariff.DayType(day)
			req.Extras = nil
			for _, e := range extras {
				req.Extras = append(req.Extras, tariff.Extra(strings.TrimSpace(e)))
			}

			if err := dialogue.ValidateRequest(req); err != nil {
				return fmt.Errorf("invalid request:\n%w", err)
			}
			b, err := pricing.Calculate(req)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), b)
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.Details)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&service, "service", string(req.Service), "service: "+joinKeys(tariff.Services()))
	f.StringVar(&volume, "volume", string(req.Volume), "volume: "+joinKeys(tariff.Volumes()))
	f.IntVar(&req.Workers, "workers", req.Workers, "number of workers (1-10)")
	f.Float64Var(&req.Hours, "hours", req.Hours, "hours of work (1-24)")
	f.StringVar(&urgency, "urgency", string(req.Urgency), "urgency: "+joinKeys(tariff.Urgencies()))
	f.IntVar(&req.Floor, "floor", req.Floor, "destination floor (1-25)")
	f.StringVar(&lift, "elevator", string(req.Elevator), "elevator: yes (freight), passenger, no")
	f.StringVar(&tod, "time", string(tariff.TimeDay), "time of day: day, night")
	f.StringVar(&day, "day", string(tariff.DayWeekday), "day type: weekday, weekend")
	f.StringArrayVar(&extras, "extra", nil, "add-on service, repeatable: "+joinKeys(tariff.Extras()))
	f.BoolVar(&asJSON, "json", false, "print the full breakdown as JSON")

	return cmd
}

func joinKeys[T ~string](keys []T) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
