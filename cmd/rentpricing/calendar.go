package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rentpricing/internal/app/commands"
	"rentpricing/internal/app/dto"
	pricingapp "rentpricing/internal/app/handlers/pricing"
	"rentpricing/internal/domain/shared/daterange"
	"rentpricing/internal/domain/shared/scope"
	"rentpricing/internal/domain/units"
	"rentpricing/internal/infra/config"
	"rentpricing/internal/infra/export/xlsx"
)

type calendarOptions struct {
	unitID int64
	owner  int64
	start  string
	end    string
	xlsx   string
	seed   bool
}

func newCalendarCmd() *cobra.Command {
	var opts calendarOptions
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Project a unit's prices over a date range",
		Long: "Calculates the price of every day from --start to --end inclusive. Prints JSON, " +
			"or writes a spreadsheet when --xlsx is set. Each calculated day is logged like an API call.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApplication(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.close(context.Background())
			if opts.seed || cfg.StoreDriver == config.DriverMemory {
				if err := app.loadFixtures(ctx, cfg.FixturesPath); err != nil {
					return err
				}
			}
			return runCalendar(ctx, app.commands, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int64Var(&opts.unitID, "unit", 0, "unit id")
	cmd.Flags().Int64Var(&opts.owner, "owner", 0, "restrict to this owner id")
	cmd.Flags().StringVar(&opts.start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "write the calendar to this .xlsx file")
	cmd.Flags().BoolVar(&opts.seed, "seed", false, "load FIXTURES_PATH first")
	_ = cmd.MarkFlagRequired("unit")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func runCalendar(ctx context.Context, bus commands.Bus, opts calendarOptions, out io.Writer) error {
	start, err := daterange.ParseDay(opts.start)
	if err != nil {
		return err
	}
	end, err := daterange.ParseDay(opts.end)
	if err != nil {
		return err
	}
	sc := scope.Any()
	if opts.owner > 0 {
		sc = scope.For(opts.owner)
	}
	cal, err := commands.Dispatch[pricingapp.PriceCalendarCommand, *dto.PriceCalendar](ctx, bus, pricingapp.PriceCalendarCommand{
		UnitID: units.UnitID(opts.unitID),
		Start:  start,
		End:    end,
		Owner:  sc,
	})
	if err != nil {
		return err
	}
	if opts.xlsx == "" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cal)
	}
	buf, err := xlsx.Calendar(*cal)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.xlsx, buf.Bytes(), 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "wrote %d days to %s\n", len(cal.Days), opts.xlsx)
	return err
}
