package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"go-peopleflow/internal/app"
	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/logging"
)

// NewHolidaysCommand creates the holidays command.
func NewHolidaysCommand(opts *Options) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:     "holidays",
		Short:   "List Japanese public holidays between two dates",
		Example: "  peopleflow holidays --from 2024-01-01 --to 2024-12-31",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := calendar.ParseDate(from, calendar.Tokyo)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := calendar.ParseDate(to, calendar.Tokyo)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}

			cfg, err := opts.load(cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			cal, err := app.Calendar(cfg.Calendar, logging.WithComponent("calendar"))
			if err != nil {
				return err
			}

			tbl := newTable()
			tbl.AppendHeader(table.Row{"date", "曜日", "name"})
			holidays := cal.Between(start, end)
			for _, h := range holidays {
				tbl.AppendRow(table.Row{calendar.DateKey(h.Date), calendar.WeekdayLabel(h.Date.Weekday()), h.Name})
			}
			tbl.AppendFooter(table.Row{fmt.Sprintf("%d holidays", len(holidays)), "", ""})
			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			return nil
		},
	}
	year := time.Now().In(calendar.Tokyo).Year()
	cmd.Flags().StringVar(&from, "from", fmt.Sprintf("%d-01-01", year), "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", fmt.Sprintf("%d-12-31", year), "last date, YYYY-MM-DD")
	return cmd
}
