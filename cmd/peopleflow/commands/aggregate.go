package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"go-peopleflow/internal/app"
	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/model"
	"go-peopleflow/internal/pipeline"
)

// Output formats of the aggregate command
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// ErrUnknownFormat is returned for an output format other than table, csv or json.
var ErrUnknownFormat = errors.New("unknown output format")

// AggregateCommand holds the flags of the aggregate command.
type AggregateCommand struct {
	opts         *Options
	source       string
	sourceType   string
	granularity  string
	start, end   string
	compareStart string
	compareEnd   string
	group        string
	breakdown    string
	format       string
	export       string
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(opts *Options) *cobra.Command {
	ac := &AggregateCommand{opts: opts}
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate a people-flow CSV by month, week, day or hour",
		Example: `  peopleflow aggregate --source flow.csv --granularity month --start 2024-10-01 --end 2024-11-30
  peopleflow aggregate --source plates.csv --granularity week --start 2024-10-07 --end 2024-10-20 --group plate --breakdown region`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}
	f := cmd.Flags()
	f.StringVarP(&ac.source, "source", "s", "", "CSV path or URL, or API URL with --type api")
	f.StringVar(&ac.sourceType, "type", model.SourceCSV, "source type: csv or api")
	f.StringVarP(&ac.granularity, "granularity", "g", string(model.Monthly), "month, week, day or hour")
	f.StringVar(&ac.start, "start", "", "first date, YYYY-MM-DD")
	f.StringVar(&ac.end, "end", "", "last date, YYYY-MM-DD")
	f.StringVar(&ac.compareStart, "compare-start", "", "first date of a compare period")
	f.StringVar(&ac.compareEnd, "compare-end", "", "last date of a compare period")
	f.StringVar(&ac.group, "group", "", "category group to keep")
	f.StringVar(&ac.breakdown, "breakdown", "", "plate breakdown: prefecture or region")
	f.StringVarP(&ac.format, "format", "f", FormatTable, "output format: table, csv or json")
	f.StringVar(&ac.export, "export", "", "also write the result to the output dir as csv or json")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func (ac *AggregateCommand) request() model.AggregationRequest {
	req := model.AggregationRequest{
		Source:      model.Source{Type: ac.sourceType, URL: ac.source},
		Granularity: model.Granularity(ac.granularity),
		Start:       ac.start,
		End:         ac.end,
		Group:       ac.group,
		Breakdown:   ac.breakdown,
	}
	if ac.compareStart != "" || ac.compareEnd != "" {
		req.Compare = &model.PeriodSpec{Start: ac.compareStart, End: ac.compareEnd}
	}
	if ac.export != "" {
		req.Export = &model.Export{Format: ac.export}
	}
	return req
}

func (ac *AggregateCommand) run(cmd *cobra.Command, _ []string) error {
	switch ac.format {
	case FormatTable, FormatCSV, FormatJSON:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, ac.format)
	}

	cfg, err := ac.opts.load(cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	a, err := app.Build(cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Pipeline.Run(cmd.Context(), ac.request())
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), ac.format, res)
}

func render(w io.Writer, format string, res *model.AggregationResult) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatCSV:
		return pipeline.EncodeCSV(w, rowColumns(res.Main.Rows), res.Main.Rows)
	}

	fmt.Fprintln(w, periodTable("main "+periodLabel(res.Main), res.Main))
	fmt.Fprintln(w, summaryLine(res.Main.Summary))
	if res.Compare != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, periodTable("compare "+periodLabel(*res.Compare), *res.Compare))
		fmt.Fprintln(w, summaryLine(res.Compare.Summary))
	}
	if len(res.Breakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, breakdownTable(res.Breakdown))
	}
	for _, ex := range res.Exports {
		if ex.Success {
			fmt.Fprintf(w, "exported %s (%s rows)\n", ex.Path, humanize.Comma(int64(ex.RecordCount)))
		} else {
			fmt.Fprintf(w, "export failed: %s\n", ex.Error)
		}
	}
	return nil
}

// rowColumns is the base header followed by every category column, sorted.
func rowColumns(rows []model.Row) []string {
	seen := make(map[string]bool)
	var cats []string
	for _, r := range rows {
		for k := range r.Counts {
			if !seen[k] {
				seen[k] = true
				cats = append(cats, k)
			}
		}
	}
	sort.Strings(cats)
	cols := []string{model.ColPlacement, model.ColObjectClass, model.ColAggregateFrom, model.ColAggregateTo}
	return append(cols, cats...)
}

func periodLabel(p model.PeriodResult) string {
	if p.Start == "" && p.End == "" {
		return "(all)"
	}
	return p.Start + " .. " + p.End
}

func periodTable(title string, p model.PeriodResult) string {
	hasDay, hasSplit := false, false
	for _, r := range p.Rows {
		hasDay = hasDay || r.Day != nil
		hasSplit = hasSplit || r.Split != nil
	}

	tbl := newTable()
	tbl.SetTitle(title)
	header := table.Row{"bucket", "from", "to", "total"}
	if hasDay {
		header = append(header, "曜日", "祝日")
	}
	if hasSplit {
		header = append(header, "weekday", "weekend", "weekday days", "weekend days")
	}
	tbl.AppendHeader(header)

	for _, r := range p.Rows {
		row := table.Row{
			r.Bucket,
			r.AggregateFrom.In(calendar.Tokyo).Format("2006-01-02 15:04"),
			r.AggregateTo.In(calendar.Tokyo).Format("2006-01-02 15:04"),
			humanize.Comma(int64(r.TotalCount)),
		}
		if hasDay {
			if r.Day != nil {
				row = append(row, r.Day.DayOfWeek, r.Day.HolidayName)
			} else {
				row = append(row, "", "")
			}
		}
		if hasSplit {
			if r.Split != nil {
				row = append(row,
					humanize.Comma(int64(r.Split.WeekdayTotal)),
					humanize.Comma(int64(r.Split.WeekendTotal)),
					r.Split.WeekdayDays,
					r.Split.WeekendDays)
			} else {
				row = append(row, "", "", "", "")
			}
		}
		tbl.AppendRow(row)
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d buckets", len(p.Rows)), "", "", humanize.Comma(int64(p.Summary.TotalCount))})
	return tbl.Render()
}

func summaryLine(s model.Summary) string {
	return fmt.Sprintf("weekday %s over %d days (avg %s), weekend/holiday %s over %d days (avg %s)",
		humanize.Comma(int64(s.WeekdayTotal)), s.WeekdayDays, humanize.CommafWithDigits(s.WeekdayAverage, 1),
		humanize.Comma(int64(s.WeekendTotal)), s.WeekendDays, humanize.CommafWithDigits(s.WeekendAverage, 1))
}

func breakdownTable(shares []model.Share) string {
	total := 0
	for _, s := range shares {
		total += s.Count
	}
	tbl := newTable()
	tbl.SetTitle("breakdown")
	tbl.AppendHeader(table.Row{"name", "count", "share"})
	for _, s := range shares {
		share := 0.0
		if total > 0 {
			share = float64(s.Count) * 100 / float64(total)
		}
		tbl.AppendRow(table.Row{s.Name, humanize.Comma(int64(s.Count)), fmt.Sprintf("%.1f%%", share)})
	}
	tbl.AppendFooter(table.Row{"total", humanize.Comma(int64(total)), ""})
	return tbl.Render()
}
