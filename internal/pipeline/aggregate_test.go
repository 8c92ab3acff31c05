package pipeline

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/model"
)

func jstTime(t *testing.T, s string) time.Time {
	t.Helper()
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, s, calendar.Tokyo); err == nil {
			return ts
		}
	}
	t.Fatalf("bad test time %q", s)
	return time.Time{}
}

func testRow(t *testing.T, from string, total int, counts map[string]int) model.Row {
	t.Helper()
	ts := jstTime(t, from)
	return model.Row{
		Placement:     "tojinbo",
		ObjectClass:   "person",
		AggregateFrom: ts,
		AggregateTo:   ts.Add(time.Hour - time.Second),
		TotalCount:    total,
		Counts:        counts,
	}
}

// dailyRows returns one row per day in [from, to], each counting n.
func dailyRows(t *testing.T, from, to string, n int) []model.Row {
	t.Helper()
	var rows []model.Row
	for d := jstTime(t, from); !d.After(jstTime(t, to)); d = d.AddDate(0, 0, 1) {
		rows = append(rows, testRow(t, d.Format("2006-01-02"), n, map[string]int{"male_adult": n}))
	}
	return rows
}

func newTestEngine(opts ...EngineOption) *Engine {
	opts = append([]EngineOption{WithLogger(zerolog.Nop())}, opts...)
	return NewEngine(calendar.NewJapan(), opts...)
}

func sumTotals(rows []model.Row) int {
	n := 0
	for _, r := range rows {
		n += r.TotalCount
	}
	return n
}

// ------------------- Monthly -------------------

func TestMonthly_OctoberExample(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-10-17", 10, nil),
		testRow(t, "2024-10-18", 5, nil),
	}

	out := e.Monthly(rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	require.Len(t, out, 1)
	assert.Equal(t, "2024-10", out[0].Bucket)
	assert.Equal(t, 15, out[0].TotalCount)
	assert.Equal(t, &model.WeekSplit{WeekdayTotal: 15, WeekdayDays: 2}, out[0].Split)
	assert.Equal(t, jstTime(t, "2024-10-01"), out[0].AggregateFrom)
	assert.Equal(t, jstTime(t, "2024-10-31"), out[0].AggregateTo)
}

func TestMonthly_DecemberClamp(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-12-01", 1, nil),
		testRow(t, "2024-12-19", 2, nil),
		testRow(t, "2024-12-20", 4, nil),
		testRow(t, "2024-12-31", 8, nil),
	}

	tests := []struct {
		name  string
		start string
		want  int
	}{
		{name: "start_before_cutoff", start: "2024-12-01", want: 12},
		{name: "start_on_cutoff", start: "2024-12-20", want: 12},
		{name: "start_after_cutoff_not_moved_back", start: "2024-12-25", want: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := e.Monthly(rows, jstTime(t, tt.start), jstTime(t, "2024-12-31"))
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].TotalCount)
		})
	}

	noClamp := newTestEngine(WithSeasonCutoff(0))
	out := noClamp.Monthly(rows, jstTime(t, "2024-12-01"), jstTime(t, "2024-12-31"))
	require.Len(t, out, 1)
	assert.Equal(t, 15, out[0].TotalCount)
}

func TestMonthly_ClampOnlyAppliesToDecemberStart(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := dailyRows(t, "2024-11-25", "2024-12-31", 1)

	out := e.Monthly(rows, jstTime(t, "2024-11-25"), jstTime(t, "2024-12-31"))
	require.Len(t, out, 2)
	assert.Equal(t, "2024-11", out[0].Bucket)
	assert.Equal(t, 6, out[0].TotalCount)
	assert.Equal(t, "2024-12", out[1].Bucket)
	assert.Equal(t, 31, out[1].TotalCount)
}

func TestMonthly_SundayHolidayCountedOnce(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-11-03", 10, nil), // Sunday and 文化の日
		testRow(t, "2024-11-04", 5, nil),  // 振替休日
		testRow(t, "2024-11-05", 1, nil),
	}

	out := e.Monthly(rows, jstTime(t, "2024-11-01"), jstTime(t, "2024-11-30"))
	require.Len(t, out, 1)
	assert.Equal(t, &model.WeekSplit{
		WeekdayTotal: 1,
		WeekendTotal: 15,
		WeekdayDays:  1,
		WeekendDays:  2,
	}, out[0].Split)
}

func TestMonthly_SumAndDayCountsPreserved(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := dailyRows(t, "2024-09-20", "2024-10-10", 3)
	start, end := jstTime(t, "2024-09-25"), jstTime(t, "2024-10-05")

	inRange := 0
	for _, r := range rows {
		if !r.AggregateFrom.Before(start) && !r.AggregateFrom.After(end) {
			inRange += r.TotalCount
		}
	}

	out := e.Monthly(rows, start, end)
	require.Len(t, out, 2)
	assert.Equal(t, inRange, sumTotals(out))

	// 6 days in September, 5 in October
	assert.Equal(t, 6, out[0].Split.WeekdayDays+out[0].Split.WeekendDays)
	assert.Equal(t, 5, out[1].Split.WeekdayDays+out[1].Split.WeekendDays)
	assert.Equal(t, 33, out[1].Counts["male_adult"]+out[0].Counts["male_adult"])
}

func TestMonthly_DistinctDaysWithIntradayRows(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-10-19 10:00", 1, nil), // Saturday
		testRow(t, "2024-10-19 11:00", 2, nil),
		testRow(t, "2024-10-21 10:00", 3, nil),
		testRow(t, "2024-10-21 15:00", 4, nil),
	}

	out := e.Monthly(rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Split.WeekendDays)
	assert.Equal(t, 1, out[0].Split.WeekdayDays)
	assert.Equal(t, 3, out[0].Split.WeekendTotal)
	assert.Equal(t, 7, out[0].Split.WeekdayTotal)
}

func TestMonthly_ExcludesInvalidAndOutOfRange(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		{TotalCount: 100, RawFrom: "not a date"},
		testRow(t, "2024-09-30", 7, nil),
		testRow(t, "2024-10-01", 1, nil),
		testRow(t, "2024-10-31 23:00", 2, nil),
		testRow(t, "2024-11-01", 9, nil),
	}

	out := e.Monthly(rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].TotalCount)

	assert.Empty(t, e.Monthly(nil, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31")))
	assert.Empty(t, e.Monthly(rows, jstTime(t, "2024-10-31"), jstTime(t, "2024-10-01")))
}

func TestMonthly_FilterUsesTokyoDate(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	// 2024-10-31T16:00Z is 2024-11-01 01:00 in Tokyo
	late := model.Row{AggregateFrom: time.Date(2024, 10, 31, 16, 0, 0, 0, time.UTC), TotalCount: 5}

	out := e.Monthly([]model.Row{late}, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	assert.Empty(t, out)

	out = e.Monthly([]model.Row{late}, jstTime(t, "2024-11-01"), jstTime(t, "2024-11-30"))
	require.Len(t, out, 1)
	assert.Equal(t, "2024-11", out[0].Bucket)
}

// ------------------- Weekly -------------------

func TestWeekly_TwoWindowsLastClipped(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := dailyRows(t, "2024-10-07", "2024-10-18", 1)

	out := e.Weekly(rows,
		model.WeekRange{From: jstTime(t, "2024-10-07"), To: jstTime(t, "2024-10-13")},
		model.WeekRange{From: jstTime(t, "2024-10-12"), To: jstTime(t, "2024-10-18")})
	require.Len(t, out, 2)

	assert.Equal(t, "2024-10-07週", out[0].Bucket)
	assert.Equal(t, jstTime(t, "2024-10-07"), out[0].AggregateFrom)
	assert.Equal(t, jstTime(t, "2024-10-13"), out[0].AggregateTo)
	assert.Equal(t, 7, out[0].TotalCount)
	assert.Equal(t, &model.WeekSplit{WeekdayTotal: 5, WeekendTotal: 2, WeekdayDays: 5, WeekendDays: 2}, out[0].Split)

	assert.Equal(t, "2024-10-14週", out[1].Bucket)
	assert.Equal(t, jstTime(t, "2024-10-18"), out[1].AggregateTo)
	assert.Equal(t, 5, out[1].TotalCount)
	// 10-14 is スポーツの日
	assert.Equal(t, &model.WeekSplit{WeekdayTotal: 4, WeekendTotal: 1, WeekdayDays: 4, WeekendDays: 1}, out[1].Split)
}

func TestWeekly_SkipsEmptyWindows(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-10-01", 2, nil),
		testRow(t, "2024-10-16", 3, nil),
	}

	out := e.Weekly(rows,
		model.WeekRange{From: jstTime(t, "2024-10-01"), To: jstTime(t, "2024-10-07")},
		model.WeekRange{From: jstTime(t, "2024-10-15"), To: jstTime(t, "2024-10-21")})
	require.Len(t, out, 2)
	assert.Equal(t, "2024-10-01週", out[0].Bucket)
	assert.Equal(t, "2024-10-15週", out[1].Bucket)
	for _, r := range out {
		assert.Equal(t, r.TotalCount, r.Split.WeekdayTotal+r.Split.WeekendTotal)
	}
}

func TestWeekly_BadRanges(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := dailyRows(t, "2024-10-01", "2024-10-10", 1)

	assert.Empty(t, e.Weekly(rows, model.WeekRange{}, model.WeekRange{To: jstTime(t, "2024-10-10")}))
	assert.Empty(t, e.Weekly(rows,
		model.WeekRange{From: jstTime(t, "2024-10-10")},
		model.WeekRange{To: jstTime(t, "2024-10-01")}))
}

// ------------------- Daily and hourly -------------------

func TestDaily_FirstRowWins(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-10-17 10:00", 3, map[string]int{"car": 3}),
		testRow(t, "2024-10-17 11:00", 4, map[string]int{"car": 4}),
		testRow(t, "2024-10-14", 5, map[string]int{"car": 5}),
	}

	out := e.Daily(rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	require.Len(t, out, 2)

	assert.Equal(t, "2024-10-17", out[0].Bucket)
	assert.Equal(t, 3, out[0].TotalCount)
	assert.Equal(t, &model.DayInfo{DayOfWeek: "木"}, out[0].Day)

	assert.Equal(t, "2024-10-14", out[1].Bucket)
	assert.Equal(t, &model.DayInfo{DayOfWeek: "月", HolidayName: calendar.NameSports}, out[1].Day)
	assert.Nil(t, out[1].Split)
}

func TestDaily_MergePolicy(t *testing.T) {
	t.Parallel()

	e := newTestEngine(WithDuplicatePolicy(DuplicateMerge))
	rows := []model.Row{
		testRow(t, "2024-10-17 10:00", 3, map[string]int{"car": 3}),
		testRow(t, "2024-10-17 11:00", 4, map[string]int{"car": 1, "bus": 3}),
	}

	out := e.Daily(rows, jstTime(t, "2024-10-17"), jstTime(t, "2024-10-17"))
	require.Len(t, out, 1)
	assert.Equal(t, 7, out[0].TotalCount)
	assert.Equal(t, map[string]int{"car": 4, "bus": 3}, out[0].Counts)

	// the input map is untouched
	assert.Equal(t, map[string]int{"car": 3}, rows[0].Counts)
}

func TestDaily_DistinctKeys(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	var rows []model.Row
	for _, r := range dailyRows(t, "2024-10-01", "2024-10-20", 2) {
		rows = append(rows, r, r)
	}

	out := e.Daily(rows, jstTime(t, "2024-10-05"), jstTime(t, "2024-10-15"))
	require.Len(t, out, 11)
	seen := make(map[string]bool)
	for _, r := range out {
		assert.False(t, seen[r.Bucket], r.Bucket)
		seen[r.Bucket] = true
	}
}

func TestHourly(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-10-17 10:00", 1, nil),
		{AggregateFrom: jstTime(t, "2024-10-17 10:00").Add(30 * time.Minute), TotalCount: 9},
		{AggregateFrom: time.Date(2024, 10, 17, 2, 0, 0, 0, time.UTC), TotalCount: 2},
		{TotalCount: 50},
	}

	out := e.Hourly(rows)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-10-17 10:00", out[0].Bucket)
	assert.Equal(t, 1, out[0].TotalCount)
	assert.Equal(t, "2024-10-17 11:00", out[1].Bucket)
	assert.Equal(t, "木", out[1].Day.DayOfWeek)
}

// ------------------- Purity -------------------

func TestAggregations_Idempotent(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := dailyRows(t, "2024-09-28", "2024-10-20", 4)
	snapshot := make([]model.Row, len(rows))
	for i, r := range rows {
		snapshot[i] = r.Clone()
	}
	start, end := jstTime(t, "2024-09-30"), jstTime(t, "2024-10-18")

	for _, g := range []model.Granularity{model.Monthly, model.Weekly, model.Daily, model.Hourly} {
		first := e.Aggregate(g, rows, start, end)
		second := e.Aggregate(g, rows, start, end)
		assert.Equal(t, first, second, string(g))
		assert.NotEmpty(t, first, string(g))
	}
	assert.Equal(t, snapshot, rows)
}

func TestAggregate_WeeklyCalendarWeeks(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := dailyRows(t, "2024-10-01", "2024-10-31", 1)

	// Wednesday to Saturday widens to the Monday of the first week and the
	// Sunday of the last.
	out := e.Aggregate(model.Weekly, rows, jstTime(t, "2024-10-02"), jstTime(t, "2024-10-12"))
	require.Len(t, out, 2)
	assert.Equal(t, "2024-09-30週", out[0].Bucket)
	assert.Equal(t, time.Monday, out[0].AggregateFrom.Weekday())
	assert.Equal(t, 6, out[0].TotalCount, "rows begin on 10-01")
	assert.Equal(t, "2024-10-07週", out[1].Bucket)
	assert.Equal(t, time.Sunday, out[1].AggregateTo.Weekday())
	assert.Equal(t, 7, out[1].TotalCount)

	assert.Empty(t, e.Aggregate(model.Weekly, rows, time.Time{}, jstTime(t, "2024-10-12")))
	assert.Empty(t, e.Aggregate("year", rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-12")))
}

// ------------------- Helpers -------------------

func TestWeekOf(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	want := model.WeekRange{From: jstTime(t, "2024-10-14"), To: jstTime(t, "2024-10-20")}

	for _, d := range []string{"2024-10-14", "2024-10-17 18:00", "2024-10-20 23:00"} {
		assert.Equal(t, want, e.WeekOf(jstTime(t, d)), d)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	e := newTestEngine()
	rows := []model.Row{
		testRow(t, "2024-10-11 10:00", 4, nil), // Friday
		testRow(t, "2024-10-11 11:00", 2, nil),
		testRow(t, "2024-10-12", 10, nil), // Saturday
		testRow(t, "2024-10-14", 6, nil),  // holiday
		{TotalCount: 99},
	}

	s := e.Summarize(rows)
	assert.Equal(t, model.Summary{
		TotalCount:     22,
		WeekdayTotal:   6,
		WeekendTotal:   16,
		WeekdayDays:    1,
		WeekendDays:    2,
		WeekdayAverage: 6,
		WeekendAverage: 8,
	}, s)

	monthly := e.Monthly(rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	assert.Equal(t, s, e.Summarize(monthly))

	assert.Equal(t, model.Summary{}, e.Summarize(nil))
}

func TestCustomWeekendPredicate(t *testing.T) {
	t.Parallel()

	e := newTestEngine(WithWeekendPredicate(func(time.Time) bool { return false }))
	rows := dailyRows(t, "2024-10-12", "2024-10-14", 1)

	out := e.Monthly(rows, jstTime(t, "2024-10-01"), jstTime(t, "2024-10-31"))
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Split.WeekdayDays)
	assert.Zero(t, out[0].Split.WeekendDays)
	assert.False(t, e.IsWeekend(jstTime(t, "2024-10-12")))
}
