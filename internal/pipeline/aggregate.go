package pipeline

import (
	"time"

	"github.com/rs/zerolog"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/metrics"
	"go-peopleflow/internal/model"
)

// DuplicatePolicy decides what daily and hourly aggregation does with a
// second row for a bucket that is already filled.
type DuplicatePolicy string

const (
	DuplicateFirst DuplicatePolicy = "first" // keep the first row, drop the rest
	DuplicateMerge DuplicatePolicy = "merge" // sum the rows like month and week do
)

// DefaultSeasonCutoff is the December day monthly ranges start from at the
// earliest.
const DefaultSeasonCutoff = 20

// Engine re-buckets rows into month, week, day and hour views. All methods
// are pure functions of their arguments; an Engine may be shared between
// goroutines.
type Engine struct {
	cal        calendar.Calendar
	loc        *time.Location
	weekend    func(day time.Time) bool
	cutoff     int
	duplicates DuplicatePolicy
	logger     zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLocation sets the zone calendar dates are taken in.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithWeekendPredicate replaces the Saturday, Sunday or holiday rule.
func WithWeekendPredicate(fn func(day time.Time) bool) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.weekend = fn
		}
	}
}

// WithSeasonCutoff sets the December clamp day. Zero disables the clamp.
func WithSeasonCutoff(day int) EngineOption {
	return func(e *Engine) {
		if day >= 0 && day <= 31 {
			e.cutoff = day
		}
	}
}

// WithDuplicatePolicy sets the daily and hourly duplicate handling.
func WithDuplicatePolicy(p DuplicatePolicy) EngineOption {
	return func(e *Engine) {
		if p == DuplicateFirst || p == DuplicateMerge {
			e.duplicates = p
		}
	}
}

// WithLogger sets the logger used for duplicate warnings.
//
//nolint:gocritic // zerolog.Logger is passed by value
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an engine over cal. A nil cal uses the rule-based
// Japanese calendar.
func NewEngine(cal calendar.Calendar, opts ...EngineOption) *Engine {
	if cal == nil {
		cal = calendar.NewJapan()
	}
	e := &Engine{
		cal:        cal,
		loc:        calendar.Tokyo,
		cutoff:     DefaultSeasonCutoff,
		duplicates: DuplicateFirst,
		logger:     logging.WithComponent("aggregate"),
	}
	e.weekend = e.isWeekendOrHoliday
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the engine's zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// IsWeekend applies the engine's weekend predicate to day.
func (e *Engine) IsWeekend(day time.Time) bool {
	return e.weekend(e.dateOf(day))
}

func (e *Engine) isWeekendOrHoliday(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	_, ok := e.cal.Lookup(day)
	return ok
}

// ------------------- Dates -------------------

// dateOf returns midnight of t's calendar date in the engine zone.
func (e *Engine) dateOf(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// bounds holds an inclusive date filter; a zero side is open.
type bounds struct {
	from, to time.Time
}

func (e *Engine) bounds(start, end time.Time) bounds {
	var b bounds
	if !start.IsZero() {
		b.from = e.dateOf(start)
	}
	if !end.IsZero() {
		b.to = e.dateOf(end)
	}
	return b
}

// contains filters on the calendar date of aggregateFrom. Rows without a
// parsable timestamp are never contained.
func (e *Engine) contains(b bounds, r model.Row) bool {
	if !r.Valid() {
		return false
	}
	d := e.dateOf(r.AggregateFrom)
	if !b.from.IsZero() && d.Before(b.from) {
		return false
	}
	if !b.to.IsZero() && d.After(b.to) {
		return false
	}
	return true
}

// WeekOf returns the Monday to Sunday week containing t.
func (e *Engine) WeekOf(t time.Time) model.WeekRange {
	d := e.dateOf(t)
	back := (int(d.Weekday()) + 6) % 7
	from := d.AddDate(0, 0, -back)
	return model.WeekRange{From: from, To: from.AddDate(0, 0, 6)}
}

// ------------------- Month and week buckets -------------------

type sumBucket struct {
	row         model.Row
	weekdayDays map[string]struct{}
	weekendDays map[string]struct{}
}

func newSumBucket(key string, from, to time.Time, first model.Row) *sumBucket {
	return &sumBucket{
		row: model.Row{
			Placement:     first.Placement,
			ObjectClass:   first.ObjectClass,
			AggregateFrom: from,
			AggregateTo:   to,
			Counts:        make(map[string]int, len(first.Counts)),
			Bucket:        key,
			Split:         &model.WeekSplit{},
		},
		weekdayDays: make(map[string]struct{}),
		weekendDays: make(map[string]struct{}),
	}
}

func (e *Engine) addToBucket(b *sumBucket, r model.Row) {
	b.row.TotalCount += r.TotalCount
	for k, v := range r.Counts {
		b.row.Counts[k] += v
	}

	d := e.dateOf(r.AggregateFrom)
	key := calendar.DateKey(d)
	if e.weekend(d) {
		b.row.Split.WeekendTotal += r.TotalCount
		b.weekendDays[key] = struct{}{}
	} else {
		b.row.Split.WeekdayTotal += r.TotalCount
		b.weekdayDays[key] = struct{}{}
	}
}

func (b *sumBucket) finish() model.Row {
	b.row.Split.WeekdayDays = len(b.weekdayDays)
	b.row.Split.WeekendDays = len(b.weekendDays)
	return b.row
}

// Monthly groups rows in [start, end] by calendar month. A start in
// December before the season cutoff day is moved forward to the cutoff.
// Totals and category columns are summed per month and split into weekday
// and weekend-or-holiday parts; the day counts are distinct dates.
func (e *Engine) Monthly(rows []model.Row, start, end time.Time) []model.Row {
	b := e.bounds(start, end)
	if !b.from.IsZero() && b.from.Month() == time.December && e.cutoff > 0 && b.from.Day() < e.cutoff {
		b.from = time.Date(b.from.Year(), time.December, e.cutoff, 0, 0, 0, 0, e.loc)
	}
	if !b.from.IsZero() && !b.to.IsZero() && b.to.Before(b.from) {
		return []model.Row{}
	}

	var order []string
	buckets := make(map[string]*sumBucket)
	for _, r := range rows {
		if !e.contains(b, r) {
			continue
		}
		d := e.dateOf(r.AggregateFrom)
		key := d.Format("2006-01")
		bk, ok := buckets[key]
		if !ok {
			monthStart := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, e.loc)
			bk = newSumBucket(key, monthStart, monthStart.AddDate(0, 1, -1), r)
			buckets[key] = bk
			order = append(order, key)
		}
		e.addToBucket(bk, r)
	}

	out := make([]model.Row, 0, len(order))
	for _, key := range order {
		out = append(out, buckets[key].finish())
	}
	return out
}

// Weekly groups rows into 7-day windows walking from startWeek.From. The last
// window is clipped to endWeek.To and windows without rows are skipped.
func (e *Engine) Weekly(rows []model.Row, startWeek, endWeek model.WeekRange) []model.Row {
	if startWeek.From.IsZero() || endWeek.To.IsZero() {
		return []model.Row{}
	}
	b := e.bounds(startWeek.From, endWeek.To)
	if b.to.Before(b.from) {
		return []model.Row{}
	}

	windows := daysBetween(b.from, b.to)/7 + 1
	buckets := make([]*sumBucket, windows)
	for _, r := range rows {
		if !e.contains(b, r) {
			continue
		}
		i := daysBetween(b.from, e.dateOf(r.AggregateFrom)) / 7
		if buckets[i] == nil {
			ws := b.from.AddDate(0, 0, 7*i)
			we := ws.AddDate(0, 0, 6)
			if we.After(b.to) {
				we = b.to
			}
			buckets[i] = newSumBucket(ws.Format("2006-01-02")+"週", ws, we, r)
		}
		e.addToBucket(buckets[i], r)
	}

	out := make([]model.Row, 0, windows)
	for _, bk := range buckets {
		if bk != nil {
			out = append(out, bk.finish())
		}
	}
	return out
}

// ------------------- Day and hour buckets -------------------

// Daily keeps one row per calendar date in [start, end], annotated with the
// weekday label and holiday name.
func (e *Engine) Daily(rows []model.Row, start, end time.Time) []model.Row {
	b := e.bounds(start, end)
	if !b.from.IsZero() && !b.to.IsZero() && b.to.Before(b.from) {
		return []model.Row{}
	}
	return e.keyed(rows, func(r model.Row) (string, bool) {
		if !e.contains(b, r) {
			return "", false
		}
		return calendar.DateKey(e.dateOf(r.AggregateFrom)), true
	})
}

// Hourly keeps one row per local hour. No range filter is applied.
func (e *Engine) Hourly(rows []model.Row) []model.Row {
	return e.keyed(rows, func(r model.Row) (string, bool) {
		if !r.Valid() {
			return "", false
		}
		return r.AggregateFrom.In(e.loc).Format("2006-01-02 15:00"), true
	})
}

func (e *Engine) keyed(rows []model.Row, keyOf func(model.Row) (string, bool)) []model.Row {
	var order []string
	picked := make(map[string]*model.Row)
	for _, r := range rows {
		key, ok := keyOf(r)
		if !ok {
			continue
		}
		if kept, dup := picked[key]; dup {
			e.duplicate(key, kept, r)
			continue
		}
		c := r.Clone()
		c.Bucket = key
		c.Split = nil
		c.Day = e.dayInfo(c.AggregateFrom)
		picked[key] = &c
		order = append(order, key)
	}

	out := make([]model.Row, 0, len(order))
	for _, key := range order {
		out = append(out, *picked[key])
	}
	return out
}

func (e *Engine) duplicate(key string, kept *model.Row, r model.Row) {
	metrics.DuplicateRows.Inc()
	if e.duplicates == DuplicateMerge {
		kept.TotalCount += r.TotalCount
		if kept.Counts == nil && len(r.Counts) > 0 {
			kept.Counts = make(map[string]int, len(r.Counts))
		}
		for k, v := range r.Counts {
			kept.Counts[k] += v
		}
		return
	}
	if !sameCounts(*kept, r) {
		e.logger.Warn().
			Str("bucket", key).
			Int("kept_total", kept.TotalCount).
			Int("dropped_total", r.TotalCount).
			Msg("Dropped duplicate row with different counts")
	}
}

func sameCounts(a, b model.Row) bool {
	if a.TotalCount != b.TotalCount || len(a.Counts) != len(b.Counts) {
		return false
	}
	for k, v := range a.Counts {
		if bv, ok := b.Counts[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func (e *Engine) dayInfo(t time.Time) *model.DayInfo {
	d := e.dateOf(t)
	info := &model.DayInfo{DayOfWeek: calendar.WeekdayLabel(d.Weekday())}
	if h, ok := e.cal.Lookup(d); ok {
		info.HolidayName = h.Name
	}
	return info
}

// ------------------- Dispatch and summary -------------------

// Aggregate runs the granularity's aggregation over [start, end]. Weekly
// buckets are the Monday to Sunday weeks containing start and end; hourly
// ignores the range.
func (e *Engine) Aggregate(g model.Granularity, rows []model.Row, start, end time.Time) []model.Row {
	switch g {
	case model.Monthly:
		return e.Monthly(rows, start, end)
	case model.Weekly:
		if start.IsZero() || end.IsZero() {
			return []model.Row{}
		}
		return e.Weekly(rows, e.WeekOf(start), e.WeekOf(end))
	case model.Daily:
		return e.Daily(rows, start, end)
	case model.Hourly:
		return e.Hourly(rows)
	}
	return []model.Row{}
}

// Summarize computes the weekday against weekend-or-holiday summary of rows.
// Month and week buckets contribute their split; other rows are classified
// by their own date, each date counted once.
func (e *Engine) Summarize(rows []model.Row) model.Summary {
	var s model.Summary
	weekdays := make(map[string]struct{})
	weekends := make(map[string]struct{})
	for _, r := range rows {
		if r.Split != nil {
			s.TotalCount += r.TotalCount
			s.WeekdayTotal += r.Split.WeekdayTotal
			s.WeekendTotal += r.Split.WeekendTotal
			s.WeekdayDays += r.Split.WeekdayDays
			s.WeekendDays += r.Split.WeekendDays
			continue
		}
		if !r.Valid() {
			continue
		}
		s.TotalCount += r.TotalCount
		d := e.dateOf(r.AggregateFrom)
		if e.weekend(d) {
			s.WeekendTotal += r.TotalCount
			weekends[calendar.DateKey(d)] = struct{}{}
		} else {
			s.WeekdayTotal += r.TotalCount
			weekdays[calendar.DateKey(d)] = struct{}{}
		}
	}
	s.WeekdayDays += len(weekdays)
	s.WeekendDays += len(weekends)
	if s.WeekdayDays > 0 {
		s.WeekdayAverage = float64(s.WeekdayTotal) / float64(s.WeekdayDays)
	}
	if s.WeekendDays > 0 {
		s.WeekendAverage = float64(s.WeekendTotal) / float64(s.WeekendDays)
	}
	return s
}
