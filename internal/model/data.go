package model

import (
	"time"

	"github.com/goccy/go-json"
)

// Base column names of a raw people-flow row
const (
	ColPlacement     = "placement"
	ColObjectClass   = "objectClass"
	ColAggregateFrom = "aggregateFrom"
	ColAggregateTo   = "aggregateTo"
	ColTotalCount    = "totalCount"
)

// IsBaseColumn reports whether name is one of the identifying columns that
// are never treated as a category counter.
func IsBaseColumn(name string) bool {
	switch name {
	case ColPlacement, ColObjectClass, ColAggregateFrom, ColAggregateTo, ColTotalCount:
		return true
	}
	return false
}

// DayInfo is attached to day and hour buckets.
type DayInfo struct {
	DayOfWeek   string `json:"dayOfWeek"`
	HolidayName string `json:"holidayName"`
}

// WeekSplit is attached to month and week buckets.
type WeekSplit struct {
	WeekdayTotal int `json:"weekdayTotal"`
	WeekendTotal int `json:"weekendTotal"`
	WeekdayDays  int `json:"weekdayDays"`
	WeekendDays  int `json:"weekendDays"`
}

// Row is one aggregated observation. A zero AggregateFrom marks a row whose
// timestamp could not be parsed; such rows never reach a bucket.
type Row struct {
	Placement     string
	ObjectClass   string
	AggregateFrom time.Time
	AggregateTo   time.Time
	TotalCount    int
	Counts        map[string]int    // category columns
	Attrs         map[string]string // non-numeric extra columns

	// RawFrom and RawTo keep the source text of the timestamps.
	RawFrom string
	RawTo   string

	// Derived fields, set only by the engine.
	Bucket string
	Day    *DayInfo
	Split  *WeekSplit
}

// Valid reports whether the row carries a parsable aggregateFrom.
func (r Row) Valid() bool {
	return !r.AggregateFrom.IsZero()
}

// CategorySum returns the sum of all category columns.
func (r Row) CategorySum() int {
	sum := 0
	for _, v := range r.Counts {
		sum += v
	}
	return sum
}

// Clone returns a deep copy of the row's maps and derived fields.
func (r Row) Clone() Row {
	out := r
	if r.Counts != nil {
		out.Counts = make(map[string]int, len(r.Counts))
		for k, v := range r.Counts {
			out.Counts[k] = v
		}
	}
	if r.Attrs != nil {
		out.Attrs = make(map[string]string, len(r.Attrs))
		for k, v := range r.Attrs {
			out.Attrs[k] = v
		}
	}
	if r.Day != nil {
		d := *r.Day
		out.Day = &d
	}
	if r.Split != nil {
		s := *r.Split
		out.Split = &s
	}
	return out
}

// WeekdayAverage is the mean count per weekday of a month/week bucket.
func (r Row) WeekdayAverage() float64 {
	if r.Split == nil || r.Split.WeekdayDays == 0 {
		return 0
	}
	return float64(r.Split.WeekdayTotal) / float64(r.Split.WeekdayDays)
}

// WeekendAverage is the mean count per weekend or holiday date of a month/week bucket.
func (r Row) WeekendAverage() float64 {
	if r.Split == nil || r.Split.WeekendDays == 0 {
		return 0
	}
	return float64(r.Split.WeekendTotal) / float64(r.Split.WeekendDays)
}

// Fields flattens the row into a column-name keyed map, the shape charts consume.
func (r Row) Fields() map[string]interface{} {
	m := make(map[string]interface{}, len(r.Counts)+len(r.Attrs)+10)
	for k, v := range r.Attrs {
		m[k] = v
	}
	for k, v := range r.Counts {
		m[k] = v
	}
	if r.Placement != "" {
		m[ColPlacement] = r.Placement
	}
	if r.ObjectClass != "" {
		m[ColObjectClass] = r.ObjectClass
	}
	m[ColAggregateFrom] = formatTimestamp(r.AggregateFrom, r.RawFrom)
	m[ColAggregateTo] = formatTimestamp(r.AggregateTo, r.RawTo)
	m[ColTotalCount] = r.TotalCount
	if r.Bucket != "" {
		m["bucket"] = r.Bucket
	}
	if r.Day != nil {
		m["dayOfWeek"] = r.Day.DayOfWeek
		m["holidayName"] = r.Day.HolidayName
	}
	if r.Split != nil {
		m["weekdayTotal"] = r.Split.WeekdayTotal
		m["weekendTotal"] = r.Split.WeekendTotal
		m["weekdayDays"] = r.Split.WeekdayDays
		m["weekendDays"] = r.Split.WeekendDays
	}
	return m
}

// MarshalJSON encodes the row as a flat object.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

func formatTimestamp(t time.Time, raw string) string {
	if t.IsZero() {
		return raw
	}
	return t.Format(time.RFC3339)
}

// Dataset is the parsed content of one source.
type Dataset struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"` // header order, base columns included
	Rows    []Row    `json:"rows"`
}

// CategoryColumns returns the non-base columns in header order.
func (d *Dataset) CategoryColumns() []string {
	cols := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		if !IsBaseColumn(c) {
			cols = append(cols, c)
		}
	}
	return cols
}

// DateRange is an inclusive span of calendar dates.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// WeekRange is an inclusive calendar-week span normalized to midnight.
type WeekRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Share is one slice of a prefecture or region breakdown.
type Share struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary is the weekday-vs-weekend summary of a period.
type Summary struct {
	TotalCount     int     `json:"totalCount"`
	WeekdayTotal   int     `json:"weekdayTotal"`
	WeekendTotal   int     `json:"weekendTotal"`
	WeekdayDays    int     `json:"weekdayDays"`
	WeekendDays    int     `json:"weekendDays"`
	WeekdayAverage float64 `json:"weekdayAverage"`
	WeekendAverage float64 `json:"weekendAverage"`
}

// PeriodResult holds the aggregated rows of one period.
type PeriodResult struct {
	Start   string  `json:"start,omitempty"`
	End     string  `json:"end,omitempty"`
	Rows    []Row   `json:"rows"`
	Summary Summary `json:"summary"`
}

// AggregationResult is returned by a pipeline run.
type AggregationResult struct {
	RunID       string         `json:"runId"`
	Granularity Granularity    `json:"granularity"`
	Group       string         `json:"group,omitempty"`
	Main        PeriodResult   `json:"main"`
	Compare     *PeriodResult  `json:"compare,omitempty"`
	Breakdown   []Share        `json:"breakdown,omitempty"`
	Exports     []ExportResult `json:"exports,omitempty"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json"
	Path        string    `json:"path"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	RecordCount int       `json:"recordCount"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
