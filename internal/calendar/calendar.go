// Package calendar answers public-holiday questions for the aggregation engine.
//
// Two implementations are provided: a rule-based Japanese calendar that needs
// no data files, and a table loaded from the Cabinet Office holiday CSV.
// Overlay combines them so the published table wins for the years it covers.
package calendar

import (
	"sort"
	"time"
)

// Tokyo is Japan Standard Time. A fixed zone keeps results independent of the
// host's tz database.
var Tokyo = time.FixedZone("Asia/Tokyo", 9*60*60)

// Holiday is one public holiday.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Calendar is the calendar collaborator of the aggregation engine.
// Implementations must return the same answer for the same date.
type Calendar interface {
	// Lookup reports whether day is a holiday. Only the calendar date of day
	// in its own location is considered.
	Lookup(day time.Time) (Holiday, bool)
	// Between returns the holidays in [from, to] by calendar date, in
	// chronological order.
	Between(from, to time.Time) []Holiday
}

var weekdayLabels = [7]string{"日", "月", "火", "水", "木", "金", "土"}

// WeekdayLabel returns the one-character Japanese label of wd.
func WeekdayLabel(wd time.Weekday) string {
	return weekdayLabels[wd]
}

// DateKey formats the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, loc)
}

// civil returns midnight of t's calendar date in UTC, for day arithmetic.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// collect walks the years of [from, to] and keeps holidays inside the span.
func collect(from, to time.Time, year func(int) map[string]Holiday) []Holiday {
	lo, hi := civil(from), civil(to)
	if hi.Before(lo) {
		return nil
	}
	var out []Holiday
	for y := lo.Year(); y <= hi.Year(); y++ {
		for _, h := range year(y) {
			d := civil(h.Date)
			if d.Before(lo) || d.After(hi) {
				continue
			}
			out = append(out, Holiday{
				Date: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, from.Location()),
				Name: h.Name,
			})
		}
	}
	sortHolidays(out)
	return out
}

func sortHolidays(hs []Holiday) {
	sort.Slice(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
}
