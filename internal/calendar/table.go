package calendar

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptyTable is returned when a holiday file contains no usable rows.
var ErrEmptyTable = errors.New("holiday table has no rows")

var tableDateLayouts = []string{"2006/1/2", "2006-01-02", "2006-1-2", "2006/01/02"}

// Table is a calendar backed by a published holiday list.
type Table struct {
	days  map[string]Holiday
	years map[int]bool
}

// LoadFile reads a holiday CSV from path. See LoadCSV.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open holiday file: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV parses the Cabinet Office holiday list: two columns, the date
// (YYYY/M/D) and the name, with an optional header row. The text may be
// Shift_JIS, as published, or UTF-8 with or without BOM.
func LoadCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}

	var text io.Reader
	if utf8.Valid(raw) {
		text = transform.NewReader(bytes.NewReader(raw), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	} else {
		text = transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder())
	}

	cr := csv.NewReader(text)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	t := &Table{days: make(map[string]Holiday), years: make(map[int]bool)}
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse holiday file: %w", err)
		}
		line++
		if len(rec) < 2 {
			continue
		}
		d, ok := parseTableDate(rec[0])
		if !ok {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("parse holiday file: line %d: bad date %q", line, rec[0])
		}
		t.days[DateKey(d)] = Holiday{Date: d, Name: strings.TrimSpace(rec[1])}
		t.years[d.Year()] = true
	}

	if len(t.days) == 0 {
		return nil, ErrEmptyTable
	}
	return t, nil
}

func parseTableDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range tableDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Covers reports whether the table lists holidays for year y.
func (t *Table) Covers(y int) bool {
	return t.years[y]
}

// Len returns the number of holidays in the table.
func (t *Table) Len() int {
	return len(t.days)
}

// Lookup implements Calendar.
func (t *Table) Lookup(day time.Time) (Holiday, bool) {
	h, ok := t.days[DateKey(civil(day))]
	if !ok {
		return Holiday{}, false
	}
	h.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return h, true
}

// Between implements Calendar.
func (t *Table) Between(from, to time.Time) []Holiday {
	return collect(from, to, t.year)
}

func (t *Table) year(y int) map[string]Holiday {
	if !t.years[y] {
		return nil
	}
	out := make(map[string]Holiday)
	for k, h := range t.days {
		if h.Date.Year() == y {
			out[k] = h
		}
	}
	return out
}

// overlay answers from the table for covered years, from fallback otherwise.
type overlay struct {
	table    *Table
	fallback Calendar
}

// Overlay combines a published table with a fallback calendar. A year the
// table covers is answered by the table alone.
func Overlay(table *Table, fallback Calendar) Calendar {
	return &overlay{table: table, fallback: fallback}
}

func (o *overlay) Lookup(day time.Time) (Holiday, bool) {
	if o.table.Covers(day.Year()) {
		return o.table.Lookup(day)
	}
	return o.fallback.Lookup(day)
}

func (o *overlay) Between(from, to time.Time) []Holiday {
	var out []Holiday
	for _, h := range o.fallback.Between(from, to) {
		if !o.table.Covers(h.Date.Year()) {
			out = append(out, h)
		}
	}
	out = append(out, o.table.Between(from, to)...)
	sortHolidays(out)
	return out
}
