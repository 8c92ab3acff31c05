package calendar

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
)

var jst = time.FixedZone("Asia/Tokyo", 9*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, jst)
}

func TestJapan_2024(t *testing.T) {
	t.Parallel()

	want := map[string]string{
		"2024-01-01": NameNewYear,
		"2024-01-08": NameComingOfAge,
		"2024-02-11": NameFoundation,
		"2024-02-12": NameSubstitute,
		"2024-02-23": NameEmperor,
		"2024-03-20": NameVernalEquinox,
		"2024-04-29": NameShowa,
		"2024-05-03": NameConstitution,
		"2024-05-04": NameGreenery,
		"2024-05-05": NameChildren,
		"2024-05-06": NameSubstitute,
		"2024-07-15": NameMarine,
		"2024-08-11": NameMountain,
		"2024-08-12": NameSubstitute,
		"2024-09-16": NameRespectAged,
		"2024-09-22": NameAutumnalEquinox,
		"2024-09-23": NameSubstitute,
		"2024-10-14": NameSports,
		"2024-11-03": NameCulture,
		"2024-11-04": NameSubstitute,
		"2024-11-23": NameLabor,
	}

	cal := NewJapan()
	got := cal.Between(day(2024, time.January, 1), day(2024, time.December, 31))
	require.Len(t, got, len(want))

	for _, h := range got {
		name, ok := want[DateKey(h.Date)]
		require.True(t, ok, "unexpected holiday %s %s", DateKey(h.Date), h.Name)
		assert.Equal(t, name, h.Name, DateKey(h.Date))
	}

	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date))
	}
}

func TestJapan_SpecialYears(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{name: "enthronement_eve", date: day(2019, time.April, 30), want: NameCitizens},
		{name: "enthronement", date: day(2019, time.May, 1), want: NameTreatedHoliday},
		{name: "enthronement_after", date: day(2019, time.May, 2), want: NameCitizens},
		{name: "enthronement_ceremony", date: day(2019, time.October, 22), want: NameTreatedHoliday},
		{name: "olympic_marine_2020", date: day(2020, time.July, 23), want: NameMarine},
		{name: "olympic_sports_2020", date: day(2020, time.July, 24), want: NameSports},
		{name: "olympic_mountain_2020", date: day(2020, time.August, 10), want: NameMountain},
		{name: "olympic_mountain_2021", date: day(2021, time.August, 8), want: NameMountain},
		{name: "olympic_substitute_2021", date: day(2021, time.August, 9), want: NameSubstitute},
		{name: "citizens_holiday_2026", date: day(2026, time.September, 22), want: NameCitizens},
		{name: "old_emperor_birthday", date: day(2018, time.December, 23), want: NameEmperor},
		{name: "health_sports_2019", date: day(2019, time.October, 14), want: NameHealthSports},
	}

	cal := NewJapan()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, ok := cal.Lookup(tt.date)
			require.True(t, ok)
			assert.Equal(t, tt.want, h.Name)
			assert.Equal(t, tt.date, h.Date)
		})
	}
}

func TestJapan_NotHolidays(t *testing.T) {
	t.Parallel()

	cal := NewJapan()
	for _, d := range []time.Time{
		day(2019, time.December, 23),
		day(2020, time.October, 12),
		day(2024, time.October, 17),
		day(2024, time.February, 13),
	} {
		_, ok := cal.Lookup(d)
		assert.False(t, ok, DateKey(d))
	}
}

func TestJapan_LookupIgnoresClockTime(t *testing.T) {
	t.Parallel()

	cal := NewJapan()
	h, ok := cal.Lookup(time.Date(2024, time.November, 3, 23, 30, 0, 0, jst))
	require.True(t, ok)
	assert.Equal(t, NameCulture, h.Name)
}

func TestJapan_ConcurrentLookups(t *testing.T) {
	t.Parallel()

	cal := NewJapan()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := cal.Lookup(day(2025, time.January, 13))
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestWeekdayLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "日", WeekdayLabel(time.Sunday))
	assert.Equal(t, "土", WeekdayLabel(time.Saturday))
	assert.Equal(t, "木", WeekdayLabel(day(2024, time.October, 17).Weekday()))
}

const tableCSV = "国民の祝日・休日月日,国民の祝日・休日名称\n" +
	"2030/1/1,元日\n" +
	"2030/1/14,成人の日\n" +
	"2030/2/11,建国記念の日\n"

func TestLoadCSV_UTF8WithBOM(t *testing.T) {
	t.Parallel()

	table, err := LoadCSV(strings.NewReader("\ufeff" + tableCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.True(t, table.Covers(2030))
	assert.False(t, table.Covers(2029))

	h, ok := table.Lookup(day(2030, time.January, 14))
	require.True(t, ok)
	assert.Equal(t, "成人の日", h.Name)
}

func TestLoadCSV_ShiftJIS(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := japanese.ShiftJIS.NewEncoder().Writer(&buf)
	_, err := w.Write([]byte(tableCSV))
	require.NoError(t, err)

	table, err := LoadCSV(&buf)
	require.NoError(t, err)

	h, ok := table.Lookup(day(2030, time.February, 11))
	require.True(t, ok)
	assert.Equal(t, "建国記念の日", h.Name)
}

func TestLoadCSV_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadCSV(strings.NewReader("date,name\n"))
	require.ErrorIs(t, err, ErrEmptyTable)

	_, err = LoadCSV(strings.NewReader("2030/1/1,元日\nnot-a-date,x\n"))
	require.Error(t, err)
}

func TestOverlay(t *testing.T) {
	t.Parallel()

	table, err := LoadCSV(strings.NewReader(tableCSV))
	require.NoError(t, err)
	cal := Overlay(table, NewJapan())

	// covered year: only the table answers
	_, ok := cal.Lookup(day(2030, time.March, 20))
	assert.False(t, ok)

	// uncovered year: rules answer
	h, ok := cal.Lookup(day(2024, time.March, 20))
	require.True(t, ok)
	assert.Equal(t, NameVernalEquinox, h.Name)

	hs := cal.Between(day(2029, time.November, 1), day(2030, time.January, 31))
	var keys []string
	for _, h := range hs {
		keys = append(keys, DateKey(h.Date))
	}
	assert.Equal(t, []string{"2029-11-03", "2029-11-23", "2030-01-01", "2030-01-14"}, keys)
}
