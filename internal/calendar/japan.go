package calendar

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Holiday names as published by the Cabinet Office.
const (
	NameNewYear         = "元日"
	NameComingOfAge     = "成人の日"
	NameFoundation      = "建国記念の日"
	NameEmperor         = "天皇誕生日"
	NameVernalEquinox   = "春分の日"
	NameShowa           = "昭和の日"
	NameConstitution    = "憲法記念日"
	NameGreenery        = "みどりの日"
	NameChildren        = "こどもの日"
	NameMarine          = "海の日"
	NameMountain        = "山の日"
	NameRespectAged     = "敬老の日"
	NameAutumnalEquinox = "秋分の日"
	NameHealthSports    = "体育の日"
	NameSports          = "スポーツの日"
	NameCulture         = "文化の日"
	NameLabor           = "勤労感謝の日"
	NameSubstitute      = "振替休日"
	NameCitizens        = "休日"
	NameTreatedHoliday  = "休日（祝日扱い）"
)

// Japan is a rule-based Japanese public-holiday calendar. Fixed dates,
// Happy Monday rules, the equinox approximation, substitute holidays, the
// citizen's holiday between two holidays and the one-off dates of 2019-2021
// are covered. Years are computed lazily and cached.
type Japan struct {
	mu    sync.RWMutex
	years map[int]map[string]Holiday
}

// NewJapan returns an empty rule-based calendar.
func NewJapan() *Japan {
	return &Japan{years: make(map[int]map[string]Holiday)}
}

// Lookup implements Calendar.
func (j *Japan) Lookup(day time.Time) (Holiday, bool) {
	h, ok := j.year(day.Year())[DateKey(civil(day))]
	if !ok {
		return Holiday{}, false
	}
	h.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return h, true
}

// Between implements Calendar.
func (j *Japan) Between(from, to time.Time) []Holiday {
	return collect(from, to, j.year)
}

func (j *Japan) year(y int) map[string]Holiday {
	j.mu.RLock()
	m, ok := j.years[y]
	j.mu.RUnlock()
	if ok {
		return m
	}

	m = computeYear(y)

	j.mu.Lock()
	if existing, ok := j.years[y]; ok {
		m = existing
	} else {
		j.years[y] = m
	}
	j.mu.Unlock()
	return m
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nthMonday returns the n-th Monday of month m in year y.
func nthMonday(y int, m time.Month, n int) time.Time {
	first := date(y, m, 1)
	offset := (int(time.Monday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func vernalEquinox(y int) int {
	switch {
	case y <= 1979:
		return int(math.Floor(20.8357 + 0.242194*float64(y-1980) - math.Floor(float64(y-1983)/4)))
	case y <= 2099:
		return int(math.Floor(20.8431 + 0.242194*float64(y-1980) - math.Floor(float64(y-1980)/4)))
	default:
		return int(math.Floor(21.8510 + 0.242194*float64(y-1980) - math.Floor(float64(y-1980)/4)))
	}
}

func autumnalEquinox(y int) int {
	switch {
	case y <= 1979:
		return int(math.Floor(23.2588 + 0.242194*float64(y-1980) - math.Floor(float64(y-1983)/4)))
	case y <= 2099:
		return int(math.Floor(23.2488 + 0.242194*float64(y-1980) - math.Floor(float64(y-1980)/4)))
	default:
		return int(math.Floor(24.2488 + 0.242194*float64(y-1980) - math.Floor(float64(y-1980)/4)))
	}
}

// nationalHolidays returns the holidays named directly by the law for year y.
func nationalHolidays(y int) []Holiday {
	if y < 1949 {
		return nil
	}
	var hs []Holiday
	add := func(t time.Time, name string) { hs = append(hs, Holiday{Date: t, Name: name}) }

	add(date(y, time.January, 1), NameNewYear)

	if y >= 2000 {
		add(nthMonday(y, time.January, 2), NameComingOfAge)
	} else {
		add(date(y, time.January, 15), NameComingOfAge)
	}

	if y >= 1967 {
		add(date(y, time.February, 11), NameFoundation)
	}
	if y >= 2020 {
		add(date(y, time.February, 23), NameEmperor)
	}

	add(date(y, time.March, vernalEquinox(y)), NameVernalEquinox)

	switch {
	case y >= 2007:
		add(date(y, time.April, 29), NameShowa)
	case y >= 1989:
		add(date(y, time.April, 29), NameGreenery)
	default:
		add(date(y, time.April, 29), NameEmperor)
	}

	add(date(y, time.May, 3), NameConstitution)
	if y >= 2007 {
		add(date(y, time.May, 4), NameGreenery)
	}
	add(date(y, time.May, 5), NameChildren)

	switch {
	case y == 2020:
		add(date(y, time.July, 23), NameMarine)
	case y == 2021:
		add(date(y, time.July, 22), NameMarine)
	case y >= 2003:
		add(nthMonday(y, time.July, 3), NameMarine)
	case y >= 1996:
		add(date(y, time.July, 20), NameMarine)
	}

	switch {
	case y == 2020:
		add(date(y, time.August, 10), NameMountain)
	case y == 2021:
		add(date(y, time.August, 8), NameMountain)
	case y >= 2016:
		add(date(y, time.August, 11), NameMountain)
	}

	switch {
	case y >= 2003:
		add(nthMonday(y, time.September, 3), NameRespectAged)
	case y >= 1966:
		add(date(y, time.September, 15), NameRespectAged)
	}

	add(date(y, time.September, autumnalEquinox(y)), NameAutumnalEquinox)

	switch {
	case y == 2020:
		add(date(y, time.July, 24), NameSports)
	case y == 2021:
		add(date(y, time.July, 23), NameSports)
	case y >= 2020:
		add(nthMonday(y, time.October, 2), NameSports)
	case y >= 2000:
		add(nthMonday(y, time.October, 2), NameHealthSports)
	case y >= 1966:
		add(date(y, time.October, 10), NameHealthSports)
	}

	add(date(y, time.November, 3), NameCulture)
	add(date(y, time.November, 23), NameLabor)

	if y >= 1989 && y <= 2018 {
		add(date(y, time.December, 23), NameEmperor)
	}

	// one-off holidays by special law
	switch y {
	case 2019:
		add(date(y, time.May, 1), NameTreatedHoliday)
		add(date(y, time.October, 22), NameTreatedHoliday)
	}

	return hs
}

// computeYear applies the citizen's holiday and substitute holiday rules on
// top of the national holidays of year y.
func computeYear(y int) map[string]Holiday {
	national := nationalHolidays(y)
	sort.Slice(national, func(i, j int) bool { return national[i].Date.Before(national[j].Date) })

	out := make(map[string]Holiday, len(national)+4)
	for _, h := range national {
		out[DateKey(h.Date)] = h
	}

	// A day sandwiched between two national holidays is itself a holiday.
	if y >= 1988 {
		for i := 0; i+1 < len(national); i++ {
			a, b := national[i].Date, national[i+1].Date
			if b.Sub(a) != 48*time.Hour {
				continue
			}
			mid := a.AddDate(0, 0, 1)
			if y < 2007 && mid.Weekday() == time.Sunday {
				continue
			}
			if _, taken := out[DateKey(mid)]; !taken {
				out[DateKey(mid)] = Holiday{Date: mid, Name: NameCitizens}
			}
		}
	}

	// A national holiday on Sunday moves the day off forward.
	if y >= 1973 {
		for _, h := range national {
			if h.Date.Weekday() != time.Sunday {
				continue
			}
			next := h.Date.AddDate(0, 0, 1)
			if y >= 2007 {
				for {
					if _, taken := out[DateKey(next)]; !taken {
						break
					}
					next = next.AddDate(0, 0, 1)
				}
			} else if _, taken := out[DateKey(next)]; taken {
				continue
			}
			if next.Year() == y {
				out[DateKey(next)] = Holiday{Date: next, Name: NameSubstitute}
			}
		}
	}

	return out
}
