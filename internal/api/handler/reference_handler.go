package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/region"
)

// maxHolidaySpan bounds GET /holidays ranges.
const maxHolidaySpan = 10 * 366 * 24 * time.Hour

// DayView is a calendar date with its weekday and holiday annotation.
type DayView struct {
	Date      string `json:"date"`
	DayOfWeek string `json:"dayOfWeek"`
	Holiday   bool   `json:"holiday"`
	Name      string `json:"name,omitempty"`
}

func dayView(day time.Time, h calendar.Holiday, ok bool) DayView {
	v := DayView{Date: calendar.DateKey(day), DayOfWeek: calendar.WeekdayLabel(day.Weekday()), Holiday: ok}
	if ok {
		v.Name = h.Name
	}
	return v
}

// ListHolidays returns the holidays of a date range
// @Summary List holidays
// @Description Japanese public holidays between two dates, inclusive and in chronological order
// @Tags calendar
// @Produce json
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {object} handler.Response{data=[]handler.DayView}
// @Failure 400 {object} handler.Response "Invalid range"
// @Router /holidays [get]
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	from, err := calendar.ParseDate(r.URL.Query().Get("from"), calendar.Tokyo)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "from must be a date formatted YYYY-MM-DD")
		return
	}
	to, err := calendar.ParseDate(r.URL.Query().Get("to"), calendar.Tokyo)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "to must be a date formatted YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "to is before from")
		return
	}
	if to.Sub(from) > maxHolidaySpan {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "range may span at most 10 years")
		return
	}

	holidays := h.calendar.Between(from, to)
	out := make([]DayView, len(holidays))
	for i, hd := range holidays {
		out[i] = dayView(hd.Date, hd, true)
	}
	respondData(w, r, http.StatusOK, out)
}

// GetDay annotates one date
// @Summary Get a date's annotation
// @Description Weekday label and holiday name of one date
// @Tags calendar
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} handler.Response{data=handler.DayView}
// @Failure 400 {object} handler.Response "Invalid date"
// @Router /holidays/{date} [get]
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	day, err := calendar.ParseDate(raw, calendar.Tokyo)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, fmt.Sprintf("invalid date %q", raw))
		return
	}
	hd, ok := h.calendar.Lookup(day)
	respondData(w, r, http.StatusOK, dayView(day, hd, ok))
}

// RegionTables lists the classification tables.
type RegionTables struct {
	Offices      []string `json:"offices"`
	Prefectures  []string `json:"prefectures"`
	MacroRegions []string `json:"macroRegions"`
}

// ListRegions returns the plate office, prefecture and macro-region tables
// @Summary List regions
// @Tags regions
// @Produce json
// @Success 200 {object} handler.Response{data=handler.RegionTables}
// @Router /regions [get]
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, RegionTables{
		Offices:      region.Offices(),
		Prefectures:  region.Prefectures(),
		MacroRegions: region.MacroRegions(),
	})
}

// GetRegion classifies one license-plate office
// @Summary Classify a plate office
// @Description Prefecture and macro-region of a license-plate office; unknown offices answer 不明
// @Tags regions
// @Produce json
// @Param office path string true "Plate office name, e.g. 福井"
// @Success 200 {object} handler.Response{data=region.Classification}
// @Router /regions/{office} [get]
func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, region.Classify(chi.URLParam(r, "office")))
}

// CategoryGroup is one registered category group.
type CategoryGroup struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ListCategories returns the category groups and their member columns
// @Summary List category groups
// @Tags categories
// @Produce json
// @Success 200 {object} handler.Response{data=[]handler.CategoryGroup}
// @Router /categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	names := h.registry.Names()
	out := make([]CategoryGroup, 0, len(names))
	for _, name := range names {
		cols, err := h.registry.Group(name)
		if err != nil {
			fail(w, r, err)
			return
		}
		out = append(out, CategoryGroup{Name: name, Columns: cols})
	}
	respondData(w, r, http.StatusOK, out)
}
