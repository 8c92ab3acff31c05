package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-peopleflow/internal/model"
)

// CreateAggregation runs one aggregation request
// @Summary Run an aggregation
// @Description Fetch a source, re-bucket its rows by month, week, day or hour and return chart-ready rows with weekday/weekend summaries
// @Tags aggregations
// @Accept json
// @Produce json
// @Param request body model.AggregationRequest true "Aggregation request"
// @Success 200 {object} handler.Response{data=model.AggregationResult}
// @Failure 400 {object} handler.Response "Invalid request"
// @Failure 422 {object} handler.Response "Processing failed"
// @Failure 500 {object} handler.Response "Internal error"
// @Router /aggregations [post]
func (h *Handler) CreateAggregation(w http.ResponseWriter, r *http.Request) {
	var req model.AggregationRequest
	if err := decode(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body")
		return
	}
	h.runAggregation(w, r, req)
}

// GetAggregation runs an aggregation described by query parameters
// @Summary Run an aggregation from query parameters
// @Description Same as POST /aggregations for dashboards that only issue GET requests
// @Tags aggregations
// @Produce json
// @Param granularity path string true "month, week, day or hour"
// @Param source query string false "CSV path/URL or API URL, the configured API when empty"
// @Param type query string false "csv (default) or api"
// @Param start query string false "YYYY-MM-DD, required except for hour"
// @Param end query string false "YYYY-MM-DD, required except for hour"
// @Param group query string false "Category group"
// @Param compareStart query string false "Compare period start"
// @Param compareEnd query string false "Compare period end"
// @Param breakdown query string false "prefecture or region"
// @Param format query string false "Export the result as csv or json"
// @Success 200 {object} handler.Response{data=model.AggregationResult}
// @Failure 400 {object} handler.Response "Invalid request"
// @Failure 422 {object} handler.Response "Processing failed"
// @Router /aggregations/{granularity} [get]
func (h *Handler) GetAggregation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.AggregationRequest{
		Source: model.Source{
			Type: q.Get("type"),
			URL:  q.Get("source"),
		},
		Granularity: model.Granularity(chi.URLParam(r, "granularity")),
		Start:       q.Get("start"),
		End:         q.Get("end"),
		Group:       q.Get("group"),
		Breakdown:   q.Get("breakdown"),
	}
	switch {
	case req.Source.URL == "" && h.apiURL != "":
		req.Source = model.Source{Type: model.SourceAPI, URL: h.apiURL}
	case req.Source.Type == "":
		req.Source.Type = model.SourceCSV
	}
	if cs, ce := q.Get("compareStart"), q.Get("compareEnd"); cs != "" || ce != "" {
		req.Compare = &model.PeriodSpec{Start: cs, End: ce}
	}
	if f := q.Get("format"); f != "" {
		req.Export = &model.Export{Format: f}
	}
	h.runAggregation(w, r, req)
}

func (h *Handler) runAggregation(w http.ResponseWriter, r *http.Request, req model.AggregationRequest) {
	res, err := h.pipeline.Run(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, res)
}
