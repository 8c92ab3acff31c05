// Package handler implements the JSON endpoints of the people-flow API.
package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/category"
	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/model"
	"go-peopleflow/internal/pipeline"
	"go-peopleflow/internal/store"
	"go-peopleflow/internal/validation"
	"go-peopleflow/pkg/utils"
)

// Error codes of the response envelope
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeProcessingFailed = "PROCESSING_FAILED"
	CodeInternal         = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 20

// Response is the envelope of every JSON answer.
type Response struct {
	Status string      `json:"status"` // "success" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *APIError   `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// Store is the persistence the handlers need.
type Store interface {
	Ping() error
	SaveFavorite(f *model.Favorite) error
	GetFavorite(id string) (*model.Favorite, error)
	ListFavorites(page string) ([]model.Favorite, error)
	UpdateFavorite(f *model.Favorite) error
	DeleteFavorite(id string) error
	GetRun(id string) (*model.Run, error)
	ListRuns(limit int) ([]model.Run, error)
}

// Handler holds the collaborators of the endpoints.
type Handler struct {
	pipeline *pipeline.Pipeline
	store    Store
	calendar calendar.Calendar
	registry *category.Registry
	output   *utils.OutputManager
	apiURL   string
	started  time.Time
}

// New creates the handler set. The calendar and registry are the ones the
// pipeline's engine was built with.
func New(p *pipeline.Pipeline, s Store, cal calendar.Calendar, out *utils.OutputManager) *Handler {
	return &Handler{
		pipeline: p,
		store:    s,
		calendar: cal,
		registry: p.Registry(),
		output:   out,
		started:  time.Now(),
	}
}

// SetDefaultAPI sets the api source used by GET /aggregations when the
// request names no source.
func (h *Handler) SetDefaultAPI(url string) {
	h.apiURL = url
}

// ------------------- Response helpers -------------------

func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, r, status, &Response{Status: "success", Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, &Response{Status: "error", Error: &APIError{Code: code, Message: message}})
}

// fail maps err to a status code and error envelope.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.Ctx(r.Context())
	apiErr := &APIError{Code: CodeInternal, Message: "internal error"}
	status := http.StatusInternalServerError

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		status, apiErr.Code, apiErr.Message = http.StatusBadRequest, CodeInvalidRequest, verr.Error()
		apiErr.Details = verr.Fields
	case errors.Is(err, pipeline.ErrInvalidRequest),
		errors.Is(err, pipeline.ErrSourceOutsideBase),
		errors.Is(err, pipeline.ErrUnknownSourceType):
		status, apiErr.Code, apiErr.Message = http.StatusBadRequest, CodeInvalidRequest, err.Error()
	case errors.Is(err, store.ErrNotFound), errors.Is(err, os.ErrNotExist):
		status, apiErr.Code, apiErr.Message = http.StatusNotFound, CodeNotFound, "resource not found"
	case errors.Is(err, category.ErrUnknownGroup):
		status, apiErr.Code, apiErr.Message = http.StatusUnprocessableEntity, CodeProcessingFailed, "processing failed"
	case errors.Is(err, pipeline.ErrUnexpectedStatus):
		status, apiErr.Code, apiErr.Message = http.StatusUnprocessableEntity, CodeProcessingFailed, "source could not be read"
	}

	ev := logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.Err(err).Int("status", status).Str("code", apiErr.Code).Msg("Request failed")
	respondJSON(w, r, status, &Response{Status: "error", Error: apiErr})
}

// decode reads a JSON body into v.
func decode(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// ------------------- Service -------------------

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// Health reports liveness and database reachability
// @Summary Health check
// @Description Report service liveness and database reachability
// @Tags service
// @Produce json
// @Success 200 {object} handler.Response{data=handler.HealthStatus}
// @Failure 503 {object} handler.Response{data=handler.HealthStatus}
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Status: "ok", Database: "ok", Uptime: time.Since(h.started).Truncate(time.Second).String()}
	code := http.StatusOK
	if err := h.store.Ping(); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Database ping failed")
		status.Status, status.Database = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}
	respondData(w, r, code, status)
}

// NotFound answers unknown paths with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, CodeNotFound, "route not found")
}

// MethodNotAllowed answers known paths called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, CodeInvalidRequest, "method not allowed")
}
