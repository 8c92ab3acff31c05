package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"go-peopleflow/pkg/utils"
)

// ListRuns returns the latest pipeline runs
// @Summary List runs
// @Description Latest pipeline runs, newest first
// @Tags runs
// @Produce json
// @Param limit query int false "Maximum number of runs (default 50)"
// @Success 200 {object} handler.Response{data=[]model.Run}
// @Failure 400 {object} handler.Response "Invalid limit"
// @Router /runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := h.store.ListRuns(limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, runs)
}

// GetRun returns one pipeline run with its stages and errors
// @Summary Get a run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} handler.Response{data=model.Run}
// @Failure 404 {object} handler.Response "Run not found"
// @Router /runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respondData(w, r, http.StatusOK, run)
}

// DownloadFile serves an exported file
// @Summary Download file
// @Description Download an export written by a run
// @Tags files
// @Produce application/octet-stream
// @Param runID path string true "Run ID"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 400 {object} handler.Response "Invalid file name"
// @Failure 404 {object} handler.Response "File not found"
// @Router /download/{runID}/{filename} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "filename")
	path, err := h.output.ResolveFile(chi.URLParam(r, "runID"), fileName)
	if err != nil {
		if errors.Is(err, utils.ErrBadFileName) {
			respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, "invalid file name")
			return
		}
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Type", h.output.ContentType(fileName))
	http.ServeFile(w, r, path)
}
