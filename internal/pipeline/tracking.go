package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"go-peopleflow/internal/category"
	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/metrics"
	"go-peopleflow/internal/model"
)

// Stage names
const (
	StageIngestion   = "ingestion"
	StageValidation  = "validation"
	StageProjection  = "projection"
	StageAggregation = "aggregation"
	StageExport      = "export"
)

// RunRecorder persists run records. The store implements it.
type RunRecorder interface {
	SaveRun(run *model.Run) error
	SaveRunError(runID string, err error) error
}

// RunTracker collects stage timings, counts and errors of one run and saves
// the run through a RunRecorder when it starts and when it ends.
type RunTracker struct {
	mu       sync.Mutex
	run      model.Run
	open     map[string]int // stage name -> index in run.Stages
	recorder RunRecorder
	logger   zerolog.Logger
}

// NewRunTracker starts tracking a run. rec may be nil.
func NewRunTracker(runID string, req model.AggregationRequest, rec RunRecorder) *RunTracker {
	t := &RunTracker{
		run: model.Run{
			ID:          runID,
			Status:      model.RunRunning,
			Granularity: req.Granularity,
			SourceType:  req.Source.Type,
			SourceURL:   req.Source.URL,
			StartedAt:   time.Now().UTC(),
			Stages:      []model.StageMetrics{},
		},
		open:     make(map[string]int),
		recorder: rec,
		logger:   logging.WithComponent("pipeline").With().Str("run_id", runID).Logger(),
	}
	t.save()
	return t
}

// Logger returns the run-scoped logger.
func (t *RunTracker) Logger() zerolog.Logger {
	return t.logger
}

// StartStage marks the start of a pipeline stage
func (t *RunTracker) StartStage(stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.run.Stages = append(t.run.Stages, model.StageMetrics{
		StageName: stage,
		StartTime: time.Now().UTC(),
	})
	t.open[stage] = len(t.run.Stages) - 1
	t.logger.Debug().Str("stage", stage).Msg("Stage started")
}

// EndStage marks the end of a pipeline stage
func (t *RunTracker) EndStage(stage string, recordsProcessed int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.open[stage]
	if !ok {
		return
	}
	delete(t.open, stage)

	s := &t.run.Stages[i]
	s.EndTime = time.Now().UTC()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.RecordsProcessed = recordsProcessed
	metrics.StageDuration.WithLabelValues(stage).Observe(s.Duration.Seconds())

	t.logger.Debug().
		Str("stage", stage).
		Int64("records", recordsProcessed).
		Dur("duration", s.Duration).
		Msg("Stage completed")
}

// SetCounts records the row counts of the run.
func (t *RunTracker) SetCounts(ingested, invalid, out int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.run.RowsIngested = ingested
	t.run.RowsInvalid = invalid
	t.run.RowsOut = out
}

// RecordError records an error with detailed context
func (t *RunTracker) RecordError(stage string, err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	errType := errorType(err)
	detail := model.ErrorDetail{
		Stage:     stage,
		ErrorType: errType,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		Severity:  determineSeverity(errType),
	}
	t.run.Errors = append(t.run.Errors, detail)
	if i, ok := t.open[stage]; ok {
		t.run.Stages[i].ErrorCount++
	}

	ev := t.logger.Warn()
	if detail.Severity == "critical" {
		ev = t.logger.Error()
	}
	ev.Err(err).Str("stage", stage).Str("error_type", errType).Msg("Stage error")
}

// Complete marks the run as completed and saves it
func (t *RunTracker) Complete() {
	t.finish(model.RunCompleted)
}

// Fail marks the run as failed with cause err and saves it
func (t *RunTracker) Fail(err error) {
	if err != nil {
		t.mu.Lock()
		t.run.Error = err.Error()
		t.mu.Unlock()
	}
	t.finish(model.RunFailed)
	if t.recorder != nil && err != nil {
		if rerr := t.recorder.SaveRunError(t.run.ID, err); rerr != nil {
			t.logger.Error().Err(rerr).Msg("Failed to save run error")
		}
	}
}

func (t *RunTracker) finish(status string) {
	t.mu.Lock()
	t.run.Status = status
	t.run.FinishedAt = time.Now().UTC()
	for stage, i := range t.open {
		s := &t.run.Stages[i]
		s.EndTime = t.run.FinishedAt
		s.Duration = s.EndTime.Sub(s.StartTime)
		delete(t.open, stage)
	}
	duration := t.run.Duration()
	t.mu.Unlock()

	metrics.RunsTotal.WithLabelValues(status).Inc()
	t.save()

	ev := t.logger.Info()
	if status == model.RunFailed {
		ev = t.logger.Warn()
	}
	ev.Str("status", status).Dur("duration", duration).Msg("Run finished")
}

// Snapshot returns a copy of the run record.
func (t *RunTracker) Snapshot() model.Run {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.run
	r.Stages = append([]model.StageMetrics(nil), t.run.Stages...)
	r.Errors = append([]model.ErrorDetail(nil), t.run.Errors...)
	return r
}

func (t *RunTracker) save() {
	if t.recorder == nil {
		return
	}
	snap := t.Snapshot()
	if err := t.recorder.SaveRun(&snap); err != nil {
		t.logger.Error().Err(err).Msg("Failed to save run")
	}
}

// errorType classifies err for the run record.
func errorType(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, category.ErrUnknownGroup):
		return "unknown_group"
	case errors.Is(err, ErrUnknownSourceType), errors.Is(err, ErrSourceOutsideBase):
		return "bad_source"
	case errors.Is(err, ErrUnexpectedStatus):
		return "upstream_status"
	default:
		var te interface{ Timeout() bool }
		if errors.As(err, &te) && te.Timeout() {
			return "network_timeout"
		}
		return "internal"
	}
}

// determineSeverity maps an error type to a severity level
func determineSeverity(errType string) string {
	switch errType {
	case "network_timeout", "internal":
		return "critical"
	case "upstream_status", "bad_source":
		return "high"
	case "unknown_group", "invalid_request":
		return "medium"
	default:
		return "low"
	}
}
