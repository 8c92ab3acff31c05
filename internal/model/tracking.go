package model

import "time"

// Run statuses
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	ErrorCount       int64         `json:"error_count"`
}

// ErrorDetail represents a detailed error with context
type ErrorDetail struct {
	Stage     string    `json:"stage"`
	ErrorType string    `json:"error_type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// Run is one execution of the aggregation pipeline.
type Run struct {
	ID           string         `json:"id"`
	Status       string         `json:"status"`
	Granularity  Granularity    `json:"granularity"`
	SourceType   string         `json:"source_type"`
	SourceURL    string         `json:"source_url"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at,omitempty"`
	Stages       []StageMetrics `json:"stages"`
	RowsIngested int64          `json:"rows_ingested"`
	RowsInvalid  int64          `json:"rows_invalid"`
	RowsOut      int64          `json:"rows_out"`
	Errors       []ErrorDetail  `json:"errors,omitempty"`
	Error        string         `json:"error,omitempty"` // cause of a failed run
}

// Duration is the wall time of the run, zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
