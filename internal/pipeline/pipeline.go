package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/category"
	"go-peopleflow/internal/metrics"
	"go-peopleflow/internal/model"
	"go-peopleflow/internal/region"
	"go-peopleflow/internal/validation"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid aggregation request")

// DefaultRunTimeout bounds one run when no timeout is configured.
const DefaultRunTimeout = 5 * time.Minute

// DataSource loads the dataset of a source. *Fetcher implements it.
type DataSource interface {
	Fetch(ctx context.Context, src model.Source) (*model.Dataset, error)
}

// Pipeline runs aggregation requests end to end.
type Pipeline struct {
	source   DataSource
	engine   *Engine
	registry *category.Registry
	exporter *Exporter
	recorder RunRecorder
	timeout  time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry sets the category groups used for projection.
func WithRegistry(r *category.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithExporter enables exports.
func WithExporter(e *Exporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// WithRecorder persists run records.
func WithRecorder(r RunRecorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithRunTimeout bounds a run; zero keeps DefaultRunTimeout.
func WithRunTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// New creates a pipeline reading from source.
func New(source DataSource, engine *Engine, opts ...Option) *Pipeline {
	if engine == nil {
		engine = NewEngine(nil)
	}
	p := &Pipeline{
		source:   source,
		engine:   engine,
		registry: category.Default(),
		timeout:  DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Engine returns the aggregation engine.
func (p *Pipeline) Engine() *Engine {
	return p.engine
}

// Registry returns the category registry.
func (p *Pipeline) Registry() *category.Registry {
	return p.registry
}

type period struct {
	start, end time.Time
}

// ------------------- Pipeline Runner -------------------

// Run executes one aggregation request: fetch, validate, project, aggregate
// the main and compare periods concurrently, summarize, break down and
// export. Every run that passes request validation is recorded.
func (p *Pipeline) Run(ctx context.Context, req model.AggregationRequest) (_ *model.AggregationResult, err error) {
	main, compare, err := p.parseRequest(req)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	tracker := NewRunTracker(runID, req, p.recorder)
	logger := tracker.Logger()
	logger.Info().
		Str("granularity", string(req.Granularity)).
		Str("source", req.Source.URL).
		Str("group", req.Group).
		Msg("Starting run")

	defer func() {
		if err != nil {
			tracker.Fail(err)
			return
		}
		tracker.Complete()
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// --- INGESTION STAGE ---
	tracker.StartStage(StageIngestion)
	ds, err := p.source.Fetch(ctx, req.Source)
	if err != nil {
		tracker.RecordError(StageIngestion, err)
		return nil, fmt.Errorf("fetch %s: %w", req.Source.URL, err)
	}
	tracker.EndStage(StageIngestion, int64(len(ds.Rows)))

	// --- VALIDATION STAGE ---
	tracker.StartStage(StageValidation)
	report := ValidateRows(ds.Rows)
	recordValidation(logger, report)
	tracker.EndStage(StageValidation, int64(report.Rows))

	// --- PROJECTION STAGE ---
	tracker.StartStage(StageProjection)
	projected, err := ProjectDataset(ds, p.registry, req.Group)
	if err != nil {
		tracker.RecordError(StageProjection, err)
		return nil, err
	}
	tracker.EndStage(StageProjection, int64(len(projected.Rows)))

	// --- AGGREGATION STAGE ---
	tracker.StartStage(StageAggregation)
	var (
		wg                sync.WaitGroup
		mainRows, cmpRows []model.Row
		mainSum, cmpSum   model.Summary
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		mainRows, mainSum = p.aggregate(req.Granularity, projected.Rows, main)
	}()
	if compare != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmpRows, cmpSum = p.aggregate(req.Granularity, projected.Rows, *compare)
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		tracker.RecordError(StageAggregation, err)
		return nil, err
	}
	tracker.EndStage(StageAggregation, int64(len(mainRows)+len(cmpRows)))

	res := &model.AggregationResult{
		RunID:       runID,
		Granularity: req.Granularity,
		Group:       req.Group,
		Main:        model.PeriodResult{Start: req.Start, End: req.End, Rows: mainRows, Summary: mainSum},
	}
	if compare != nil {
		res.Compare = &model.PeriodResult{
			Start:   req.Compare.Start,
			End:     req.Compare.End,
			Rows:    cmpRows,
			Summary: cmpSum,
		}
	}
	if req.Breakdown != "" {
		res.Breakdown = region.Rollup(mainRows, region.Level(req.Breakdown))
	}

	// --- EXPORT STAGE ---
	if req.Export != nil && p.exporter != nil {
		tracker.StartStage(StageExport)
		res.Exports = p.exporter.Export(runID, req.Export, projected.Columns, res)
		for _, ex := range res.Exports {
			if !ex.Success {
				tracker.RecordError(StageExport, errors.New(ex.Error))
			}
		}
		tracker.EndStage(StageExport, int64(len(res.Exports)))
	}

	tracker.SetCounts(int64(report.Rows), int64(report.InvalidRows()), int64(len(mainRows)+len(cmpRows)))
	logger.Info().
		Int("rows_in", report.Rows).
		Int("rows_out", len(mainRows)).
		Int("weekday_total", mainSum.WeekdayTotal).
		Int("weekend_total", mainSum.WeekendTotal).
		Msg("Run aggregated")
	return res, nil
}

func (p *Pipeline) aggregate(g model.Granularity, rows []model.Row, per period) ([]model.Row, model.Summary) {
	start := time.Now()
	out := p.engine.Aggregate(g, rows, per.start, per.end)
	metrics.RecordAggregation(string(g), len(out), time.Since(start))
	return out, p.engine.Summarize(out)
}

// parseRequest validates req and resolves its periods in the engine location.
func (p *Pipeline) parseRequest(req model.AggregationRequest) (period, *period, error) {
	if err := validation.Struct(&req); err != nil {
		return period{}, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	main, err := p.parsePeriod(req.Start, req.End)
	if err != nil {
		return period{}, nil, err
	}
	if req.Compare == nil {
		return main, nil, nil
	}
	cmp, err := p.parsePeriod(req.Compare.Start, req.Compare.End)
	if err != nil {
		return period{}, nil, err
	}
	return main, &cmp, nil
}

func (p *Pipeline) parsePeriod(start, end string) (period, error) {
	var per period
	if start == "" && end == "" {
		return per, nil
	}
	loc := p.engine.Location()
	var err error
	if per.start, err = calendar.ParseDate(start, loc); err != nil {
		return per, fmt.Errorf("%w: start: %w", ErrInvalidRequest, err)
	}
	if per.end, err = calendar.ParseDate(end, loc); err != nil {
		return per, fmt.Errorf("%w: end: %w", ErrInvalidRequest, err)
	}
	if per.end.Before(per.start) {
		return per, fmt.Errorf("%w: end %s is before start %s", ErrInvalidRequest, end, start)
	}
	return per, nil
}
