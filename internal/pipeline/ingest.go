package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/metrics"
	"go-peopleflow/internal/model"
	"go-peopleflow/pkg/utils"
)

var (
	// ErrUnknownSourceType is returned for a source type other than csv or api.
	ErrUnknownSourceType = errors.New("unknown source type")
	// ErrSourceOutsideBase is returned for a local path escaping the data directory.
	ErrSourceOutsideBase = errors.New("source path outside data directory")
	// ErrUnexpectedStatus is returned when a remote source does not answer 200.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// StatusError is returned for a non-200 answer of a remote source. It
// matches ErrUnexpectedStatus.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrUnexpectedStatus, e.URL, e.Code)
}

// Is reports target == ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// timestampLayouts are tried in order; layouts without a zone are read in
// the fetcher's location.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006/01/02",
}

var blankRuns = regexp.MustCompile(`\n(?:[ \t]*\n)+`)

// ParseTimestamp parses the timestamp formats camera exports use. The
// bool is false for text no layout accepts.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Fetcher loads datasets from csv and api sources.
type Fetcher struct {
	Client  *http.Client
	BaseDir string // local csv paths are resolved inside it when set
	Loc     *time.Location
	logger  zerolog.Logger
}

// NewFetcher returns a fetcher with the given HTTP timeout.
func NewFetcher(baseDir string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		Client:  &http.Client{Timeout: timeout},
		BaseDir: baseDir,
		Loc:     calendar.Tokyo,
		logger:  logging.WithComponent("ingest"),
	}
}

// ------------------- Ingestion -------------------

// Fetch reads one source into a dataset.
func (f *Fetcher) Fetch(ctx context.Context, src model.Source) (*model.Dataset, error) {
	start := time.Now()
	f.logger.Info().Str("source", src.URL).Str("type", src.Type).Msg("Starting ingestion")

	var (
		ds  *model.Dataset
		err error
	)
	switch strings.ToLower(src.Type) {
	case model.SourceCSV:
		ds, err = f.fetchCSV(ctx, src)
	case model.SourceAPI:
		ds, err = f.fetchAPI(ctx, src)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownSourceType, src.Type)
	}

	rows := 0
	if ds != nil {
		rows = len(ds.Rows)
	}
	metrics.RecordFetch(src.Type, rows, time.Since(start), err)
	if err != nil {
		f.logger.Error().Err(err).Str("source", src.URL).Msg("Ingestion failed")
		return nil, err
	}

	f.logger.Info().
		Str("source", src.URL).
		Int("rows", rows).
		Dur("duration", time.Since(start)).
		Msg("Finished ingestion")
	return ds, nil
}

func isRemote(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

func (f *Fetcher) open(ctx context.Context, rawURL string, params map[string]string) (io.ReadCloser, error) {
	if isRemote(rawURL) {
		return f.get(ctx, rawURL, params)
	}

	path := rawURL
	if f.BaseDir != "" {
		clean := filepath.Clean(rawURL)
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s", ErrSourceOutsideBase, rawURL)
		}
		path = filepath.Join(f.BaseDir, clean)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	return file, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, params map[string]string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", u.Redacted(), err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{URL: u.Redacted(), Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// ------------------- CSV Ingestion -------------------

func (f *Fetcher) fetchCSV(ctx context.Context, src model.Source) (*model.Dataset, error) {
	body, err := f.open(ctx, src.URL, src.Params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	ds, err := ParseCSV(body, f.Loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.URL, err)
	}
	ds.Source = src.URL
	return ds, nil
}

// ParseCSV reads headered CSV text into a dataset. A UTF-8 BOM is dropped,
// runs of blank lines are collapsed and header names are trimmed and
// unquoted. Integer cells become category counts and any other cell is kept
// as an attribute.
func ParseCSV(r io.Reader, loc *time.Location) (*model.Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read CSV: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	text = blankRuns.ReplaceAllString(text, "\n")
	text = strings.TrimLeft(text, "\n")

	cr := csv.NewReader(strings.NewReader(text))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err == io.EOF {
		return &model.Dataset{Rows: []model.Row{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = utils.CleanHeader(h)
	}

	ds := &model.Dataset{Columns: headers, Rows: []model.Row{}}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("CSV read error: %w", err)
		}
		if blankRecord(record) {
			continue
		}

		b := newRowBuilder(loc)
		for i, h := range headers {
			if i >= len(record) || h == "" {
				continue
			}
			if model.IsBaseColumn(h) && h != model.ColTotalCount {
				b.set(h, strings.TrimSpace(record[i]))
				continue
			}
			b.set(h, utils.ParseValue(record[i]))
		}
		ds.Rows = append(ds.Rows, b.row())
	}
	return ds, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ------------------- JSON / API Ingestion -------------------

func (f *Fetcher) fetchAPI(ctx context.Context, src model.Source) (*model.Dataset, error) {
	if !isRemote(src.URL) {
		return nil, fmt.Errorf("%w: api source needs an http(s) url", ErrUnknownSourceType)
	}
	body, err := f.get(ctx, src.URL, src.Params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	ds, err := ParseJSON(body, f.Loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.URL, err)
	}
	ds.Source = src.URL
	return ds, nil
}

// ParseJSON reads an aggregation API response: either an array of flat
// objects or an object holding that array under "data" or "rows".
func ParseJSON(r io.Reader, loc *time.Location) (*model.Dataset, error) {
	var raw interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	var items []interface{}
	switch data := raw.(type) {
	case []interface{}:
		items = data
	case map[string]interface{}:
		for _, key := range []string{"data", "rows"} {
			if arr, ok := data[key].([]interface{}); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, errors.New("unexpected JSON structure")
		}
	default:
		return nil, errors.New("unexpected JSON structure")
	}

	seen := make(map[string]bool)
	ds := &model.Dataset{Rows: make([]model.Row, 0, len(items))}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		b := newRowBuilder(loc)
		for k, v := range obj {
			seen[k] = true
			b.set(k, v)
		}
		ds.Rows = append(ds.Rows, b.row())
	}
	ds.Columns = orderColumns(seen)
	return ds, nil
}

// orderColumns puts the base columns first, then the rest sorted.
func orderColumns(seen map[string]bool) []string {
	var cols, rest []string
	for _, c := range []string{model.ColPlacement, model.ColObjectClass, model.ColAggregateFrom, model.ColAggregateTo} {
		if seen[c] {
			cols = append(cols, c)
		}
	}
	for c := range seen {
		if !model.IsBaseColumn(c) {
			rest = append(rest, c)
		}
	}
	sort.Strings(rest)
	cols = append(cols, rest...)
	if seen[model.ColTotalCount] {
		cols = append(cols, model.ColTotalCount)
	}
	return cols
}

// ------------------- Row building -------------------

type rowBuilder struct {
	loc      *time.Location
	r        model.Row
	hasTotal bool
}

func newRowBuilder(loc *time.Location) *rowBuilder {
	return &rowBuilder{loc: loc, r: model.Row{Counts: make(map[string]int)}}
}

func (b *rowBuilder) set(col string, v interface{}) {
	if v == nil {
		return
	}
	switch col {
	case model.ColPlacement:
		b.r.Placement = fmt.Sprint(v)
	case model.ColObjectClass:
		b.r.ObjectClass = fmt.Sprint(v)
	case model.ColAggregateFrom:
		b.r.RawFrom = fmt.Sprint(v)
		b.r.AggregateFrom, _ = ParseTimestamp(b.r.RawFrom, b.loc)
	case model.ColAggregateTo:
		b.r.RawTo = fmt.Sprint(v)
		b.r.AggregateTo, _ = ParseTimestamp(b.r.RawTo, b.loc)
	case model.ColTotalCount:
		if n, ok := utils.Count(v); ok {
			b.r.TotalCount = n
			b.hasTotal = true
		}
	default:
		if n, ok := utils.Count(v); ok {
			b.r.Counts[col] = n
			return
		}
		s := fmt.Sprint(v)
		if s == "" {
			return
		}
		if b.r.Attrs == nil {
			b.r.Attrs = make(map[string]string)
		}
		b.r.Attrs[col] = s
	}
}

// row returns the built row; a missing totalCount is taken from the counts.
func (b *rowBuilder) row() model.Row {
	if !b.hasTotal {
		b.r.TotalCount = b.r.CategorySum()
	}
	return b.r
}
