package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"go-peopleflow/internal/logging"
	"go-peopleflow/internal/model"
	"go-peopleflow/pkg/utils"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// derivedColumns are appended after the dataset columns when any row carries them.
var (
	dayColumns   = []string{"dayOfWeek", "holidayName"}
	splitColumns = []string{"weekdayTotal", "weekendTotal", "weekdayDays", "weekendDays"}
)

// Exporter writes aggregation results into per-run output directories.
type Exporter struct {
	output *utils.OutputManager
	logger zerolog.Logger
}

// NewExporter creates an exporter writing below om.
func NewExporter(om *utils.OutputManager) *Exporter {
	return &Exporter{output: om, logger: logging.WithComponent("export")}
}

// Output returns the output manager.
func (e *Exporter) Output() *utils.OutputManager {
	return e.output
}

// Export writes the main period and, when present, the compare period. The
// returned results carry the error of a failed write instead of failing the run.
func (e *Exporter) Export(runID string, ex *model.Export, columns []string, res *model.AggregationResult) []model.ExportResult {
	format := exportFormat(ex)
	name := ""
	if ex != nil {
		name = ex.File
	}
	if name == "" {
		name = fmt.Sprintf("peopleflow_%s_%s.%s", res.Granularity, time.Now().Format("2006-01-02_15-04-05"), format)
	}

	results := []model.ExportResult{e.write(runID, name, format, columns, res, &res.Main)}
	if res.Compare != nil {
		ext := filepath.Ext(name)
		compareName := strings.TrimSuffix(name, ext) + "_compare" + ext
		results = append(results, e.write(runID, compareName, format, columns, res, res.Compare))
	}
	return results
}

func exportFormat(ex *model.Export) string {
	if ex == nil {
		return FormatCSV
	}
	if ex.Format != "" {
		return strings.ToLower(ex.Format)
	}
	if strings.EqualFold(filepath.Ext(ex.File), ".json") {
		return FormatJSON
	}
	return FormatCSV
}

func (e *Exporter) write(runID, name, format string, columns []string, res *model.AggregationResult, period *model.PeriodResult) model.ExportResult {
	result := model.ExportResult{
		Type:      format,
		Path:      name,
		Timestamp: time.Now().UTC(),
	}

	path, err := e.output.GetOutputFilePath(runID, name)
	if err == nil {
		switch format {
		case FormatJSON:
			err = writeJSON(path, runID, res, period)
		default:
			err = writeCSV(path, columns, period.Rows)
		}
	}

	if err != nil {
		result.Error = err.Error()
		e.logger.Error().Err(err).Str("run_id", runID).Str("file", name).Msg("Export failed")
		return result
	}

	result.Path = path
	result.DownloadURL = e.output.GetDownloadURL(runID, name)
	result.RecordCount = len(period.Rows)
	result.Success = true
	e.logger.Info().
		Str("run_id", runID).
		Str("file", path).
		Int("records", result.RecordCount).
		Msg("Export written")
	return result
}

// ExportColumns returns the CSV header for rows: the dataset columns still
// present in the rows, in header order, then the derived fields.
func ExportColumns(columns []string, rows []model.Row) []string {
	present := make(map[string]bool)
	hasDay, hasSplit, hasBucket := false, false, false
	for _, r := range rows {
		for k := range r.Counts {
			present[k] = true
		}
		for k := range r.Attrs {
			present[k] = true
		}
		hasDay = hasDay || r.Day != nil
		hasSplit = hasSplit || r.Split != nil
		hasBucket = hasBucket || r.Bucket != ""
	}

	header := make([]string, 0, len(columns)+7)
	seen := make(map[string]bool)
	for _, c := range columns {
		if (model.IsBaseColumn(c) || present[c]) && !seen[c] {
			header = append(header, c)
			seen[c] = true
		}
	}
	if !seen[model.ColTotalCount] {
		header = append(header, model.ColTotalCount)
	}
	if hasBucket {
		header = append(header, "bucket")
	}
	if hasDay {
		header = append(header, dayColumns...)
	}
	if hasSplit {
		header = append(header, splitColumns...)
	}
	return header
}

func writeCSV(path string, columns []string, rows []model.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()
	return EncodeCSV(file, columns, rows)
}

// EncodeCSV writes rows as CSV with the ExportColumns header.
func EncodeCSV(out io.Writer, columns []string, rows []model.Row) error {
	w := csv.NewWriter(out)
	header := ExportColumns(columns, rows)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for _, r := range rows {
		fields := r.Fields()
		for i, col := range header {
			if v, ok := fields[col]; ok {
				record[i] = fmt.Sprint(v)
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path, runID string, res *model.AggregationResult, period *model.PeriodResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	doc := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":       runID,
			"exported_at":  time.Now().UTC(),
			"record_count": len(period.Rows),
			"granularity":  res.Granularity,
			"group":        res.Group,
		},
		"data": period,
	}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
