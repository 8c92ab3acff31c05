package pipeline

import (
	"fmt"

	"github.com/rs/zerolog"

	"go-peopleflow/internal/metrics"
	"go-peopleflow/internal/model"
)

// Validation issue reasons, also used as metric labels.
const (
	IssueTimestamp     = "timestamp"
	IssueNegativeCount = "negative_count"
	IssueTotalMismatch = "total_mismatch"
)

// maxReportedIssues caps the issue details kept in a report.
const maxReportedIssues = 50

// RowIssue describes one problem with one row.
type RowIssue struct {
	Index  int    `json:"index"` // position in the dataset
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

// ValidationReport summarizes the problems of a dataset. Rows are never
// removed by validation; invalid timestamps are excluded later by the engine.
type ValidationReport struct {
	Rows           int        `json:"rows"`
	InvalidTime    int        `json:"invalidTimestamps"`
	NegativeCounts int        `json:"negativeCounts"`
	TotalMismatch  int        `json:"totalMismatches"`
	Issues         []RowIssue `json:"issues,omitempty"`
}

// InvalidRows is the number of rows with an unusable timestamp.
func (r ValidationReport) InvalidRows() int {
	return r.InvalidTime
}

// Clean reports whether no issue was found.
func (r ValidationReport) Clean() bool {
	return r.InvalidTime == 0 && r.NegativeCounts == 0 && r.TotalMismatch == 0
}

func (r *ValidationReport) add(i int, reason, detail string) {
	if len(r.Issues) < maxReportedIssues {
		r.Issues = append(r.Issues, RowIssue{Index: i, Reason: reason, Detail: detail})
	}
}

// ValidateRows checks every row for an unparsable aggregateFrom, negative
// counts and a totalCount that differs from the sum of its categories.
func ValidateRows(rows []model.Row) ValidationReport {
	rep := ValidationReport{Rows: len(rows)}
	for i, r := range rows {
		if !r.Valid() {
			rep.InvalidTime++
			rep.add(i, IssueTimestamp, fmt.Sprintf("aggregateFrom %q is not a timestamp", r.RawFrom))
		}

		negative := r.TotalCount < 0
		for col, v := range r.Counts {
			if v < 0 {
				negative = true
				rep.add(i, IssueNegativeCount, fmt.Sprintf("%s is %d", col, v))
			}
		}
		if negative {
			rep.NegativeCounts++
		}

		if len(r.Counts) > 0 {
			if sum := r.CategorySum(); sum != r.TotalCount {
				rep.TotalMismatch++
				rep.add(i, IssueTotalMismatch, fmt.Sprintf("totalCount %d, categories sum to %d", r.TotalCount, sum))
			}
		}
	}
	return rep
}

// ------------------- Stage Execution -------------------

// recordValidation logs and counts the findings of a report.
//
//nolint:gocritic // zerolog.Logger is passed by value
func recordValidation(logger zerolog.Logger, rep ValidationReport) {
	metrics.RecordInvalid(IssueTimestamp, rep.InvalidTime)
	metrics.RecordInvalid(IssueNegativeCount, rep.NegativeCounts)
	metrics.RecordInvalid(IssueTotalMismatch, rep.TotalMismatch)

	if rep.Clean() {
		logger.Debug().Int("rows", rep.Rows).Msg("Validation passed")
		return
	}
	ev := logger.Warn().
		Int("rows", rep.Rows).
		Int("invalid_timestamps", rep.InvalidTime).
		Int("negative_counts", rep.NegativeCounts).
		Int("total_mismatches", rep.TotalMismatch)
	if len(rep.Issues) > 0 {
		ev = ev.Int("first_index", rep.Issues[0].Index).Str("first_issue", rep.Issues[0].Detail)
	}
	ev.Msg("Validation found issues")
}
