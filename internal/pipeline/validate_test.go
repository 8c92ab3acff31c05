package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-peopleflow/internal/model"
)

func TestValidateRows(t *testing.T) {
	t.Parallel()

	rows := []model.Row{
		testRow(t, "2024-10-17", 7, map[string]int{"car": 3, "bus": 4}),
		{RawFrom: "Invalid Date", TotalCount: 1, Counts: map[string]int{"car": 1}},
		testRow(t, "2024-10-18", 2, map[string]int{"car": -1, "bus": 3}),
		testRow(t, "2024-10-19", 99, map[string]int{"car": 1}),
		testRow(t, "2024-10-20", 5, nil),
	}

	rep := ValidateRows(rows)
	assert.Equal(t, 5, rep.Rows)
	assert.Equal(t, 1, rep.InvalidTime)
	assert.Equal(t, 1, rep.InvalidRows())
	assert.Equal(t, 1, rep.NegativeCounts)
	assert.Equal(t, 1, rep.TotalMismatch)
	assert.False(t, rep.Clean())

	require.Len(t, rep.Issues, 3)
	assert.Equal(t, RowIssue{Index: 1, Reason: IssueTimestamp, Detail: `aggregateFrom "Invalid Date" is not a timestamp`}, rep.Issues[0])
	assert.Equal(t, IssueNegativeCount, rep.Issues[1].Reason)
	assert.Equal(t, 3, rep.Issues[2].Index)

	// validation never drops rows
	assert.Len(t, rows, 5)
}

func TestValidateRows_CapsIssues(t *testing.T) {
	t.Parallel()

	rows := make([]model.Row, maxReportedIssues+10)
	rep := ValidateRows(rows)
	assert.Equal(t, maxReportedIssues+10, rep.InvalidTime)
	assert.Len(t, rep.Issues, maxReportedIssues)

	assert.True(t, ValidateRows(nil).Clean())
}
