package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want interface{}
	}{
		{"42", 42},
		{" 7 ", 7},
		{"1,234", 1234},
		{"2.5", 2.5},
		{"", ""},
		{"福井", "福井"},
		{"2024-10-17", "2024-10-17"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseValue(tt.in), tt.in)
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{3, 3, true},
		{int64(4), 4, true},
		{float64(12), 12, true},
		{1.5, 0, false},
		{"8", 8, true},
		{"x", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := Count(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestCleanHeader(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "aggregateFrom", CleanHeader("\ufeff\"aggregateFrom\""))
	assert.Equal(t, "male_adult", CleanHeader("  male_adult "))
}

func TestOutputManager(t *testing.T) {
	t.Parallel()

	om := NewOutputManager(t.TempDir())
	require.NoError(t, om.EnsureOutputDirExists())

	path, err := om.GetOutputFilePath("run-1", "monthly.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(om.BaseOutputDir, "run-1", "monthly.csv"), path)
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o600))

	resolved, err := om.ResolveFile("run-1", "monthly.csv")
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = om.ResolveFile("run-1", "missing.csv")
	require.ErrorIs(t, err, os.ErrNotExist)

	for _, bad := range []string{"", "..", "../x.csv", "a/b.csv"} {
		_, err = om.GetOutputFilePath("run-1", bad)
		require.ErrorIs(t, err, ErrBadFileName, bad)
		_, err = om.ResolveFile(bad, "monthly.csv")
		require.ErrorIs(t, err, ErrBadFileName, bad)
	}

	assert.Equal(t, "/api/v1/download/run-1/monthly.csv", om.GetDownloadURL("run-1", "monthly.csv"))
	assert.Equal(t, "csv", om.GetFileType("x.CSV"))
	assert.Equal(t, "json", om.GetFileType("x.json"))
	assert.Equal(t, "unknown", om.GetFileType("x.xlsx"))
	assert.Equal(t, "application/json", om.ContentType("x.json"))
}
