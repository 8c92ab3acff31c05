package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-peopleflow/internal/calendar"
	"go-peopleflow/internal/category"
	"go-peopleflow/internal/config"
	"go-peopleflow/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.BaseDir = t.TempDir()
	cfg.Export.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s, calendar.Tokyo)
	require.NoError(t, err)
	return d
}

func TestBuild(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	csv := "placement,objectClass,aggregateFrom,aggregateTo,male_adult,totalCount\n" +
		"tojinbo,person,2024-10-17 10:00,2024-10-17 10:59,4,4\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Data.BaseDir, "flow.csv"), []byte(csv), 0o600))

	a, err := Build(cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.Store)
	assert.DirExists(t, cfg.Export.OutputDir)

	res, err := a.Pipeline.Run(context.Background(), model.AggregationRequest{
		Source:      model.Source{Type: model.SourceCSV, URL: "flow.csv"},
		Granularity: model.Monthly,
		Start:       "2024-10-01",
		End:         "2024-10-31",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Main.Summary.TotalCount)

	_, err = a.Router()
	assert.Error(t, err, "router needs the store")
}

func TestBuild_Router(t *testing.T) {
	t.Parallel()

	a, err := Build(testConfig(t), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	require.NotNil(t, a.Store)

	r, err := a.Router()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuild_BadHolidayFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Calendar.HolidayFile = filepath.Join(t.TempDir(), "missing.csv")
	_, err := Build(cfg, false)
	assert.ErrorContains(t, err, "load holiday table")
}

func TestCalendar(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "syukujitsu.csv")
	require.NoError(t, os.WriteFile(path, []byte("国民の祝日・休日月日,国民の祝日・休日名称\n2024/10/14,スポーツの日\n2024/10/15,臨時休日\n"), 0o600))

	tests := []struct {
		name    string
		cfg     config.CalendarConfig
		date    string
		holiday string
	}{
		{name: "rules only", date: "2024-10-14", holiday: "スポーツの日"},
		{name: "rules only ordinary day", date: "2024-10-15"},
		{name: "table entry", cfg: config.CalendarConfig{HolidayFile: path}, date: "2024-10-15", holiday: "臨時休日"},
		{name: "year outside table falls back", cfg: config.CalendarConfig{HolidayFile: path}, date: "2025-01-01", holiday: "元日"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cal, err := Calendar(tt.cfg, zerolog.Nop())
			require.NoError(t, err)
			h, ok := cal.Lookup(day(t, tt.date))
			assert.Equal(t, tt.holiday != "", ok)
			assert.Equal(t, tt.holiday, h.Name)
		})
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	groups := map[string][]string{"bikes": {"bicycle", "motorcycle"}}

	merged := Registry(config.CategoriesConfig{Groups: groups})
	assert.Contains(t, merged.Names(), category.GroupPerson)
	assert.Contains(t, merged.Names(), "bikes")

	replaced := Registry(config.CategoriesConfig{Groups: groups, Replace: true})
	assert.Equal(t, []string{"bikes"}, replaced.Names())
	_, err := replaced.Group(category.GroupPerson)
	assert.ErrorIs(t, err, category.ErrUnknownGroup)
}
