// Package store persists favorites and run history in sqlite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"go-peopleflow/internal/model"
)

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("not found")

// DefaultRunLimit caps ListRuns when no limit is given.
const DefaultRunLimit = 50

var schema = []string{`
	CREATE TABLE IF NOT EXISTS favorites (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		page TEXT NOT NULL,
		granularity TEXT NOT NULL,
		start_date TEXT,
		end_date TEXT,
		compare_start TEXT,
		compare_end TEXT,
		category_group TEXT,
		breakdown TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`, `
	CREATE INDEX IF NOT EXISTS idx_favorites_page ON favorites (page);`, `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		status TEXT,
		granularity TEXT,
		source_type TEXT,
		source_url TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		rows_ingested INTEGER,
		rows_invalid INTEGER,
		rows_out INTEGER,
		stages TEXT,
		errors TEXT
	);`, `
	CREATE TABLE IF NOT EXISTS run_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);`,
}

// Store is a sqlite-backed store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and its schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// ------------------- Favorites -------------------

// SaveFavorite stores a new favorite, assigning its id and timestamps.
func (s *Store) SaveFavorite(f *model.Favorite) error {
	now := time.Now().UTC()
	f.ID = uuid.NewString()
	f.CreatedAt, f.UpdatedAt = now, now

	_, err := s.db.Exec(`INSERT INTO favorites
		(id, name, page, granularity, start_date, end_date, compare_start, compare_end, category_group, breakdown, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Page, string(f.Granularity), f.Start, f.End, f.CompareStart, f.CompareEnd, f.Group, f.Breakdown, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save favorite: %w", err)
	}
	return nil
}

const favoriteColumns = `id, name, page, granularity, start_date, end_date, compare_start, compare_end, category_group, breakdown, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFavorite(sc scanner) (*model.Favorite, error) {
	var (
		f           model.Favorite
		granularity string
	)
	err := sc.Scan(&f.ID, &f.Name, &f.Page, &granularity, &f.Start, &f.End,
		&f.CompareStart, &f.CompareEnd, &f.Group, &f.Breakdown, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.Granularity = model.Granularity(granularity)
	return &f, nil
}

// GetFavorite fetches one favorite.
func (s *Store) GetFavorite(id string) (*model.Favorite, error) {
	f, err := scanFavorite(s.db.QueryRow(`SELECT `+favoriteColumns+` FROM favorites WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("favorite %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return f, nil
}

// ListFavorites returns the favorites of a dashboard page, newest first.
// An empty page lists every favorite.
func (s *Store) ListFavorites(page string) ([]model.Favorite, error) {
	query := `SELECT ` + favoriteColumns + ` FROM favorites`
	var args []interface{}
	if page != "" {
		query += ` WHERE page = ?`
		args = append(args, page)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []model.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, *f)
	}
	return favorites, rows.Err()
}

// UpdateFavorite replaces the editable fields of an existing favorite.
func (s *Store) UpdateFavorite(f *model.Favorite) error {
	f.UpdatedAt = time.Now().UTC()
	res, err := s.db.Exec(`UPDATE favorites SET
		name = ?, page = ?, granularity = ?, start_date = ?, end_date = ?,
		compare_start = ?, compare_end = ?, category_group = ?, breakdown = ?, updated_at = ?
		WHERE id = ?`,
		f.Name, f.Page, string(f.Granularity), f.Start, f.End,
		f.CompareStart, f.CompareEnd, f.Group, f.Breakdown, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("update favorite: %w", err)
	}
	if err := expectOne(res, "favorite", f.ID); err != nil {
		return err
	}

	stored, err := s.GetFavorite(f.ID)
	if err != nil {
		return err
	}
	f.CreatedAt = stored.CreatedAt
	return nil
}

// DeleteFavorite removes a favorite.
func (s *Store) DeleteFavorite(id string) error {
	res, err := s.db.Exec(`DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	return expectOne(res, "favorite", id)
}

func expectOne(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// ------------------- Runs -------------------

// SaveRun inserts or replaces a run record.
func (s *Store) SaveRun(run *model.Run) error {
	stages, err := json.Marshal(run.Stages)
	if err != nil {
		return err
	}
	errs, err := json.Marshal(run.Errors)
	if err != nil {
		return err
	}
	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}

	_, err = s.db.Exec(`INSERT INTO runs
		(id, status, granularity, source_type, source_url, started_at, finished_at, rows_ingested, rows_invalid, rows_out, stages, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			rows_ingested = excluded.rows_ingested,
			rows_invalid = excluded.rows_invalid,
			rows_out = excluded.rows_out,
			stages = excluded.stages,
			errors = excluded.errors`,
		run.ID, run.Status, string(run.Granularity), run.SourceType, run.SourceURL, run.StartedAt, finished,
		run.RowsIngested, run.RowsInvalid, run.RowsOut, string(stages), string(errs))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// SaveRunError records the failure cause of a run
func (s *Store) SaveRunError(runID string, err error) error {
	if err == nil {
		return nil
	}
	now := time.Now().UTC()
	_, e := s.db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, err.Error(), now)
	return e
}

const runColumns = `id, status, granularity, source_type, source_url, started_at, finished_at, rows_ingested, rows_invalid, rows_out, stages, errors,
	(SELECT error_message FROM run_errors WHERE run_id = runs.id ORDER BY id DESC LIMIT 1)`

func scanRun(sc scanner) (*model.Run, error) {
	var (
		r            model.Run
		granularity  string
		finished     sql.NullTime
		stages, errs string
		runErr       sql.NullString
	)
	err := sc.Scan(&r.ID, &r.Status, &granularity, &r.SourceType, &r.SourceURL, &r.StartedAt, &finished,
		&r.RowsIngested, &r.RowsInvalid, &r.RowsOut, &stages, &errs, &runErr)
	if err != nil {
		return nil, err
	}
	r.Granularity = model.Granularity(granularity)
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	r.Error = runErr.String
	if err := json.Unmarshal([]byte(stages), &r.Stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	if err := json.Unmarshal([]byte(errs), &r.Errors); err != nil {
		return nil, fmt.Errorf("decode errors: %w", err)
	}
	return &r, nil
}

// GetRun fetches one run.
func (s *Store) GetRun(id string) (*model.Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the latest runs, newest first.
func (s *Store) ListRuns(limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}
