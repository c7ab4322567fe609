package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrAmbiguousID is returned when an ID prefix matches more than one run.
var ErrAmbiguousID = errors.New("run id prefix is ambiguous")

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path reports the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a pending run. An empty id is replaced with a new UUID.
func (s *Store) Create(ctx context.Context, id, inputPath, baseName string) (*Run, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, errors.New("create run: input path required")
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := formatTime(time.Now())
	err := s.execWithoutResultRetry(ctx,
		`INSERT INTO runs (id, input_path, base_name, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, inputPath, baseName, StatusPending, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, id)
}

// Transition records that run id entered status at the named stage.
func (s *Store) Transition(ctx context.Context, id string, status Status, stage string) error {
	return s.update(ctx, "transition run",
		`UPDATE runs SET status = ?, stage = ?, updated_at = ? WHERE id = ?`,
		status, nullableString(stage), formatTime(time.Now()), id,
	)
}

// RecordSubtitle stores the subtitle file the run located.
func (s *Store) RecordSubtitle(ctx context.Context, id, subtitlePath string) error {
	return s.update(ctx, "record subtitle",
		`UPDATE runs SET subtitle_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(subtitlePath), formatTime(time.Now()), id,
	)
}

// Complete marks run id as completed with its output video.
func (s *Store) Complete(ctx context.Context, id, outputPath string) error {
	now := formatTime(time.Now())
	return s.update(ctx, "complete run",
		`UPDATE runs SET status = ?, output_path = ?, error_kind = NULL, error_message = NULL,
             updated_at = ?, finished_at = ?
         WHERE id = ?`,
		StatusCompleted, nullableString(outputPath), now, now, id,
	)
}

// Fail marks run id as failed at stage with a classified error.
func (s *Store) Fail(ctx context.Context, id, stage, kind, message string) error {
	now := formatTime(time.Now())
	return s.update(ctx, "fail run",
		`UPDATE runs SET status = ?, stage = COALESCE(?, stage), error_kind = ?, error_message = ?,
             updated_at = ?, finished_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(stage), nullableString(kind), nullableString(message), now, now, id,
	)
}

// Get returns the run whose id equals or starts with idOrPrefix. It returns
// nil when nothing matches and ErrAmbiguousID when a prefix matches several.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id = ? DESC, created_at LIMIT 2`,
		idOrPrefix, escapeLike(idOrPrefix)+"%", idOrPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	switch {
	case len(runs) == 0:
		return nil, nil
	case runs[0].ID == idOrPrefix || len(runs) == 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrAmbiguousID, idOrPrefix)
	}
}

// List returns the most recent runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Clear removes every finished run and reports how many were deleted. Runs
// still in progress are kept.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE status IN (?, ?)`, StatusCompleted, StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) update(ctx context.Context, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: run %s not found", op, args[len(args)-1])
	}
	return nil
}
