package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"webpkg/internal/database/migrations"
	"webpkg/internal/model"
	"webpkg/internal/wp"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements wp.RunLedger using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

var _ wp.RunLedger = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// MigrateUp applies pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations reports whether the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

const runColumns = `id, run_id, mode, source, title, output_root, slot_path, ordinal,
	status, message, artifact_key, started_at, finished_at`

func (s *SQLiteDatabase) CreateRun(run *model.Run) error {
	if run.Status == "" {
		run.Status = model.RunRunning
	}
	res, err := s.db.ExecContext(context.Background(), `
		INSERT INTO runs (run_id, mode, source, title, output_root, slot_path, ordinal, status, message, artifact_key, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Mode, run.Source, run.Title, run.OutputRoot, run.SlotPath, run.Ordinal,
		run.Status, run.Message, run.ArtifactKey, run.StartedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	return nil
}

func (s *SQLiteDatabase) FinishRun(run *model.Run) error {
	var finished sql.NullTime
	if run.FinishedAt != nil {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}
	res, err := s.db.ExecContext(context.Background(), `
		UPDATE runs
		SET slot_path = ?, ordinal = ?, status = ?, message = ?, artifact_key = ?, finished_at = ?
		WHERE run_id = ?`,
		run.SlotPath, run.Ordinal, run.Status, run.Message, run.ArtifactKey, finished, run.RunID,
	)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing run: no run with id %s", run.RunID)
	}
	return nil
}

func (s *SQLiteDatabase) ListRuns(limit int) ([]*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteDatabase) FindRun(runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(context.Background(), `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding run: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var (
		run      model.Run
		finished sql.NullTime
	)
	err := row.Scan(
		&run.ID, &run.RunID, &run.Mode, &run.Source, &run.Title, &run.OutputRoot,
		&run.SlotPath, &run.Ordinal, &run.Status, &run.Message, &run.ArtifactKey,
		&run.StartedAt, &finished,
	)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}
