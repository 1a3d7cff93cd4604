package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ragbench/internal/models"
)

// SQLiteStore implements ResultStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ ResultStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Evaluation workers save outcomes concurrently; SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		dataset TEXT,
		fingerprint TEXT,
		top_k INTEGER NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		evaluated INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		mean_f1 REAL NOT NULL DEFAULT 0,
		mean_semantic REAL NOT NULL DEFAULT 0,
		mean_rouge_l REAL NOT NULL DEFAULT 0,
		mean_sfm REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS outcomes (
		run_id TEXT NOT NULL,
		example_id INTEGER NOT NULL,
		question TEXT NOT NULL,
		gold TEXT,
		prediction TEXT,
		retrieved TEXT,
		scored INTEGER NOT NULL,
		f1 REAL,
		semantic REAL,
		rouge_l REAL,
		sfm REAL,
		error TEXT,
		PRIMARY KEY (run_id, example_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRun inserts a run that has started.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.RunInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, dataset, fingerprint, top_k)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Dataset, run.Fingerprint, run.TopK,
	)
	return err
}

// FinishRun records the finish time and report of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.RunInfo) error {
	r := run.Report
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, evaluated = ?, failed = ?,
		 mean_f1 = ?, mean_semantic = ?, mean_rouge_l = ?, mean_sfm = ?
		 WHERE id = ?`,
		run.FinishedAt, r.Total, r.Evaluated, r.Failed,
		r.F1, r.SemanticSimilarity, r.RougeL, r.SupportingFactMatch, run.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, dataset, fingerprint, top_k,
	total, evaluated, failed, mean_f1, mean_semantic, mean_rouge_l, mean_sfm`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunInfo, error) {
	var run models.RunInfo
	var finished sql.NullTime
	var dataset, fingerprint sql.NullString
	r := &run.Report
	if err := row.Scan(&run.ID, &run.StartedAt, &finished, &dataset, &fingerprint, &run.TopK,
		&r.Total, &r.Evaluated, &r.Failed, &r.F1, &r.SemanticSimilarity, &r.RougeL, &r.SupportingFactMatch); err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	run.Dataset = dataset.String
	run.Fingerprint = fingerprint.String
	return &run, nil
}

// GetRun returns a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.RunInfo, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*models.RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.RunInfo
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its outcomes.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// SaveOutcome inserts or replaces one example outcome of a run.
func (s *SQLiteStore) SaveOutcome(ctx context.Context, runID string, o *models.ExampleOutcome) error {
	var retrieved []byte
	if o.Retrieval != nil {
		var err error
		if retrieved, err = sonic.Marshal(o.Retrieval); err != nil {
			return fmt.Errorf("failed to marshal retrieval: %w", err)
		}
	}
	var f1, semantic, rougeL, sfm sql.NullFloat64
	if o.Score != nil {
		f1 = sql.NullFloat64{Float64: o.Score.F1, Valid: true}
		semantic = sql.NullFloat64{Float64: o.Score.SemanticSimilarity, Valid: true}
		rougeL = sql.NullFloat64{Float64: o.Score.RougeL, Valid: true}
		sfm = sql.NullFloat64{Float64: o.Score.SupportingFactMatch, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO outcomes
		 (run_id, example_id, question, gold, prediction, retrieved, scored, f1, semantic, rouge_l, sfm, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, o.ExampleID, o.Question, o.Gold, o.Prediction, string(retrieved), o.Score != nil,
		f1, semantic, rougeL, sfm, o.Err,
	)
	return err
}

// ListOutcomes returns the outcomes of a run ordered by example id.
func (s *SQLiteStore) ListOutcomes(ctx context.Context, runID string) ([]*models.ExampleOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT example_id, question, gold, prediction, retrieved, scored, f1, semantic, rouge_l, sfm, error
		 FROM outcomes WHERE run_id = ? ORDER BY example_id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []*models.ExampleOutcome
	for rows.Next() {
		var o models.ExampleOutcome
		var gold, prediction, retrieved, errText sql.NullString
		var scored bool
		var f1, semantic, rougeL, sfm sql.NullFloat64
		if err := rows.Scan(&o.ExampleID, &o.Question, &gold, &prediction, &retrieved, &scored,
			&f1, &semantic, &rougeL, &sfm, &errText); err != nil {
			return nil, err
		}
		o.Gold = gold.String
		o.Prediction = prediction.String
		o.Err = errText.String
		if retrieved.String != "" {
			var res models.RetrievalResult
			if err := sonic.UnmarshalString(retrieved.String, &res); err != nil {
				return nil, fmt.Errorf("failed to unmarshal retrieval of example %d: %w", o.ExampleID, err)
			}
			o.Retrieval = &res
		}
		if scored {
			o.Score = &models.ScoreRecord{
				ExampleID:           o.ExampleID,
				F1:                  f1.Float64,
				SemanticSimilarity:  semantic.Float64,
				RougeL:              rougeL.Float64,
				SupportingFactMatch: sfm.Float64,
			}
		}
		outcomes = append(outcomes, &o)
	}
	return outcomes, rows.Err()
}

// CountRuns returns the total number of runs.
func (s *SQLiteStore) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
