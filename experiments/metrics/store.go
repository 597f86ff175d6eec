package metrics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tetris/agent"
	"tetris/trainer"
)

// NewRunID returns a fresh identifier for output directories and store rows.
func NewRunID() string {
	return uuid.NewString()
}

// Run is one training run as kept in the store.
type Run struct {
	ID          string
	Experiment  string
	StartedAt   time.Time
	Seed        uint64
	Reason      trainer.StopReason
	Generations int
	BestFitness float64
	BestGenome  agent.Genome
}

// Store keeps run history in a sqlite database.
type Store struct {
	db *sql.DB
}

func OpenStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run store tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, experiment, started_at, seed, reason, generations, best_fitness, best_genome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reason = excluded.reason,
			generations = excluded.generations,
			best_fitness = excluded.best_fitness,
			best_genome = excluded.best_genome
	`, run.ID, run.Experiment, run.StartedAt.UTC().Format(time.RFC3339Nano), strconv.FormatUint(run.Seed, 10),
		string(run.Reason), run.Generations, run.BestFitness, agent.Encode(run.BestGenome))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// SaveGenerations appends generation records of a run in one transaction.
func (s *Store) SaveGenerations(ctx context.Context, runID string, records []trainer.GenerationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO generations (run_id, generation, best, mean, worst, evaluated, failures, playouts, pieces, lines, duration_ns, best_genome)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, generation) DO NOTHING
		`, runID, rec.Generation, rec.Best, rec.Mean, rec.Worst, rec.Evaluated, rec.Failures,
			rec.Playouts, rec.Pieces, rec.Lines, int64(rec.Duration), agent.Encode(rec.BestGenome))
		if err != nil {
			return fmt.Errorf("failed to save generation %d of run %s: %w", rec.Generation, runID, err)
		}
	}
	return tx.Commit()
}

// Runs lists the runs of an experiment, oldest first.
func (s *Store) Runs(ctx context.Context, experiment string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, experiment, started_at, seed, reason, generations, best_fitness, best_genome
		FROM runs WHERE experiment = ? ORDER BY started_at, id
	`, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                     Run
			startedAt, seed, genome string
			reason                  string
		)
		if err := rows.Scan(&run.ID, &run.Experiment, &startedAt, &seed, &reason, &run.Generations, &run.BestFitness, &genome); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		if run.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		if run.BestGenome, err = agent.Decode(genome); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		run.Reason = trainer.StopReason(reason)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Generations(ctx context.Context, runID string) ([]trainer.GenerationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, best, mean, worst, evaluated, failures, playouts, pieces, lines, duration_ns, best_genome
		FROM generations WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var records []trainer.GenerationRecord
	for rows.Next() {
		var (
			rec      trainer.GenerationRecord
			duration int64
			genome   string
		)
		if err := rows.Scan(&rec.Generation, &rec.Best, &rec.Mean, &rec.Worst, &rec.Evaluated, &rec.Failures,
			&rec.Playouts, &rec.Pieces, &rec.Lines, &duration, &genome); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		rec.Duration = time.Duration(duration)
		if rec.BestGenome, err = agent.Decode(genome); err != nil {
			return nil, fmt.Errorf("generation %d: %w", rec.Generation, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			experiment TEXT NOT NULL,
			started_at TEXT NOT NULL,
			seed TEXT NOT NULL,
			reason TEXT NOT NULL,
			generations INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			best_genome TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best REAL NOT NULL,
			mean REAL NOT NULL,
			worst REAL NOT NULL,
			evaluated INTEGER NOT NULL,
			failures INTEGER NOT NULL,
			playouts INTEGER NOT NULL,
			pieces INTEGER NOT NULL,
			lines INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			best_genome TEXT NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
