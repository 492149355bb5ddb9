// Package ledger records generated traces in a SQLite database so earlier
// runs can be listed and compared.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/sliptrace/internal/constants"
	"github.com/nvandessel/sliptrace/internal/trace"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound reports a lookup of an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one ledger entry.
type Run struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	Source     string        `json:"source"`
	Outcome    trace.Outcome `json:"outcome"`
	FrameCount int           `json:"frame_count"`
	Checksum   string        `json:"checksum"`
	OutputPath string        `json:"output_path"`
	Config     string        `json:"config,omitempty"`
}

// Store is a SQLite-backed run ledger.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the ledger at <root>/.sliptrace/runs.db.
func Open(root string) (*Store, error) {
	dir := filepath.Join(root, constants.DataDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", constants.DataDirName, err)
	}
	return OpenPath(filepath.Join(dir, constants.LedgerFileName))
}

// OpenPath opens (creating if needed) the ledger database at dbPath.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Record stores a run and its frames in one transaction. Empty ID and zero
// CreatedAt are filled in. It returns the run ID.
func (s *Store) Record(ctx context.Context, run Run, frames []trace.Frame) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.ID == "" {
		run.ID = generateRunID(run)
	}
	if run.FrameCount == 0 {
		run.FrameCount = len(frames)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, source, outcome, frame_count, checksum, output_path, config)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Source, string(run.Outcome),
		run.FrameCount, run.Checksum, run.OutputPath, run.Config)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO frames (run_id, step, z, friction, pixel) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare frame insert: %w", err)
	}
	defer stmt.Close()

	simulated := run.Source == constants.SourcePhysics
	for _, f := range frames {
		var z, friction sql.NullFloat64
		if simulated {
			z = sql.NullFloat64{Float64: f.Z, Valid: true}
			friction = sql.NullFloat64{Float64: f.Friction, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, run.ID, f.Step, z, friction, f.Pixel); err != nil {
			return "", fmt.Errorf("failed to insert frame %d: %w", f.Step, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

// List returns runs, newest first. limit <= 0 returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, created_at, source, outcome, frame_count, checksum, output_path, COALESCE(config, '')
		FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt, outcome string
		if err := rows.Scan(&r.ID, &createdAt, &r.Source, &outcome, &r.FrameCount, &r.Checksum, &r.OutputPath, &r.Config); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Outcome = trace.Outcome(outcome)
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at for %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a single run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var r Run
	var createdAt, outcome string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, source, outcome, frame_count, checksum, output_path, COALESCE(config, '')
		FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &createdAt, &r.Source, &outcome, &r.FrameCount, &r.Checksum, &r.OutputPath, &r.Config)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	r.Outcome = trace.Outcome(outcome)
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at for %s: %w", r.ID, err)
	}
	return &r, nil
}

// Frames returns the frames of a run in step order.
func (s *Store) Frames(ctx context.Context, runID string) ([]trace.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, z, friction, pixel FROM frames WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []trace.Frame
	for rows.Next() {
		var f trace.Frame
		var z, friction sql.NullFloat64
		if err := rows.Scan(&f.Step, &z, &friction, &f.Pixel); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.Z = z.Float64
		f.Friction = friction.Float64
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// generateRunID derives a short content-addressed ID from the run's time and checksum.
func generateRunID(run Run) string {
	hash := sha256.Sum256([]byte(run.CreatedAt.Format(time.RFC3339Nano) + run.Checksum + run.OutputPath))
	return "run-" + hex.EncodeToString(hash[:])[:12]
}
