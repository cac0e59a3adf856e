// Package runstore records VM executions in a SQLite database so past runs
// can be listed and inspected.
package runstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/stackvm/pkg/bytecode"
	"github.com/chazu/stackvm/vm"
)

var log = commonlog.GetLogger("stackvm.runstore")

// ErrRunNotFound indicates the requested run doesn't exist.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	created_at     INTEGER NOT NULL,
	program_sha256 TEXT NOT NULL,
	instructions   INTEGER NOT NULL,
	steps          INTEGER NOT NULL,
	error          TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS cells (
	run_id  TEXT NOT NULL REFERENCES runs(id),
	address INTEGER NOT NULL,
	value   INTEGER NOT NULL,
	PRIMARY KEY (run_id, address)
);
`

// RunRecord is one stored execution.
type RunRecord struct {
	ID            string
	CreatedAt     time.Time
	ProgramSHA256 string
	Instructions  int
	Steps         int
	Error         string    // Empty for successful runs
	Cells         []vm.Cell // Reported snapshot, ascending by address
}

// NewRecord builds a record for a run of instrs. A nil result with a non-nil
// err records a failed run.
func NewRecord(instrs []bytecode.Instruction, res *vm.Result, cells []vm.Cell, err error) RunRecord {
	sum := sha256.Sum256(bytecode.Serialize(instrs))
	rec := RunRecord{
		ProgramSHA256: hex.EncodeToString(sum[:]),
		Instructions:  len(instrs),
		Cells:         cells,
	}
	if res != nil {
		rec.Steps = res.Steps
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	log.Debugf("opened run store %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores rec and returns its id. ID and CreatedAt are assigned when
// unset.
func (s *Store) Record(ctx context.Context, rec RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, created_at, program_sha256, instructions, steps, error) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.CreatedAt.UnixNano(), rec.ProgramSHA256, rec.Instructions, rec.Steps, rec.Error,
	)
	if err != nil {
		return "", fmt.Errorf("saving run: %w", err)
	}

	if len(rec.Cells) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO cells (run_id, address, value) VALUES (?, ?, ?)")
		if err != nil {
			return "", fmt.Errorf("preparing cell insert: %w", err)
		}
		defer stmt.Close()
		for _, c := range rec.Cells {
			if _, err := stmt.ExecContext(ctx, rec.ID, c.Address, c.Value); err != nil {
				return "", fmt.Errorf("saving cell %d: %w", c.Address, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	log.Infof("recorded run %s (%d cells)", rec.ID, len(rec.Cells))
	return rec.ID, nil
}

// Get loads a run and its cells.
func (s *Store) Get(ctx context.Context, id string) (*RunRecord, error) {
	rec := &RunRecord{ID: id}
	var created int64
	err := s.db.QueryRowContext(ctx,
		"SELECT created_at, program_sha256, instructions, steps, error FROM runs WHERE id = ?", id,
	).Scan(&created, &rec.ProgramSHA256, &rec.Instructions, &rec.Steps, &rec.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	rec.CreatedAt = time.Unix(0, created)

	rows, err := s.db.QueryContext(ctx,
		"SELECT address, value FROM cells WHERE run_id = ? ORDER BY address", id)
	if err != nil {
		return nil, fmt.Errorf("querying cells: %w", err)
	}
	defer rows.Close()

	rec.Cells = []vm.Cell{}
	for rows.Next() {
		var c vm.Cell
		if err := rows.Scan(&c.Address, &c.Value); err != nil {
			return nil, fmt.Errorf("scanning cell: %w", err)
		}
		rec.Cells = append(rec.Cells, c)
	}
	return rec, rows.Err()
}

// List returns up to limit runs, newest first, without their cells.
// A limit of zero or less returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]RunRecord, error) {
	query := "SELECT id, created_at, program_sha256, instructions, steps, error FROM runs ORDER BY created_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var created int64
		if err := rows.Scan(&rec.ID, &created, &rec.ProgramSHA256, &rec.Instructions, &rec.Steps, &rec.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.CreatedAt = time.Unix(0, created)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}
