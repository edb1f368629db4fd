package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Lumaura-Xuve/Lumaura-Xuve/internal/models"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteSnapshotStore implements SnapshotStore on a SQLite database.
// Each Save replaces every row inside one transaction.
type SQLiteSnapshotStore struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteSnapshotStore opens (or creates) the database at dbPath.
func NewSQLiteSnapshotStore(dbPath string) (*SQLiteSnapshotStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteSnapshotStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *SQLiteSnapshotStore) Path() string {
	return s.dbPath
}

// Load reads every portal row. It returns nil when nothing has been saved.
func (s *SQLiteSnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastSaved string
	err := s.db.QueryRowContext(ctx, `SELECT last_saved FROM snapshot_meta WHERE id = 1`).Scan(&lastSaved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot metadata: %w", err)
	}

	savedAt, err := ParseTimestamp(lastSaved)
	if err != nil {
		return nil, fmt.Errorf("parsing last_saved: %w", err)
	}
	snap := NewSnapshot(savedAt)

	rows, err := s.db.QueryContext(ctx, `SELECT name, evolution_score, evolution_stage, last_updated FROM portal_scores`)
	if err != nil {
		return nil, fmt.Errorf("querying portal scores: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, stage, updated string
			score                float64
		)
		if err := rows.Scan(&name, &score, &stage, &updated); err != nil {
			return nil, fmt.Errorf("scanning portal score: %w", err)
		}
		ts, err := ParseTimestamp(updated)
		if err != nil {
			return nil, fmt.Errorf("portal %s: %w", name, err)
		}
		snap.Portals[name] = PortalSnapshot{Score: score, Tier: models.Tier(stage), LastUpdated: ts}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating portal scores: %w", err)
	}
	return snap, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM portal_scores`); err != nil {
		return fmt.Errorf("clearing portal scores: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO portal_scores (name, evolution_score, evolution_stage, last_updated) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for name, p := range snap.Portals {
		if _, err := stmt.ExecContext(ctx, name, p.Score, string(p.Tier), p.LastUpdated.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("inserting portal %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, last_saved) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET last_saved = excluded.last_saved`,
		snap.LastSaved.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("writing snapshot metadata: %w", err)
	}

	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteSnapshotStore) Close() error {
	return s.db.Close()
}
