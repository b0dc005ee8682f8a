// Package sqlite persists the fitted sparse model snapshot and the
// index manifest in a single SQLite file. The snapshot is written
// once per indexing run and opened read-only by query-time loads.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Pranavharshans/pdf-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/Pranavharshans/pdf-rag/internal/core/domain"
	"github.com/Pranavharshans/pdf-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.SnapshotStore = (*Store)(nil)

// Store is the SQLite-backed snapshot store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the snapshot database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	// WAL keeps a query-time reader from blocking an indexing writer.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSparseModel replaces the persisted model snapshot in one
// transaction so a crash never leaves half a vocabulary behind.
func (s *Store) SaveSparseModel(ctx context.Context, snap domain.SparseModelSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sparse_terms"); err != nil {
		return fmt.Errorf("clearing sparse terms: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sparse_terms (term, doc_freq) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("preparing term insert: %w", err)
	}
	defer stmt.Close()

	for term, df := range snap.DocFreq {
		if _, err := stmt.ExecContext(ctx, term, df); err != nil {
			return fmt.Errorf("inserting term %q: %w", term, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sparse_stats (id, doc_count, avg_doc_len, k1, b)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			doc_count = excluded.doc_count,
			avg_doc_len = excluded.avg_doc_len,
			k1 = excluded.k1,
			b = excluded.b
	`, snap.DocCount, snap.AvgDocLen, snap.K1, snap.B)
	if err != nil {
		return fmt.Errorf("writing sparse stats: %w", err)
	}

	return tx.Commit()
}

// LoadSparseModel returns the persisted snapshot, if any.
func (s *Store) LoadSparseModel(ctx context.Context) (domain.SparseModelSnapshot, bool, error) {
	var snap domain.SparseModelSnapshot

	row := s.db.QueryRowContext(ctx, "SELECT doc_count, avg_doc_len, k1, b FROM sparse_stats WHERE id = 1")
	err := row.Scan(&snap.DocCount, &snap.AvgDocLen, &snap.K1, &snap.B)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.SparseModelSnapshot{}, false, nil
	}
	if err != nil {
		return domain.SparseModelSnapshot{}, false, fmt.Errorf("reading sparse stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT term, doc_freq FROM sparse_terms")
	if err != nil {
		return domain.SparseModelSnapshot{}, false, fmt.Errorf("reading sparse terms: %w", err)
	}
	defer rows.Close()

	snap.DocFreq = make(map[string]int)
	for rows.Next() {
		var term string
		var df int
		if err := rows.Scan(&term, &df); err != nil {
			return domain.SparseModelSnapshot{}, false, fmt.Errorf("scanning sparse term: %w", err)
		}
		snap.DocFreq[term] = df
	}
	if err := rows.Err(); err != nil {
		return domain.SparseModelSnapshot{}, false, fmt.Errorf("iterating sparse terms: %w", err)
	}

	return snap, true, nil
}

// SaveManifest replaces the persisted index manifest.
func (s *Store) SaveManifest(ctx context.Context, m domain.IndexManifest) error {
	var completedAt any
	if !m.CompletedAt.IsZero() {
		completedAt = m.CompletedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_manifest (id, chunk_count, completed, completed_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			chunk_count = excluded.chunk_count,
			completed = excluded.completed,
			completed_at = excluded.completed_at
	`, m.ChunkCount, boolToInt(m.Completed), completedAt)
	if err != nil {
		return fmt.Errorf("writing index manifest: %w", err)
	}
	return nil
}

// LoadManifest returns the persisted manifest, if any.
func (s *Store) LoadManifest(ctx context.Context) (domain.IndexManifest, bool, error) {
	var m domain.IndexManifest
	var completed int
	var completedAt sql.NullString

	row := s.db.QueryRowContext(ctx, "SELECT chunk_count, completed, completed_at FROM index_manifest WHERE id = 1")
	err := row.Scan(&m.ChunkCount, &completed, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.IndexManifest{}, false, nil
	}
	if err != nil {
		return domain.IndexManifest{}, false, fmt.Errorf("reading index manifest: %w", err)
	}

	m.Completed = completed != 0
	if completedAt.Valid {
		if t, err := time.Parse(time.RFC3339Nano, completedAt.String); err == nil {
			m.CompletedAt = t
		}
	}
	return m, true, nil
}

// Reset clears the snapshot and the manifest. Called when a forced
// reindex invalidates the fitted statistics.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning reset transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sparse_terms", "sparse_stats", "index_manifest"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
