// Package state persists install records and last-active times in a local
// SQLite database.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultFile is the database file name under the app config directory.
const DefaultFile = "state.db"

const schema = `
CREATE TABLE IF NOT EXISTS installs (
	name         TEXT PRIMARY KEY,
	version      TEXT NOT NULL,
	source       TEXT NOT NULL,
	digest       INTEGER NOT NULL,
	installed_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS activity (
	name        TEXT PRIMARY KEY,
	last_active INTEGER NOT NULL
);`

// Install is one recorded extension install.
type Install struct {
	Name        string
	Version     string
	Source      string
	Digest      uint64
	InstalledAt time.Time
}

// Store is a SQLite-backed state store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	// One connection serializes writers from the host and watcher goroutines.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init state db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordInstall upserts the install record for name.
func (s *Store) RecordInstall(name, version, source string, digest uint64, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO installs (name, version, source, digest, installed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			source = excluded.source,
			digest = excluded.digest,
			installed_at = excluded.installed_at`,
		name, version, source, int64(digest), at.UnixMilli())
	if err != nil {
		return fmt.Errorf("record install %s: %w", name, err)
	}
	return nil
}

// InstallDigest returns the recorded tree digest for name.
func (s *Store) InstallDigest(name string) (uint64, bool, error) {
	inst, ok, err := s.Install(name)
	if err != nil || !ok {
		return 0, false, err
	}
	return inst.Digest, true, nil
}

// Install returns the install record for name.
func (s *Store) Install(name string) (Install, bool, error) {
	row := s.db.QueryRow(
		`SELECT name, version, source, digest, installed_at FROM installs WHERE name = ?`, name)
	inst, err := scanInstall(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Install{}, false, nil
	}
	if err != nil {
		return Install{}, false, fmt.Errorf("read install %s: %w", name, err)
	}
	return inst, true, nil
}

// Installs returns every install record ordered by name.
func (s *Store) Installs() ([]Install, error) {
	rows, err := s.db.Query(
		`SELECT name, version, source, digest, installed_at FROM installs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list installs: %w", err)
	}
	defer rows.Close()

	var out []Install
	for rows.Next() {
		inst, err := scanInstall(rows)
		if err != nil {
			return nil, fmt.Errorf("list installs: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstall(sc scanner) (Install, error) {
	var (
		inst   Install
		digest int64
		millis int64
	)
	if err := sc.Scan(&inst.Name, &inst.Version, &inst.Source, &digest, &millis); err != nil {
		return Install{}, err
	}
	inst.Digest = uint64(digest)
	inst.InstalledAt = time.UnixMilli(millis)
	return inst, nil
}

// TouchActive records that name was selected at t.
func (s *Store) TouchActive(name string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO activity (name, last_active) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET last_active = excluded.last_active`,
		name, t.UnixMilli())
	if err != nil {
		return fmt.Errorf("touch %s: %w", name, err)
	}
	return nil
}

// LastActive returns when name was last selected.
func (s *Store) LastActive(name string) (time.Time, bool, error) {
	var millis int64
	err := s.db.QueryRow(`SELECT last_active FROM activity WHERE name = ?`, name).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read activity %s: %w", name, err)
	}
	return time.UnixMilli(millis), true, nil
}
