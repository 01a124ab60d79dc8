package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Registered database/sql driver names.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

// ErrNotFound is returned by lookups of a single record that does not exist.
var ErrNotFound = errors.New("not found")

// Options configure how Open connects to the backing file.
type Options struct {
	Driver      string
	JournalMode string
	BusyTimeout time.Duration
}

// SQLiteStore is the history store. It owns exactly one connection; every
// mutation runs under mu inside a single transaction.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
	mu    sync.Mutex

	// Prepared read statements. They run on the shared connection and must
	// not be used from inside withTx.
	isFavorite *sql.Stmt
	countVisit *sql.Stmt
	getURL     *sql.Stmt

	domains *domainCache
}

// Open opens (creating if needed) the store at path, applies connection
// pragmas, runs the migration ladder and returns a ready store. Use ":memory:"
// for a throwaway store.
func Open(ctx context.Context, path string, opts Options) (*SQLiteStore, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverMattn
	}
	if driver != DriverMattn && driver != DriverModernc {
		return nil, errors.Errorf("unsupported driver %q", driver)
	}

	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "create database directory")
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// One live handle for the lifetime of the store. Pragmas below are
	// per-connection, so this also keeps them in effect.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db, opts); err != nil {
		db.Close()
		return nil, err
	}

	if err := NewMigrationRunner(db, DefaultLadder()).Run(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

func applyPragmas(ctx context.Context, db *sql.DB, opts Options) error {
	var pragmas []string
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()))
	}
	if mode := strings.ToUpper(opts.JournalMode); mode != "" {
		switch mode {
		case "WAL", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "OFF":
		default:
			return errors.Errorf("unsupported journal mode %q", opts.JournalMode)
		}
		pragmas = append(pragmas, "PRAGMA journal_mode = "+mode)
	}
	pragmas = append(pragmas, "PRAGMA foreign_keys = ON")

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return errors.Wrapf(err, "apply %q", p)
		}
	}
	return nil
}

// NewSQLiteStore wraps an already-opened and migrated database. The caller
// keeps ownership of db and should cap it at one open connection.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{
		db:      db,
		domains: newDomainCache(domainCacheSize),
	}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "prepare statements")
	}
	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.isFavorite, err = s.db.Prepare(`SELECT COUNT(*) FROM urls WHERE url = ? AND favorite = 1`)
	if err != nil {
		return err
	}

	s.countVisit, err = s.db.Prepare(`SELECT COUNT(*) FROM history`)
	if err != nil {
		return err
	}

	s.getURL, err = s.db.Prepare(`
		SELECT id, url, domain, title, visits, time, favorite, fav_time
		FROM urls WHERE url = ?
	`)
	if err != nil {
		return err
	}

	return nil
}

// DB exposes the underlying handle for diagnostics.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// withTx runs fn inside one transaction while holding the store's writer
// lock. The transaction commits only if fn returns nil.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

// GetURL returns the record for an exact url, or ErrNotFound.
func (s *SQLiteStore) GetURL(ctx context.Context, rawURL string) (*URLRecord, error) {
	var r URLRecord
	var domain, title sql.NullString

	err := s.getURL.QueryRowContext(ctx, rawURL).Scan(
		&r.ID, &r.URL, &domain, &title, &r.Visits, &r.LastVisit, &r.Favorite, &r.FavTime,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "get url")
	}
	r.Domain, r.Title = domain.String, title.String
	return &r, nil
}

// Close releases prepared statements, and the database when it was opened
// by Open.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.isFavorite, s.countVisit, s.getURL}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// nullString maps "" to SQL NULL.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
