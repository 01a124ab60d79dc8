package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CurrentGeneration is the schema generation written by DefaultLadder.
const CurrentGeneration = 9

// Step is one incremental schema transition. Applying its Statements to a
// store at generation Version-1 yields generation Version.
type Step struct {
	Version    int
	Name       string
	Statements []string
}

// Ladder describes every schema generation the runner understands: the
// target generation, the statements that create a fresh store directly at
// that generation, and the ordered steps that upgrade older stores.
type Ladder struct {
	Current int
	Create  []string
	Steps   []Step
}

// DefaultLadder returns the ladder for the history schema.
func DefaultLadder() Ladder {
	return Ladder{
		Current: CurrentGeneration,
		Create:  currentSchema,
		Steps:   defaultSteps,
	}
}

// pending returns the steps needed to move a store at generation from up to
// the ladder's current generation.
func (l Ladder) pending(from int) []Step {
	var out []Step
	for _, s := range l.Steps {
		if s.Version > from && s.Version <= l.Current {
			out = append(out, s)
		}
	}
	return out
}

// MigrationRunner brings a SQLite database up to the ladder's generation.
type MigrationRunner struct {
	db     *sql.DB
	ladder Ladder
}

// NewMigrationRunner creates a MigrationRunner for the given ladder.
func NewMigrationRunner(db *sql.DB, ladder Ladder) *MigrationRunner {
	return &MigrationRunner{db: db, ladder: ladder}
}

// Generation reads the schema generation recorded in the database header.
// Zero means the store has never been initialised.
func Generation(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, errors.Wrap(err, "read user_version")
	}
	return v, nil
}

// Run creates or upgrades the schema. A store already at (or beyond) the
// ladder's generation is left untouched. All work happens in one transaction,
// so a failed run leaves the store at its previous generation.
func (r *MigrationRunner) Run(ctx context.Context) (err error) {
	gen, err := Generation(ctx, r.db)
	if err != nil {
		return err
	}

	var fields = log.Fields{"from": gen, "to": r.ladder.Current}
	switch {
	case gen == r.ladder.Current:
		return nil
	case gen > r.ladder.Current:
		log.WithFields(fields).Warn("store generation is newer than supported; leaving schema untouched")
		return nil
	}

	// Table rebuilds in the early steps rename tables that are referenced by
	// foreign keys. Enforcement is restored and checked before commit.
	if _, err = r.db.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return errors.Wrap(err, "disable foreign keys")
	}
	defer func() {
		if _, fkErr := r.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = errors.Wrap(fkErr, "enable foreign keys")
		}
	}()

	var steps []Step
	if gen == 0 {
		steps = []Step{{
			Version:    r.ladder.Current,
			Name:       fmt.Sprintf("create_generation_%d", r.ladder.Current),
			Statements: r.ladder.Create,
		}}
	} else {
		steps = r.ladder.pending(gen)
	}

	log.WithFields(fields).WithField("steps", len(steps)).Info("migrating history schema")
	return r.apply(ctx, steps)
}

// apply executes steps inside a single transaction, records each of them,
// and stamps the new generation.
func (r *MigrationRunner) apply(ctx context.Context, steps []Step) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return errors.Wrap(err, "create schema_migrations table")
	}

	for _, s := range steps {
		for i, stmt := range s.Statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "apply migration %d (%s) statement %d", s.Version, s.Name, i)
			}
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO schema_migrations (version, name) VALUES (?, ?)",
			s.Version, s.Name,
		); err != nil {
			return errors.Wrapf(err, "record migration %d", s.Version)
		}
		log.WithFields(log.Fields{"version": s.Version, "name": s.Name}).Debug("applied migration step")
	}

	if err := foreignKeyCheck(ctx, tx); err != nil {
		return err
	}
	// PRAGMA arguments cannot be bound; the value is an int from the ladder.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", r.ladder.Current)); err != nil {
		return errors.Wrap(err, "write user_version")
	}

	return errors.Wrap(tx.Commit(), "commit migration")
}

// foreignKeyCheck fails if any row references a missing parent.
func foreignKeyCheck(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return errors.Wrap(err, "foreign key check")
	}
	defer rows.Close()

	if rows.Next() {
		var table string
		var rowID sql.NullInt64
		var parent string
		var fkid int64
		if err := rows.Scan(&table, &rowID, &parent, &fkid); err != nil {
			return errors.Wrap(err, "scan foreign key violation")
		}
		return errors.Errorf("foreign key violation: %s row %d references missing %s", table, rowID.Int64, parent)
	}
	return rows.Err()
}
