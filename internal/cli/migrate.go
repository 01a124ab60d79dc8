package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/runnerr0/histstore/internal/storage"
)

type migrateJSON struct {
	DatabasePath string `json:"database_path"`
	From         int    `json:"from"`
	To           int    `json:"to"`
	Current      int    `json:"current"`
}

// Execute implements the go-flags Commander interface for MigrateCommand.
// Opening a store runs the migration ladder, so this reads the generation
// first and reports the change.
func (c *MigrateCommand) Execute(args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}

	from, err := peekGeneration(ctx, cfg.Storage.Driver, dbPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, dbPath, cfg.StoreOptions())
	if err != nil {
		return errors.WithMessagef(err, "migrate %s", dbPath)
	}
	defer store.Close()

	to, err := storage.Generation(ctx, store.DB())
	if err != nil {
		return err
	}
	return c.report(migrateJSON{DatabasePath: dbPath, From: from, To: to, Current: storage.CurrentGeneration})
}

// peekGeneration reads the schema generation of an existing database file
// without migrating it. Missing files are generation 0.
func peekGeneration(ctx context.Context, driver, dbPath string) (int, error) {
	if dbPath == ":memory:" {
		return 0, nil
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return 0, nil
	}
	db, err := sql.Open(driver, dbPath)
	if err != nil {
		return 0, errors.Wrap(err, "open database")
	}
	defer db.Close()
	return storage.Generation(ctx, db)
}

func (c *MigrateCommand) report(r migrateJSON) error {
	if c.globals.JSON {
		return printJSON(r)
	}
	switch {
	case r.From == r.To:
		fmt.Printf("%s is at generation %d; nothing to do.\n", r.DatabasePath, r.To)
	case r.From == 0:
		fmt.Printf("Created %s at generation %d.\n", r.DatabasePath, r.To)
	default:
		fmt.Printf("Migrated %s from generation %d to %d.\n", r.DatabasePath, r.From, r.To)
	}
	if r.To > r.Current {
		fmt.Printf("Note: generation %d is newer than this build supports (%d); the schema was left untouched.\n", r.To, r.Current)
	}
	return nil
}
