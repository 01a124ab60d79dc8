package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacySchema is the generation-1/2 layout: a per-visit history log and a
// separate favorites table.
var legacySchema = []string{
	`CREATE TABLE history (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		url   TEXT NOT NULL,
		title TEXT,
		time  INTEGER NOT NULL
	)`,
	`CREATE TABLE favorites (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		url   TEXT NOT NULL UNIQUE,
		title TEXT,
		time  INTEGER NOT NULL
	)`,
	`CREATE INDEX urlIndex ON history(url)`,
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func exec(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

// buildGeneration lays out an empty store at generation g by replaying the
// legacy schema and every step up to g.
func buildGeneration(t *testing.T, db *sql.DB, g int) {
	t.Helper()
	exec(t, db, legacySchema...)
	for _, s := range DefaultLadder().Steps {
		if s.Version <= g {
			exec(t, db, s.Statements...)
		}
	}
	exec(t, db, fmt.Sprintf("PRAGMA user_version = %d", g))
}

func generation(t *testing.T, db *sql.DB) int {
	t.Helper()
	g, err := Generation(context.Background(), db)
	require.NoError(t, err)
	return g
}

func tableNames(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	return names
}

func columnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()
	rows, err := db.Query("SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

	assert.Equal(t, CurrentGeneration, generation(t, db))
	assert.Equal(t,
		[]string{"blocked_topsites", "history", "queries", "schema_migrations", "urls"},
		tableNames(t, db))
	assert.Equal(t,
		[]string{"domain", "fav_time", "favorite", "id", "time", "title", "url", "visits"},
		columnNames(t, db, "urls"))
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

	for _, idx := range []string{
		"urls_visits_index",
		"history_url_index",
		"history_time_index",
		"urls_url_index",
	} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db, DefaultLadder())
	ctx := context.Background()

	require.NoError(t, runner.Run(ctx))
	exec(t, db,
		`INSERT INTO urls (url, domain, title, visits, time) VALUES ('https://a.com/', 'a.com', 'A', 1, 10)`,
		`INSERT INTO history (url_id, time) VALUES (1, 10)`,
	)
	require.NoError(t, runner.Run(ctx))

	var migrations, urls, visits int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&migrations))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM urls").Scan(&urls))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM history").Scan(&visits))

	assert.Equal(t, 1, migrations, "fresh store records a single create step")
	assert.Equal(t, 1, urls)
	assert.Equal(t, 1, visits)
	assert.Equal(t, CurrentGeneration, generation(t, db))
}

func TestMigrationRunner_NewerGenerationUntouched(t *testing.T) {
	db := openTestDB(t)
	exec(t, db, `CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT)`,
		`INSERT INTO urls (url) VALUES ('https://keep.me/')`,
		"PRAGMA user_version = 12")

	require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM urls").Scan(&n))
	assert.Equal(t, 1, n)
	assert.Equal(t, 12, generation(t, db))
	assert.Equal(t, []string{"urls"}, tableNames(t, db))
}

func TestMigrationRunner_EveryGenerationReachesCurrent(t *testing.T) {
	fresh := openTestDB(t)
	require.NoError(t, NewMigrationRunner(fresh, DefaultLadder()).Run(context.Background()))

	for g := 1; g < CurrentGeneration; g++ {
		t.Run(fmt.Sprintf("from_%d", g), func(t *testing.T) {
			db := openTestDB(t)
			buildGeneration(t, db, g)

			require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

			assert.Equal(t, CurrentGeneration, generation(t, db))
			assert.Equal(t, tableNames(t, fresh), tableNames(t, db))
			for _, table := range []string{"urls", "history", "blocked_topsites", "queries"} {
				assert.Equal(t, columnNames(t, fresh, table), columnNames(t, db, table), table)
			}
		})
	}
}

func TestMigrationRunner_LegacyDataPreserved(t *testing.T) {
	db := openTestDB(t)
	buildGeneration(t, db, 2)
	exec(t, db,
		`INSERT INTO history (url, title, time) VALUES ('https://www.a.com/', 'A old', 100)`,
		`INSERT INTO history (url, title, time) VALUES ('https://b.com/', 'B', 150)`,
		`INSERT INTO history (url, title, time) VALUES ('https://www.a.com/', 'A new', 200)`,
		`INSERT INTO favorites (url, title, time) VALUES ('https://www.a.com/', 'A fav', 500)`,
		`INSERT INTO favorites (url, title, time) VALUES ('https://c.com/', 'C', 600)`,
	)

	require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	a, err := store.GetURL(ctx, "https://www.a.com/")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Visits)
	assert.Equal(t, int64(200), a.LastVisit)
	assert.Equal(t, "A new", a.Title)
	assert.True(t, a.Favorite)
	assert.Equal(t, int64(500), a.FavTime)
	assert.Empty(t, a.Domain, "domain is backfilled lazily")

	c, err := store.GetURL(ctx, "https://c.com/")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Visits)
	assert.True(t, c.Favorite)

	n, err := store.HistoryItemsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	sites, err := store.GetTopSites(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sites, 2)
	assert.Equal(t, "https://www.a.com/", sites[0].URL)
	assert.Equal(t, "a.com", sites[0].Domain)

	a, err = store.GetURL(ctx, "https://www.a.com/")
	require.NoError(t, err)
	assert.Equal(t, "a.com", a.Domain)
}

func TestMigrationRunner_LegacyUrlsOfOneHostRankOnce(t *testing.T) {
	db := openTestDB(t)
	buildGeneration(t, db, 2)
	exec(t, db,
		`INSERT INTO history (url, title, time) VALUES ('https://www.a.com/x', 'X', 100)`,
		`INSERT INTO history (url, title, time) VALUES ('https://www.a.com/x', 'X', 200)`,
		`INSERT INTO history (url, title, time) VALUES ('https://a.com/y', 'Y', 300)`,
		`INSERT INTO history (url, title, time) VALUES ('https://b.com/', 'B', 50)`,
	)
	require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	sites, err := store.GetTopSites(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sites, 2, "a duplicate domain must not use up a slot")
	assert.Equal(t, TopSite{ID: sites[0].ID, URL: "https://www.a.com/x", Domain: "a.com", Title: "X"}, sites[0])
	assert.Equal(t, "b.com", sites[1].Domain)

	// Once every domain is backfilled the query groups them itself.
	again, err := store.GetTopSites(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, sites, again)

	y, err := store.GetURL(ctx, "https://a.com/y")
	require.NoError(t, err)
	assert.Equal(t, "a.com", y.Domain)
}

func TestMigrationRunner_FailedStepRollsBack(t *testing.T) {
	db := openTestDB(t)
	buildGeneration(t, db, 3)
	exec(t, db, `INSERT INTO history (url, title, time) VALUES ('https://a.com/', 'A', 1)`)

	ladder := DefaultLadder()
	ladder.Steps = append([]Step(nil), ladder.Steps...)
	for i := range ladder.Steps {
		if ladder.Steps[i].Version == 6 {
			ladder.Steps[i].Statements = []string{"ALTER TABLE no_such_table ADD COLUMN x TEXT"}
		}
	}

	err := NewMigrationRunner(db, ladder).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 6")

	assert.Equal(t, 3, generation(t, db))
	assert.Equal(t, []string{"favorites", "history"}, tableNames(t, db))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM history WHERE visits = 1").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestMigrationRunner_ForeignKeysRestored(t *testing.T) {
	db := openTestDB(t)
	buildGeneration(t, db, 5)
	exec(t, db, "PRAGMA foreign_keys = ON")

	require.NoError(t, NewMigrationRunner(db, DefaultLadder()).Run(context.Background()))

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk, "foreign_keys should be enabled after a ladder run")

	_, err := db.Exec("INSERT INTO history (url_id, time) VALUES (42, 1)")
	assert.Error(t, err, "foreign key constraint should prevent orphan visits")
}

func TestLadder_Pending(t *testing.T) {
	l := DefaultLadder()

	var versions []int
	for _, s := range l.pending(6) {
		versions = append(versions, s.Version)
	}
	assert.Equal(t, []int{7, 8, 9}, versions)
	assert.Empty(t, l.pending(CurrentGeneration))
	assert.Len(t, l.pending(1), 7)
}
