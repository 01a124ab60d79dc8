package storage

// Table and index DDL, grouped by the generation that introduced them. The
// final-generation statements are shared between fresh stores (ladder Create)
// and the incremental steps that upgrade older stores.

const (
	createURLsTableV4 = `CREATE TABLE urls (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		url      TEXT NOT NULL UNIQUE,
		title    TEXT,
		visits   INTEGER NOT NULL DEFAULT 0,
		time     INTEGER NOT NULL DEFAULT 0,
		favorite INTEGER NOT NULL DEFAULT 0
	)`

	createHistoryTableV4 = `CREATE TABLE history (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		url_id INTEGER NOT NULL REFERENCES urls(id),
		time   INTEGER NOT NULL
	)`

	createURLsVisitsIndexV4  = `CREATE INDEX IF NOT EXISTS urls_visits_index ON urls(visits, time)`
	createHistoryURLIndexV4  = `CREATE INDEX IF NOT EXISTS history_url_index ON history(url_id)`
	createBlockedTableV6     = `CREATE TABLE IF NOT EXISTS blocked_topsites (domain TEXT NOT NULL)`
	createHistoryTimeIndexV8 = `CREATE INDEX IF NOT EXISTS history_time_index ON history(time)`
	createURLLookupIndexV9   = `CREATE INDEX IF NOT EXISTS urls_url_index ON urls(url, favorite)`

	createQueriesTableV7 = `CREATE TABLE IF NOT EXISTS queries (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		time  INTEGER NOT NULL
	)`

	// The current urls layout. Upgraded stores reach the same columns through
	// ALTER TABLE, so column order differs between fresh and upgraded stores;
	// every query names its columns.
	createURLsTableV9 = `CREATE TABLE IF NOT EXISTS urls (
		id       INTEGER PRIMARY KEY AUTOINCREMENT,
		url      TEXT NOT NULL UNIQUE,
		domain   TEXT,
		title    TEXT,
		visits   INTEGER NOT NULL DEFAULT 0,
		time     INTEGER NOT NULL DEFAULT 0,
		favorite INTEGER NOT NULL DEFAULT 0,
		fav_time INTEGER NOT NULL DEFAULT 0
	)`

	createHistoryTableV9 = `CREATE TABLE IF NOT EXISTS history (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		url_id INTEGER NOT NULL REFERENCES urls(id),
		time   INTEGER NOT NULL
	)`
)

// currentSchema creates a store directly at the latest generation.
var currentSchema = []string{
	createURLsTableV9,
	createHistoryTableV9,
	createURLsVisitsIndexV4,
	createHistoryURLIndexV4,
	createBlockedTableV6,
	createQueriesTableV7,
	createHistoryTimeIndexV8,
	createURLLookupIndexV9,
}
