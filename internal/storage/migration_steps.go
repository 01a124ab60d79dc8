package storage

// Generation-1 and generation-2 stores share one layout: a per-visit history
// log (id, url, title, time) with an index on url, and a separate favorites
// table (id, url, title, time). Every later generation is reached through the
// steps below.
var defaultSteps = []Step{
	{
		Version: 3,
		Name:    "history_visit_counts",
		Statements: []string{
			`ALTER TABLE history ADD COLUMN visits INTEGER NOT NULL DEFAULT 1`,
			`CREATE INDEX countIndex ON history(visits)`,
		},
	},
	{
		Version: 4,
		Name:    "split_urls_and_visits",
		Statements: []string{
			`ALTER TABLE history RENAME TO tempHistory`,
			`DROP INDEX IF EXISTS urlIndex`,
			`DROP INDEX IF EXISTS countIndex`,
			createURLsTableV4,
			createHistoryTableV4,
			createURLsVisitsIndexV4,
			createHistoryURLIndexV4,
			// One urls row per distinct url; the counter is the number of
			// legacy rows, which become the visits below.
			`INSERT INTO urls (url, title, visits, time)
				SELECT t.url,
					(SELECT t2.title FROM tempHistory t2
						WHERE t2.url = t.url
						ORDER BY t2.time DESC, t2.id DESC LIMIT 1),
					COUNT(*),
					MAX(t.time)
				FROM tempHistory t
				GROUP BY t.url`,
			`INSERT INTO history (url_id, time)
				SELECT u.id, t.time
				FROM tempHistory t
				JOIN urls u ON u.url = t.url
				ORDER BY t.id`,
			`DROP TABLE tempHistory`,
		},
	},
	{
		Version: 5,
		Name:    "favorites_into_urls",
		Statements: []string{
			`ALTER TABLE urls ADD COLUMN fav_time INTEGER NOT NULL DEFAULT 0`,
			`UPDATE urls
				SET favorite = 1,
					fav_time = (SELECT f.time FROM favorites f WHERE f.url = urls.url)
				WHERE url IN (SELECT url FROM favorites)`,
			`INSERT INTO urls (url, title, visits, time, favorite, fav_time)
				SELECT f.url, f.title, 0, 0, 1, f.time
				FROM favorites f
				WHERE f.url NOT IN (SELECT url FROM urls)`,
			`DROP TABLE favorites`,
		},
	},
	{
		Version: 6,
		Name:    "domains_and_blocked_topsites",
		Statements: []string{
			`ALTER TABLE urls ADD COLUMN domain TEXT`,
			createBlockedTableV6,
		},
	},
	{
		Version:    7,
		Name:       "query_log",
		Statements: []string{createQueriesTableV7},
	},
	{
		Version:    8,
		Name:       "history_time_index",
		Statements: []string{createHistoryTimeIndexV8},
	},
	{
		Version:    9,
		Name:       "url_lookup_index",
		Statements: []string{createURLLookupIndexV9},
	},
}
