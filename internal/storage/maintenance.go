package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ClearHistory wipes browsing history and the query log.
//
// With deleteFavorites false, every visit and every non-favorite url is
// removed and favorites survive with a zeroed visit count. With
// deleteFavorites true, favorites are unmarked and urls left without visits
// are removed; visits themselves are kept.
func (s *SQLiteStore) ClearHistory(ctx context.Context, deleteFavorites bool) error {
	var stmts []string
	if deleteFavorites {
		stmts = []string{
			"UPDATE urls SET favorite = 0",
			"DELETE FROM urls WHERE visits = 0",
		}
	} else {
		stmts = []string{
			"DELETE FROM history",
			"DELETE FROM urls WHERE favorite < 1",
			"UPDATE urls SET visits = 0",
		}
	}
	stmts = append(stmts, "DELETE FROM queries")

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "clear history (%s)", stmt)
			}
		}
		return nil
	})
}

// BlockDomainsForTopSites hides the given domains from GetTopSites.
func (s *SQLiteStore) BlockDomainsForTopSites(ctx context.Context, domains ...string) error {
	if len(domains) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, d := range domains {
			if _, err := tx.ExecContext(ctx, "INSERT INTO blocked_topsites (domain) VALUES (?)", d); err != nil {
				return errors.Wrapf(err, "block %q", d)
			}
		}
		return nil
	})
}

// RemoveDomainFromBlockedTopSites lets domain appear in top sites again.
func (s *SQLiteStore) RemoveDomainFromBlockedTopSites(ctx context.Context, domain string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM blocked_topsites WHERE domain = ?", domain)
		return errors.Wrap(err, "unblock domain")
	})
}

// RemoveBlockedTopSites clears the block list, but only once at least one
// visit has been recorded.
func (s *SQLiteStore) RemoveBlockedTopSites(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var visits int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&visits); err != nil {
			return errors.Wrap(err, "count visits")
		}
		if visits == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM blocked_topsites")
		return errors.Wrap(err, "clear blocked domains")
	})
}

// RestoreTopSites clears the block list unconditionally.
func (s *SQLiteStore) RestoreTopSites(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM blocked_topsites")
		return errors.Wrap(err, "clear blocked domains")
	})
}

// BlockedDomains lists the distinct blocked domains.
func (s *SQLiteStore) BlockedDomains(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT domain FROM blocked_topsites ORDER BY domain")
	if err != nil {
		return nil, errors.Wrap(err, "query blocked domains")
	}
	defer rows.Close()

	domains := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, errors.Wrap(err, "scan blocked domain")
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// AddQuery appends query to the query log and returns its id.
func (s *SQLiteStore) AddQuery(ctx context.Context, query string, at int64) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO queries (query, time) VALUES (?, ?)", query, at)
		if err != nil {
			return errors.Wrap(err, "insert query")
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

// DeleteQuery removes one query log entry.
func (s *SQLiteStore) DeleteQuery(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM queries WHERE id = ?", id)
		return errors.Wrap(err, "delete query")
	})
}

// RecentQueries returns the newest query log entries first.
func (s *SQLiteStore) RecentQueries(ctx context.Context, limit int) ([]QueryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, query, time FROM queries ORDER BY time DESC, id DESC LIMIT ?", searchLimit(limit),
	)
	if err != nil {
		return nil, errors.Wrap(err, "query log")
	}
	defer rows.Close()

	entries := []QueryEntry{}
	for rows.Next() {
		var q QueryEntry
		if err := rows.Scan(&q.ID, &q.Query, &q.Time); err != nil {
			return nil, errors.Wrap(err, "scan query")
		}
		entries = append(entries, q)
	}
	return entries, rows.Err()
}
