package storage

import (
	"context"

	"github.com/pkg/errors"
)

// GetStats returns aggregate statistics about the store.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var err error
	if stats.Generation, err = Generation(ctx, s.db); err != nil {
		return nil, err
	}

	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM urls", &stats.TotalURLs},
		{"SELECT COUNT(*) FROM history", &stats.TotalVisits},
		{"SELECT COUNT(*) FROM urls WHERE favorite = 1", &stats.TotalFavorites},
		{"SELECT COUNT(DISTINCT domain) FROM blocked_topsites", &stats.BlockedDomains},
		{"SELECT COUNT(*) FROM queries", &stats.TotalQueries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, errors.Wrapf(err, "stats (%s)", c.query)
		}
	}

	if stats.FirstVisit, err = s.FirstHistoryItemTimestamp(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, SUM(visits) AS total FROM urls
		WHERE domain IS NOT NULL AND domain != '' AND visits > 0
		GROUP BY domain
		ORDER BY total DESC, domain ASC
		LIMIT 10
	`)
	if err != nil {
		return nil, errors.Wrap(err, "top domains")
	}
	defer rows.Close()

	for rows.Next() {
		var dc DomainCount
		if err := rows.Scan(&dc.Domain, &dc.Visits); err != nil {
			return nil, errors.Wrap(err, "scan top domain")
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}
	return stats, rows.Err()
}
