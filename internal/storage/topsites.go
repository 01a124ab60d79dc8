package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// MaxTopSites bounds the limit accepted by GetTopSites.
const MaxTopSites = 100

// One row per domain (urls without a domain yet stand alone), represented by
// its most visited url, ranked by the domain's summed visits. Urls whose
// domain is already known and blocked are filtered here; urls without a
// domain are checked after backfill.
const topSitesQuery = `
	SELECT id, url, title, domain FROM (
		SELECT id, url, title, domain, time,
			ROW_NUMBER() OVER (
				PARTITION BY COALESCE(NULLIF(domain, ''), url)
				ORDER BY visits DESC, time DESC, id ASC
			) AS rn,
			SUM(visits) OVER (PARTITION BY COALESCE(NULLIF(domain, ''), url)) AS total
		FROM urls
		WHERE visits > 0
			AND (domain IS NULL OR domain = ''
				OR domain NOT IN (SELECT domain FROM blocked_topsites))
	)
	WHERE rn = 1
	ORDER BY total DESC, time DESC, id ASC
`

type topSiteRow struct {
	TopSite
	hasDomain bool
}

// GetTopSites returns up to limit of the most visited sites, limit clamped
// into [1, MaxTopSites]. Rows missing a domain get it derived and persisted;
// if that domain turns out to be blocked, or already listed, the row is
// skipped without using up a slot.
func (s *SQLiteStore) GetTopSites(ctx context.Context, limit int) ([]TopSite, error) {
	if limit < 1 {
		limit = 1
	} else if limit > MaxTopSites {
		limit = MaxTopSites
	}

	sites := make([]TopSite, 0, limit)
	seen := make(map[string]bool)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		candidates, err := queryTopSiteRows(ctx, tx)
		if err != nil {
			return err
		}

		for _, c := range candidates {
			if len(sites) == limit {
				break
			}
			if !c.hasDomain {
				if domain, ok := s.domains.extract(c.URL); ok {
					if _, err := tx.ExecContext(ctx,
						"UPDATE urls SET domain = ? WHERE id = ?", domain, c.ID,
					); err != nil {
						return errors.Wrap(err, "backfill domain")
					}
					blocked, err := isBlocked(ctx, tx, domain)
					if err != nil {
						return err
					}
					if blocked {
						continue
					}
					c.Domain = domain
				}
			}
			// Urls backfilled to a domain already listed stand alone in the
			// query, so drop them here.
			if c.Domain != "" {
				if seen[c.Domain] {
					continue
				}
				seen[c.Domain] = true
			}
			sites = append(sites, c.TopSite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sites, nil
}

func queryTopSiteRows(ctx context.Context, tx *sql.Tx) ([]topSiteRow, error) {
	rows, err := tx.QueryContext(ctx, topSitesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query top sites")
	}
	defer rows.Close()

	var out []topSiteRow
	for rows.Next() {
		var r topSiteRow
		var title, domain sql.NullString
		if err := rows.Scan(&r.ID, &r.URL, &title, &domain); err != nil {
			return nil, errors.Wrap(err, "scan top site")
		}
		r.Title = title.String
		r.Domain = domain.String
		r.hasDomain = domain.String != ""
		out = append(out, r)
	}
	return out, rows.Err()
}

func isBlocked(ctx context.Context, tx *sql.Tx, domain string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM blocked_topsites WHERE domain = ? LIMIT 1", domain,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "check blocked domain")
	}
	return true, nil
}
