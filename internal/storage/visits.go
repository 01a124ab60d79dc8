package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// VisitURL records one visit to rawURL at the given epoch-millis time and
// returns the new visit id. The url record is created with one visit, or has
// its counter incremented and its domain and last-visit time overwritten. A
// non-empty title replaces the stored one.
func (s *SQLiteStore) VisitURL(ctx context.Context, rawURL, title string, at int64) (int64, error) {
	domain, ok := s.domains.extract(rawURL)
	dom := sql.NullString{String: domain, Valid: ok}

	var visitID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var urlID int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM urls WHERE url = ? LIMIT 1", rawURL).Scan(&urlID)

		switch {
		case err == sql.ErrNoRows:
			res, err := tx.ExecContext(ctx,
				`INSERT INTO urls (url, domain, title, visits, time) VALUES (?, ?, ?, 1, ?)`,
				rawURL, dom, nullString(title), at,
			)
			if err != nil {
				return errors.Wrap(err, "insert url")
			}
			if urlID, err = res.LastInsertId(); err != nil {
				return err
			}
		case err != nil:
			return errors.Wrap(err, "find url")
		default:
			if _, err := tx.ExecContext(ctx,
				`UPDATE urls SET visits = visits + 1, domain = ?, time = ?, title = COALESCE(?, title)
				 WHERE id = ?`,
				dom, at, nullString(title), urlID,
			); err != nil {
				return errors.Wrap(err, "update url")
			}
		}

		res, err := tx.ExecContext(ctx, "INSERT INTO history (url_id, time) VALUES (?, ?)", urlID, at)
		if err != nil {
			return errors.Wrap(err, "insert visit")
		}
		visitID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return -1, err
	}
	return visitID, nil
}

// UpdateMetadata overwrites the title (when non-empty) and domain of an
// existing url record. It never creates a record or a visit; it reports
// whether a record was updated.
func (s *SQLiteStore) UpdateMetadata(ctx context.Context, rawURL, title string) (bool, error) {
	domain, ok := s.domains.extract(rawURL)

	var updated bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE urls SET title = COALESCE(?, title), domain = ? WHERE url = ?",
			nullString(title), sql.NullString{String: domain, Valid: ok}, rawURL,
		)
		if err != nil {
			return errors.Wrap(err, "update metadata")
		}
		n, err := res.RowsAffected()
		updated = n > 0
		return err
	})
	return updated, err
}

// DeleteVisit removes the visit of rawURL recorded at the given time. The
// owning url record loses one visit and is removed once it has none left,
// unless it is a favorite. It reports whether a visit was found.
func (s *SQLiteStore) DeleteVisit(ctx context.Context, rawURL string, at int64) (bool, error) {
	var found bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var visitID, urlID, visits int64
		var favorite bool

		err := tx.QueryRowContext(ctx, `
			SELECT h.id, u.id, u.visits, u.favorite
			FROM history h
			JOIN urls u ON u.id = h.url_id
			WHERE u.url = ? AND h.time = ?
			ORDER BY h.id
			LIMIT 1
		`, rawURL, at).Scan(&visitID, &urlID, &visits, &favorite)
		if err == sql.ErrNoRows {
			return nil
		} else if err != nil {
			return errors.Wrap(err, "find visit")
		}
		found = true

		if _, err := tx.ExecContext(ctx, "DELETE FROM history WHERE id = ?", visitID); err != nil {
			return errors.Wrap(err, "delete visit")
		}

		remaining := visits - 1
		if remaining <= 0 && !favorite {
			_, err = tx.ExecContext(ctx, "DELETE FROM urls WHERE id = ?", urlID)
			return errors.Wrap(err, "delete url")
		}
		if remaining < 0 {
			remaining = 0
		}
		_, err = tx.ExecContext(ctx, "UPDATE urls SET visits = ? WHERE id = ?", remaining, urlID)
		return errors.Wrap(err, "update visit count")
	})
	return found, err
}

// UpdateTitleFor sets the title of the url owning the given visit.
func (s *SQLiteStore) UpdateTitleFor(ctx context.Context, visitID int64, title string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"UPDATE urls SET title = ? WHERE id = (SELECT url_id FROM history WHERE id = ?)",
			title, visitID,
		)
		return errors.Wrap(err, "update title")
	})
}

// GetVisitsPaginated lists visits newest first. A negative count means no
// limit.
func (s *SQLiteStore) GetVisitsPaginated(ctx context.Context, offset, count int64) ([]Visit, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT h.id, u.url, u.title, h.time
		FROM history h
		JOIN urls u ON u.id = h.url_id
		ORDER BY h.time DESC, h.id DESC
		LIMIT ? OFFSET ?
	`, count, offset)
	if err != nil {
		return nil, errors.Wrap(err, "query visits")
	}
	defer rows.Close()

	visits := []Visit{}
	for rows.Next() {
		var v Visit
		var title sql.NullString
		if err := rows.Scan(&v.ID, &v.URL, &title, &v.Time); err != nil {
			return nil, errors.Wrap(err, "scan visit")
		}
		v.Title = title.String
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// HistoryItemsCount returns the number of recorded visits.
func (s *SQLiteStore) HistoryItemsCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.countVisit.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count visits")
	}
	return n, nil
}

// FirstHistoryItemTimestamp returns the time of the oldest visit, or -1 when
// there are none.
func (s *SQLiteStore) FirstHistoryItemTimestamp(ctx context.Context) (int64, error) {
	var ts int64
	err := s.db.QueryRowContext(ctx, "SELECT time FROM history ORDER BY time ASC LIMIT 1").Scan(&ts)
	if err == sql.ErrNoRows {
		return -1, nil
	} else if err != nil {
		return -1, errors.Wrap(err, "first visit")
	}
	return ts, nil
}
