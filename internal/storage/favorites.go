package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// IsFavorite reports whether rawURL is stored and marked favorite.
func (s *SQLiteStore) IsFavorite(ctx context.Context, rawURL string) (bool, error) {
	var n int
	if err := s.isFavorite.QueryRowContext(ctx, rawURL).Scan(&n); err != nil {
		return false, errors.Wrap(err, "check favorite")
	}
	return n > 0, nil
}

// SetFavorite marks or unmarks rawURL. An existing record only has its
// favorite flag and time changed, and is removed when unmarking leaves it
// with no visits. Marking an unknown url creates a record with no visits
// carrying title; unmarking one is a no-op.
func (s *SQLiteStore) SetFavorite(ctx context.Context, rawURL, title string, favTime int64, favorite bool) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE urls SET favorite = ?, fav_time = ? WHERE url = ?",
			favorite, favTime, rawURL,
		)
		if err != nil {
			return errors.Wrap(err, "update favorite")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		// A record with no visits and no favorite flag must not exist.
		if !favorite {
			_, err = tx.ExecContext(ctx,
				"DELETE FROM urls WHERE url = ? AND visits <= 0 AND favorite = 0", rawURL,
			)
			return errors.Wrap(err, "drop unvisited url")
		}
		if n > 0 {
			return nil
		}

		domain, ok := s.domains.extract(rawURL)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO urls (url, domain, title, visits, time, favorite, fav_time)
			 VALUES (?, ?, ?, 0, 0, ?, ?)`,
			rawURL, sql.NullString{String: domain, Valid: ok}, nullString(title), favorite, favTime,
		)
		return errors.Wrap(err, "insert favorite")
	})
}

// Favorites lists favorited urls, oldest favorite first. Rows that cannot be
// read are logged and skipped.
func (s *SQLiteStore) Favorites(ctx context.Context) ([]Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT url, title, fav_time FROM urls WHERE favorite = 1 ORDER BY fav_time ASC, id ASC",
	)
	if err != nil {
		return nil, errors.Wrap(err, "query favorites")
	}
	defer rows.Close()

	favorites := []Favorite{}
	for rows.Next() {
		var f Favorite
		var title sql.NullString
		if err := rows.Scan(&f.URL, &title, &f.Time); err != nil {
			log.WithField("err", err).Warn("skipping unreadable favorite")
			continue
		}
		f.Title = title.String
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}
