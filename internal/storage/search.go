package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
)

// MinSearchLimit replaces non-positive search limits.
const MinSearchLimit = 5

const (
	containsQuery = `
		SELECT url, title FROM urls
		WHERE url LIKE ?1 ESCAPE '\' OR title LIKE ?1 ESCAPE '\'
		ORDER BY visits DESC, time DESC, id ASC
		LIMIT ?2
	`

	// Domain and title prefix hits rank ahead of plain substring hits.
	historySearchQuery = `
		SELECT url, title FROM urls
		WHERE url LIKE ?1 ESCAPE '\' OR title LIKE ?1 ESCAPE '\' OR domain LIKE ?1 ESCAPE '\'
		ORDER BY
			CASE
				WHEN domain LIKE ?2 ESCAPE '\' THEN 0
				WHEN title LIKE ?2 ESCAPE '\' THEN 1
				ELSE 2
			END,
			visits DESC, time DESC, id ASC
		LIMIT ?3
	`
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains and likePrefix build LIKE patterns that treat q literally.
func likeContains(q string) string { return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%" }
func likePrefix(q string) string   { return likeEscaper.Replace(strings.ToLower(q)) + "%" }

func searchLimit(limit int) int {
	if limit <= 0 {
		return MinSearchLimit
	}
	return limit
}

// GetSuggestions returns urls whose url or title contains query,
// case-insensitively, most visited first. An empty query yields no results.
func (s *SQLiteStore) GetSuggestions(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	items, err := s.FindItemsContaining(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	results := make([]SearchResult, 0, len(items))
	for _, it := range items {
		results = append(results, SearchResult{ID: it.URL, URL: it.URL, Score: 0, Title: it.Title})
	}
	return results, nil
}

// FindItemsContaining returns url/title pairs whose url or title contains
// query. SQLite's LIKE folds ASCII case only: a lower-cased "über" misses a
// stored "Über".
func (s *SQLiteStore) FindItemsContaining(ctx context.Context, query string, limit int) ([]HistoryItem, error) {
	if query == "" {
		return []HistoryItem{}, nil
	}
	return s.scanItems(ctx, containsQuery, likeContains(query), searchLimit(limit))
}

// SearchHistory is the history-screen search: like FindItemsContaining but
// also matching domains, with domain and title prefix matches first.
func (s *SQLiteStore) SearchHistory(ctx context.Context, query string, limit int) ([]HistoryItem, error) {
	if query == "" {
		return []HistoryItem{}, nil
	}
	return s.scanItems(ctx, historySearchQuery, likeContains(query), likePrefix(query), searchLimit(limit))
}

func (s *SQLiteStore) scanItems(ctx context.Context, query string, args ...interface{}) ([]HistoryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "search urls")
	}
	defer rows.Close()

	items := []HistoryItem{}
	for rows.Next() {
		var it HistoryItem
		var title sql.NullString
		if err := rows.Scan(&it.URL, &title); err != nil {
			return nil, errors.Wrap(err, "scan search result")
		}
		it.Title = title.String
		items = append(items, it)
	}
	return items, rows.Err()
}
