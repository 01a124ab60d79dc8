// Package history is the host-facing browsing history contract. Engine wraps
// a storage backend and never fails its caller: an unavailable backend or any
// storage error is logged, counted, and turned into the operation's empty
// result (an empty slice, -1, false, or nothing at all).
package history

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/runnerr0/histstore/internal/storage"
)

// Backend is the storage the Engine drives. *storage.SQLiteStore implements
// it.
type Backend interface {
	VisitURL(ctx context.Context, rawURL, title string, at int64) (int64, error)
	UpdateMetadata(ctx context.Context, rawURL, title string) (bool, error)
	DeleteVisit(ctx context.Context, rawURL string, at int64) (bool, error)
	UpdateTitleFor(ctx context.Context, visitID int64, title string) error
	GetVisitsPaginated(ctx context.Context, offset, count int64) ([]storage.Visit, error)
	HistoryItemsCount(ctx context.Context) (int64, error)
	FirstHistoryItemTimestamp(ctx context.Context) (int64, error)

	GetTopSites(ctx context.Context, limit int) ([]storage.TopSite, error)

	GetSuggestions(ctx context.Context, query string, limit int) ([]storage.SearchResult, error)
	SearchHistory(ctx context.Context, query string, limit int) ([]storage.HistoryItem, error)
	FindItemsContaining(ctx context.Context, query string, limit int) ([]storage.HistoryItem, error)

	IsFavorite(ctx context.Context, rawURL string) (bool, error)
	SetFavorite(ctx context.Context, rawURL, title string, favTime int64, favorite bool) error
	Favorites(ctx context.Context) ([]storage.Favorite, error)

	ClearHistory(ctx context.Context, deleteFavorites bool) error
	BlockDomainsForTopSites(ctx context.Context, domains ...string) error
	RemoveDomainFromBlockedTopSites(ctx context.Context, domain string) error
	RemoveBlockedTopSites(ctx context.Context) error
	RestoreTopSites(ctx context.Context) error
	BlockedDomains(ctx context.Context) ([]string, error)
	AddQuery(ctx context.Context, query string, at int64) (int64, error)
	DeleteQuery(ctx context.Context, id int64) error
	RecentQueries(ctx context.Context, limit int) ([]storage.QueryEntry, error)

	GetStats(ctx context.Context) (*storage.Stats, error)
}

var _ Backend = (*storage.SQLiteStore)(nil)

// ErrUnavailable is reported (to logs and metrics only) when the engine has
// no backend.
var ErrUnavailable = errors.New("history store unavailable")

// VisitInfo is one entry of the paginated visit listing.
type VisitInfo struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Time      int64     `json:"time"`
	VisitType VisitType `json:"visit_type"`
}

// Engine implements the history contract on top of a Backend.
type Engine struct {
	backend Backend
	policy  Policy
	now     func() time.Time
	log     *log.Entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets which visit types RecordVisit stores.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock replaces time.Now as the source of visit and query timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an Engine over backend. A nil backend yields an engine on which
// every operation returns its empty result.
func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		policy:  DefaultPolicy(),
		now:     time.Now,
		log:     log.WithField("component", "history"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether the engine has a backend.
func (e *Engine) Available() bool { return e.backend != nil }

func (e *Engine) millis() int64 { return e.now().UnixMilli() }

// begin starts timing op and reports whether a backend is present. When it
// is not, the miss is logged and counted as a failure of op.
func (e *Engine) begin(op string) (*prometheus.Timer, bool) {
	timer := prometheus.NewTimer(operationDuration.WithLabelValues(op))
	if e.backend == nil {
		e.fail(op, ErrUnavailable, nil)
		return timer, false
	}
	return timer, true
}

func (e *Engine) fail(op string, err error, fields log.Fields) {
	operationFailures.WithLabelValues(op).Inc()
	entry := e.log.WithFields(fields).WithFields(log.Fields{"op": op, "err": err})
	if err == ErrUnavailable {
		entry.Debug("history operation skipped")
		return
	}
	entry.Warn("history operation failed")
}

// Records reports whether visits of type t are stored by RecordVisit.
func (e *Engine) Records(t VisitType) bool { return e.policy.Allows(t) }

// RecordVisit stores a visit to url at the current time when the policy
// accepts visitType. It returns the visit id, or -1 when nothing was stored.
func (e *Engine) RecordVisit(ctx context.Context, url string, visitType VisitType) int64 {
	if !e.policy.Allows(visitType) {
		visitsDropped.WithLabelValues(visitType.String()).Inc()
		return -1
	}
	timer, ok := e.begin("record_visit")
	defer timer.ObserveDuration()
	if !ok {
		return -1
	}

	id, err := e.backend.VisitURL(ctx, url, "", e.millis())
	if err != nil {
		e.fail("record_visit", err, log.Fields{"url": url, "type": visitType})
		return -1
	}
	visitsRecorded.WithLabelValues(visitType.String()).Inc()
	return id
}

// RecordObservation updates the title and domain of an already visited url.
func (e *Engine) RecordObservation(ctx context.Context, url, title string) {
	timer, ok := e.begin("record_observation")
	defer timer.ObserveDuration()
	if !ok {
		return
	}
	if _, err := e.backend.UpdateMetadata(ctx, url, title); err != nil {
		e.fail("record_observation", err, log.Fields{"url": url})
	}
}

// DeleteVisit removes the visit of url recorded at timestamp (epoch millis).
func (e *Engine) DeleteVisit(ctx context.Context, url string, timestamp int64) {
	timer, ok := e.begin("delete_visit")
	defer timer.ObserveDuration()
	if !ok {
		return
	}
	if _, err := e.backend.DeleteVisit(ctx, url, timestamp); err != nil {
		e.fail("delete_visit", err, log.Fields{"url": url, "time": timestamp})
	}
}

// DeleteEverything clears history, keeping favorites.
func (e *Engine) DeleteEverything(ctx context.Context) {
	e.ClearHistory(ctx, false)
}

// UpdateTitleFor sets the title of the url owning visitID.
func (e *Engine) UpdateTitleFor(ctx context.Context, visitID int64, title string) {
	timer, ok := e.begin("update_title")
	defer timer.ObserveDuration()
	if !ok {
		return
	}
	if err := e.backend.UpdateTitleFor(ctx, visitID, title); err != nil {
		e.fail("update_title", err, log.Fields{"visit_id": visitID})
	}
}

// GetVisitsPaginated lists visits newest first. Stored visits carry no type
// and are reported as links, so excluding VisitLink yields nothing.
func (e *Engine) GetVisitsPaginated(ctx context.Context, offset, count int64, exclude ...VisitType) []VisitInfo {
	for _, t := range exclude {
		if t == VisitLink {
			return []VisitInfo{}
		}
	}
	timer, ok := e.begin("get_visits")
	defer timer.ObserveDuration()
	if !ok {
		return []VisitInfo{}
	}

	visits, err := e.backend.GetVisitsPaginated(ctx, offset, count)
	if err != nil {
		e.fail("get_visits", err, log.Fields{"offset": offset, "count": count})
		return []VisitInfo{}
	}
	out := make([]VisitInfo, 0, len(visits))
	for _, v := range visits {
		out = append(out, VisitInfo{URL: v.URL, Title: v.Title, Time: v.Time, VisitType: VisitLink})
	}
	return out
}

// HistoryItemsCount returns the number of stored visits, 0 on failure.
func (e *Engine) HistoryItemsCount(ctx context.Context) int64 {
	timer, ok := e.begin("count_visits")
	defer timer.ObserveDuration()
	if !ok {
		return 0
	}
	n, err := e.backend.HistoryItemsCount(ctx)
	if err != nil {
		e.fail("count_visits", err, nil)
		return 0
	}
	return n
}

// FirstHistoryItemTimestamp returns the time of the oldest visit, or -1.
func (e *Engine) FirstHistoryItemTimestamp(ctx context.Context) int64 {
	timer, ok := e.begin("first_visit")
	defer timer.ObserveDuration()
	if !ok {
		return -1
	}
	ts, err := e.backend.FirstHistoryItemTimestamp(ctx)
	if err != nil {
		e.fail("first_visit", err, nil)
		return -1
	}
	return ts
}

// GetTopSites returns up to limit of the most visited sites, one per domain.
func (e *Engine) GetTopSites(ctx context.Context, limit int) []storage.TopSite {
	timer, ok := e.begin("top_sites")
	defer timer.ObserveDuration()
	if !ok {
		return []storage.TopSite{}
	}
	sites, err := e.backend.GetTopSites(ctx, limit)
	if err != nil {
		e.fail("top_sites", err, log.Fields{"limit": limit})
		return []storage.TopSite{}
	}
	return sites
}

// GetSuggestions returns urls or titles containing query, most visited first.
func (e *Engine) GetSuggestions(ctx context.Context, query string, limit int) []storage.SearchResult {
	timer, ok := e.begin("suggestions")
	defer timer.ObserveDuration()
	if !ok {
		return []storage.SearchResult{}
	}
	results, err := e.backend.GetSuggestions(ctx, query, limit)
	if err != nil {
		e.fail("suggestions", err, log.Fields{"query": query})
		return []storage.SearchResult{}
	}
	return results
}

// SearchHistory is the history screen search.
func (e *Engine) SearchHistory(ctx context.Context, query string, limit int) []storage.HistoryItem {
	return e.items(ctx, "search_history", func(b Backend) itemSearch { return b.SearchHistory }, query, limit)
}

// FindItemsContaining returns url/title pairs containing query. Matching is
// case-insensitive for ASCII only, so "über" does not match "Über".
func (e *Engine) FindItemsContaining(ctx context.Context, query string, limit int) []storage.HistoryItem {
	return e.items(ctx, "find_items", func(b Backend) itemSearch { return b.FindItemsContaining }, query, limit)
}

type itemSearch func(ctx context.Context, query string, limit int) ([]storage.HistoryItem, error)

// items runs one of the backend's item searches. The method is picked only
// once a backend is known to exist.
func (e *Engine) items(ctx context.Context, op string, pick func(Backend) itemSearch, query string, limit int) []storage.HistoryItem {
	timer, ok := e.begin(op)
	defer timer.ObserveDuration()
	if !ok {
		return []storage.HistoryItem{}
	}
	items, err := pick(e.backend)(ctx, query, limit)
	if err != nil {
		e.fail(op, err, log.Fields{"query": query})
		return []storage.HistoryItem{}
	}
	return items
}

// IsFavorite reports whether url is a favorite. False on failure.
func (e *Engine) IsFavorite(ctx context.Context, url string) bool {
	timer, ok := e.begin("is_favorite")
	defer timer.ObserveDuration()
	if !ok {
		return false
	}
	fav, err := e.backend.IsFavorite(ctx, url)
	if err != nil {
		e.fail("is_favorite", err, log.Fields{"url": url})
		return false
	}
	return fav
}

// SetFavorite marks or unmarks url as a favorite at favTime (epoch millis).
// Unmarking a url that has no visits deletes its record rather than leaving
// a row that is neither visited nor a favorite.
func (e *Engine) SetFavorite(ctx context.Context, url, title string, favTime int64, favorite bool) {
	timer, ok := e.begin("set_favorite")
	defer timer.ObserveDuration()
	if !ok {
		return
	}
	if err := e.backend.SetFavorite(ctx, url, title, favTime, favorite); err != nil {
		e.fail("set_favorite", err, log.Fields{"url": url, "favorite": favorite})
	}
}

// Favorites lists favorites, oldest first.
func (e *Engine) Favorites(ctx context.Context) []storage.Favorite {
	timer, ok := e.begin("favorites")
	defer timer.ObserveDuration()
	if !ok {
		return []storage.Favorite{}
	}
	favs, err := e.backend.Favorites(ctx)
	if err != nil {
		e.fail("favorites", err, nil)
		return []storage.Favorite{}
	}
	return favs
}

// ClearHistory wipes visits and queries. See storage.SQLiteStore.ClearHistory
// for what happens to favorites.
func (e *Engine) ClearHistory(ctx context.Context, deleteFavorites bool) {
	timer, ok := e.begin("clear_history")
	defer timer.ObserveDuration()
	if !ok {
		return
	}
	if err := e.backend.ClearHistory(ctx, deleteFavorites); err != nil {
		e.fail("clear_history", err, log.Fields{"delete_favorites": deleteFavorites})
		return
	}
	e.log.WithField("delete_favorites", deleteFavorites).Info("cleared history")
}

// BlockDomainsForTopSites hides domains from GetTopSites.
func (e *Engine) BlockDomainsForTopSites(ctx context.Context, domains ...string) {
	e.exec(ctx, "block_domains", func(ctx context.Context) error {
		return e.backend.BlockDomainsForTopSites(ctx, domains...)
	}, log.Fields{"domains": domains})
}

// RemoveDomainFromBlockedTopSites unblocks domain.
func (e *Engine) RemoveDomainFromBlockedTopSites(ctx context.Context, domain string) {
	e.exec(ctx, "unblock_domain", func(ctx context.Context) error {
		return e.backend.RemoveDomainFromBlockedTopSites(ctx, domain)
	}, log.Fields{"domain": domain})
}

// RemoveBlockedTopSites clears the block list once any visit exists.
func (e *Engine) RemoveBlockedTopSites(ctx context.Context) {
	e.exec(ctx, "remove_blocked", func(ctx context.Context) error {
		return e.backend.RemoveBlockedTopSites(ctx)
	}, nil)
}

// RestoreTopSites clears the block list unconditionally.
func (e *Engine) RestoreTopSites(ctx context.Context) {
	e.exec(ctx, "restore_top_sites", func(ctx context.Context) error {
		return e.backend.RestoreTopSites(ctx)
	}, nil)
}

// DeleteQuery removes a query log entry.
func (e *Engine) DeleteQuery(ctx context.Context, id int64) {
	e.exec(ctx, "delete_query", func(ctx context.Context) error {
		return e.backend.DeleteQuery(ctx, id)
	}, log.Fields{"id": id})
}

func (e *Engine) exec(ctx context.Context, op string, fn func(context.Context) error, fields log.Fields) {
	timer, ok := e.begin(op)
	defer timer.ObserveDuration()
	if !ok {
		return
	}
	if err := fn(ctx); err != nil {
		e.fail(op, err, fields)
	}
}

// BlockedDomains lists blocked domains.
func (e *Engine) BlockedDomains(ctx context.Context) []string {
	timer, ok := e.begin("blocked_domains")
	defer timer.ObserveDuration()
	if !ok {
		return []string{}
	}
	domains, err := e.backend.BlockedDomains(ctx)
	if err != nil {
		e.fail("blocked_domains", err, nil)
		return []string{}
	}
	return domains
}

// AddQuery logs a search query at the current time and returns its id, or
// -1. Empty queries are not logged.
func (e *Engine) AddQuery(ctx context.Context, query string) int64 {
	if query == "" {
		return -1
	}
	timer, ok := e.begin("add_query")
	defer timer.ObserveDuration()
	if !ok {
		return -1
	}
	id, err := e.backend.AddQuery(ctx, query, e.millis())
	if err != nil {
		e.fail("add_query", err, log.Fields{"query": query})
		return -1
	}
	return id
}

// RecentQueries returns the newest logged queries.
func (e *Engine) RecentQueries(ctx context.Context, limit int) []storage.QueryEntry {
	timer, ok := e.begin("recent_queries")
	defer timer.ObserveDuration()
	if !ok {
		return []storage.QueryEntry{}
	}
	entries, err := e.backend.RecentQueries(ctx, limit)
	if err != nil {
		e.fail("recent_queries", err, nil)
		return []storage.QueryEntry{}
	}
	return entries
}

// Stats returns store statistics, or nil when they cannot be read.
func (e *Engine) Stats(ctx context.Context) *storage.Stats {
	timer, ok := e.begin("stats")
	defer timer.ObserveDuration()
	if !ok {
		return nil
	}
	stats, err := e.backend.GetStats(ctx)
	if err != nil {
		e.fail("stats", err, nil)
		return nil
	}
	return stats
}
