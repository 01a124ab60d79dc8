package history

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/histstore/internal/storage"
)

// fixedClock returns a clock that advances by one millisecond per call,
// starting at start.
func fixedClock(start int64) func() time.Time {
	next := start
	return func() time.Time {
		t := time.UnixMilli(next)
		next++
		return t
	}
}

func openTestEngine(t *testing.T, opts ...Option) (*Engine, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:", storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opts = append([]Option{WithClock(fixedClock(1000))}, opts...)
	return New(store, opts...), store
}

func TestEngine_RecordVisitCountsVisits(t *testing.T) {
	e, store := openTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		assert.Greater(t, e.RecordVisit(ctx, "https://www.example.com/a", VisitLink), int64(0))
	}
	assert.Greater(t, e.RecordVisit(ctx, "https://www.example.com/a", VisitTyped), int64(0))

	rec, err := store.GetURL(ctx, "https://www.example.com/a")
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Visits)
	assert.Equal(t, int64(5), e.HistoryItemsCount(ctx))
	assert.Equal(t, int64(1000), e.FirstHistoryItemTimestamp(ctx))
}

func TestEngine_RecordVisitDropsExcludedTypes(t *testing.T) {
	e, _ := openTestEngine(t)
	ctx := context.Background()
	before := testutil.ToFloat64(visitsDropped.WithLabelValues("redirect_temporary"))

	assert.Equal(t, int64(-1), e.RecordVisit(ctx, "https://a.com/", VisitRedirectTemporary))
	assert.Equal(t, int64(-1), e.RecordVisit(ctx, "https://a.com/", VisitReload))

	assert.Zero(t, e.HistoryItemsCount(ctx))
	assert.Equal(t, before+1, testutil.ToFloat64(visitsDropped.WithLabelValues("redirect_temporary")))
}

func TestEngine_RecordVisitConfigurablePolicy(t *testing.T) {
	policy, err := NewPolicy([]string{"link", "redirect_permanent"})
	require.NoError(t, err)
	e, _ := openTestEngine(t, WithPolicy(policy))
	ctx := context.Background()

	assert.Greater(t, e.RecordVisit(ctx, "https://a.com/", VisitRedirectPermanent), int64(0))
	assert.Equal(t, int64(-1), e.RecordVisit(ctx, "https://a.com/", VisitTyped))
	assert.Equal(t, int64(1), e.HistoryItemsCount(ctx))
}

func TestEngine_ObservationAndPagination(t *testing.T) {
	e, _ := openTestEngine(t)
	ctx := context.Background()

	e.RecordObservation(ctx, "https://never.visited/", "Ghost")
	assert.Empty(t, e.GetVisitsPaginated(ctx, 0, 10))

	e.RecordVisit(ctx, "https://a.com/", VisitLink)
	e.RecordVisit(ctx, "https://b.com/", VisitTyped)
	e.RecordObservation(ctx, "https://a.com/", "Alpha")

	visits := e.GetVisitsPaginated(ctx, 0, 10)
	require.Len(t, visits, 2)
	assert.Equal(t, VisitInfo{URL: "https://b.com/", Time: 1001, VisitType: VisitLink}, visits[0])
	assert.Equal(t, VisitInfo{URL: "https://a.com/", Title: "Alpha", Time: 1000, VisitType: VisitLink}, visits[1])

	assert.Empty(t, e.GetVisitsPaginated(ctx, 0, 10, VisitLink))
	assert.Len(t, e.GetVisitsPaginated(ctx, 0, 10, VisitReload), 2)
}

func TestEngine_DeleteVisitAndEverything(t *testing.T) {
	e, store := openTestEngine(t)
	ctx := context.Background()

	e.RecordVisit(ctx, "https://a.com/", VisitLink) // t=1000
	e.RecordVisit(ctx, "https://a.com/", VisitLink) // t=1001
	e.RecordVisit(ctx, "https://b.com/", VisitLink) // t=1002
	e.SetFavorite(ctx, "https://b.com/", "B", 5, true)
	e.AddQuery(ctx, "weather")

	e.DeleteVisit(ctx, "https://a.com/", 1001)
	rec, err := store.GetURL(ctx, "https://a.com/")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Visits)

	e.DeleteEverything(ctx)
	assert.Zero(t, e.HistoryItemsCount(ctx))
	assert.Empty(t, e.RecentQueries(ctx, 10))
	assert.True(t, e.IsFavorite(ctx, "https://b.com/"))
	_, err = store.GetURL(ctx, "https://a.com/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngine_TopSitesAndSuggestions(t *testing.T) {
	e, _ := openTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e.RecordVisit(ctx, "http://www.example.com/a", VisitLink)
	}
	e.RecordVisit(ctx, "http://example.com/b", VisitTyped)
	e.RecordVisit(ctx, "http://ads.net/", VisitLink)

	e.BlockDomainsForTopSites(ctx, "ads.net")
	sites := e.GetTopSites(ctx, 10)
	require.Len(t, sites, 1)
	assert.Equal(t, "example.com", sites[0].Domain)
	assert.Equal(t, []string{"ads.net"}, e.BlockedDomains(ctx))

	e.RemoveDomainFromBlockedTopSites(ctx, "ads.net")
	assert.Len(t, e.GetTopSites(ctx, 10), 2)

	e.BlockDomainsForTopSites(ctx, "ads.net")
	e.RemoveBlockedTopSites(ctx)
	assert.Empty(t, e.BlockedDomains(ctx))

	e.BlockDomainsForTopSites(ctx, "ads.net")
	e.RestoreTopSites(ctx)
	assert.Empty(t, e.BlockedDomains(ctx))

	assert.Len(t, e.GetSuggestions(ctx, "exam", 5), 2)
	assert.Empty(t, e.GetSuggestions(ctx, "zzz", 5))
	assert.Len(t, e.FindItemsContaining(ctx, "example", 0), 2)
	assert.Len(t, e.SearchHistory(ctx, "ads", 0), 1)
}

func TestEngine_FavoritesAndQueries(t *testing.T) {
	e, _ := openTestEngine(t)
	ctx := context.Background()

	e.SetFavorite(ctx, "https://fav.com/", "Fav", 42, true)
	assert.True(t, e.IsFavorite(ctx, "https://fav.com/"))
	assert.Equal(t, []storage.Favorite{{URL: "https://fav.com/", Title: "Fav", Time: 42}}, e.Favorites(ctx))

	e.SetFavorite(ctx, "https://fav.com/", "Fav", 42, false)
	assert.False(t, e.IsFavorite(ctx, "https://fav.com/"))
	assert.Empty(t, e.Favorites(ctx))

	assert.Equal(t, int64(-1), e.AddQuery(ctx, ""))
	id := e.AddQuery(ctx, "golang")
	assert.Greater(t, id, int64(0))
	require.Len(t, e.RecentQueries(ctx, 5), 1)
	e.DeleteQuery(ctx, id)
	assert.Empty(t, e.RecentQueries(ctx, 5))

	stats := e.Stats(ctx)
	require.NotNil(t, stats)
	assert.Equal(t, storage.CurrentGeneration, stats.Generation)
}

func TestEngine_UnmarkingUnvisitedFavoriteDropsRecord(t *testing.T) {
	e, store := openTestEngine(t)
	ctx := context.Background()

	e.SetFavorite(ctx, "https://fav.com/", "Fav", 42, true)
	e.RecordVisit(ctx, "https://seen.com/", VisitLink)
	e.SetFavorite(ctx, "https://seen.com/", "Seen", 43, true)

	e.SetFavorite(ctx, "https://fav.com/", "Fav", 42, false)
	e.SetFavorite(ctx, "https://seen.com/", "Seen", 43, false)

	_, err := store.GetURL(ctx, "https://fav.com/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	rec, err := store.GetURL(ctx, "https://seen.com/")
	require.NoError(t, err)
	assert.False(t, rec.Favorite)
	assert.Equal(t, int64(1), rec.Visits)
}

func TestEngine_UpdateTitleFor(t *testing.T) {
	e, store := openTestEngine(t)
	ctx := context.Background()

	id := e.RecordVisit(ctx, "https://a.com/", VisitLink)
	e.UpdateTitleFor(ctx, id, "Alpha")

	rec, err := store.GetURL(ctx, "https://a.com/")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", rec.Title)
}

// assertEmptyResults checks that every operation of e degrades to its empty
// result.
func assertEmptyResults(t *testing.T, e *Engine) {
	t.Helper()
	ctx := context.Background()

	assert.Equal(t, int64(-1), e.RecordVisit(ctx, "https://a.com/", VisitLink))
	assert.Equal(t, int64(-1), e.AddQuery(ctx, "q"))
	assert.Equal(t, int64(-1), e.FirstHistoryItemTimestamp(ctx))
	assert.Zero(t, e.HistoryItemsCount(ctx))
	assert.False(t, e.IsFavorite(ctx, "https://a.com/"))
	assert.Empty(t, e.GetTopSites(ctx, 10))
	assert.Empty(t, e.GetSuggestions(ctx, "a", 5))
	assert.Empty(t, e.SearchHistory(ctx, "a", 5))
	assert.Empty(t, e.FindItemsContaining(ctx, "a", 5))
	assert.Empty(t, e.GetVisitsPaginated(ctx, 0, 10))
	assert.Empty(t, e.Favorites(ctx))
	assert.Empty(t, e.BlockedDomains(ctx))
	assert.Empty(t, e.RecentQueries(ctx, 5))
	assert.Nil(t, e.Stats(ctx))

	assert.NotPanics(t, func() {
		e.RecordObservation(ctx, "https://a.com/", "A")
		e.DeleteVisit(ctx, "https://a.com/", 1)
		e.DeleteEverything(ctx)
		e.ClearHistory(ctx, true)
		e.UpdateTitleFor(ctx, 1, "A")
		e.SetFavorite(ctx, "https://a.com/", "A", 1, true)
		e.BlockDomainsForTopSites(ctx, "a.com")
		e.RemoveDomainFromBlockedTopSites(ctx, "a.com")
		e.RemoveBlockedTopSites(ctx)
		e.RestoreTopSites(ctx)
		e.DeleteQuery(ctx, 1)
	})
}

func TestEngine_NilBackendIsEmpty(t *testing.T) {
	e := New(nil)
	assert.False(t, e.Available())

	before := testutil.ToFloat64(operationFailures.WithLabelValues("top_sites"))
	assertEmptyResults(t, e)
	assert.Equal(t, before+1, testutil.ToFloat64(operationFailures.WithLabelValues("top_sites")))
}

func TestEngine_ClosedStoreIsEmpty(t *testing.T) {
	e, store := openTestEngine(t)
	require.NoError(t, store.Close())
	assert.True(t, e.Available())

	before := testutil.ToFloat64(operationFailures.WithLabelValues("record_visit"))
	assertEmptyResults(t, e)
	assert.Equal(t, before+1, testutil.ToFloat64(operationFailures.WithLabelValues("record_visit")))
}

func TestEngine_StubsAreEmpty(t *testing.T) {
	e, _ := openTestEngine(t)
	ctx := context.Background()
	e.RecordVisit(ctx, "https://a.com/", VisitLink)

	e.DeleteVisitsBetween(ctx, 0, 1<<62)
	e.DeleteVisitsFor(ctx, "https://a.com/")
	e.DeleteVisitsSince(ctx, 0)
	e.Prune(ctx)
	e.RunMaintenance(ctx)
	e.Cleanup()

	assert.Equal(t, int64(1), e.HistoryItemsCount(ctx), "stubs never delete")
	assert.Empty(t, e.GetDetailedVisits(ctx, 0, 1<<62))
	assert.Empty(t, e.GetVisited(ctx))
	assert.Empty(t, e.GetVisitedURIs(ctx, []string{"https://a.com/"}))
	assert.Nil(t, e.GetAutocompleteSuggestion(ctx, "a"))
}
