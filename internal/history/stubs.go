package history

import "context"

// The operations below belong to the host contract but have no backing
// storage yet. They always return an empty result and never fail.

// DeleteVisitsBetween is not implemented; it does nothing.
func (e *Engine) DeleteVisitsBetween(ctx context.Context, start, end int64) {}

// DeleteVisitsFor is not implemented; it does nothing.
func (e *Engine) DeleteVisitsFor(ctx context.Context, url string) {}

// DeleteVisitsSince is not implemented; it does nothing.
func (e *Engine) DeleteVisitsSince(ctx context.Context, since int64) {}

// GetDetailedVisits is not implemented; it returns no visits.
func (e *Engine) GetDetailedVisits(ctx context.Context, start, end int64, exclude ...VisitType) []VisitInfo {
	return []VisitInfo{}
}

// GetVisited is not implemented; it returns no urls.
func (e *Engine) GetVisited(ctx context.Context) []string { return []string{} }

// GetVisitedURIs is not implemented; it returns an empty slice rather than
// one entry per uri.
func (e *Engine) GetVisitedURIs(ctx context.Context, uris []string) []bool { return []bool{} }

// AutocompleteResult is a url completion for typed input.
type AutocompleteResult struct {
	Input string
	Text  string
	URL   string
}

// GetAutocompleteSuggestion is not implemented; it never suggests.
func (e *Engine) GetAutocompleteSuggestion(ctx context.Context, input string) *AutocompleteResult {
	return nil
}

// Prune is not implemented; it does nothing.
func (e *Engine) Prune(ctx context.Context) {}

// RunMaintenance is not implemented; it does nothing.
func (e *Engine) RunMaintenance(ctx context.Context) {}

// Cleanup is not implemented; it does nothing.
func (e *Engine) Cleanup() {}
