package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file (default: XDG config dir)" default:""`
	DB      string `long:"db" description:"Path to the history database, overriding the config"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// VisitCommand — record visits to one or more urls.
type VisitCommand struct {
	Type  string `long:"type" description:"Visit type (link, typed, redirect_temporary, ...)" default:"link"`
	Title string `long:"title" description:"Page title to store with the visit"`

	globals *GlobalFlags
	version string
}

// ObserveCommand — update the title of an already visited url.
type ObserveCommand struct {
	Title string `long:"title" description:"Page title (required)"`

	globals *GlobalFlags
	version string
}

// DeleteVisitCommand — delete the visit of a url at an exact time.
type DeleteVisitCommand struct {
	Time int64 `long:"time" description:"Visit time in epoch milliseconds (required)"`

	globals *GlobalFlags
	version string
}

// HistoryCommand — list visits, newest first.
type HistoryCommand struct {
	Limit  int64 `long:"limit" description:"Maximum visits; negative for all" default:"20"`
	Offset int64 `long:"offset" description:"Skip the newest N visits" default:"0"`

	globals *GlobalFlags
	version string
}

// TopCommand — list the most visited sites.
type TopCommand struct {
	Limit int `long:"limit" description:"Maximum sites (default: top_sites.limit from config)"`

	globals *GlobalFlags
	version string
}

// SearchCommand — search history by url or title.
type SearchCommand struct {
	Mode  string `long:"mode" description:"Search flavour" choice:"history" choice:"suggestions" choice:"contains" default:"history"`
	Limit int    `long:"limit" description:"Maximum results" default:"10"`

	globals *GlobalFlags
	version string
}

// FavoriteCommand — mark or unmark a url as favorite.
type FavoriteCommand struct {
	Title  string `long:"title" description:"Title stored when the url is not yet known"`
	Remove bool   `long:"remove" description:"Unmark instead of mark"`

	globals *GlobalFlags
	version string
}

// FavoritesCommand — list favorites.
type FavoritesCommand struct {
	globals *GlobalFlags
	version string
}

// BlockCommand — hide domains from top sites, or list blocked domains.
type BlockCommand struct {
	globals *GlobalFlags
	version string
}

// UnblockCommand — let domains appear in top sites again.
type UnblockCommand struct {
	All   bool `long:"all" description:"Clear the whole block list (only once history exists)"`
	Force bool `long:"force" description:"With --all, clear the block list even on an empty store"`

	globals *GlobalFlags
	version string
}

// ClearCommand — delete browsing history with safety confirmation.
type ClearCommand struct {
	Favorites bool `long:"favorites" description:"Unmark favorites and drop unvisited urls instead of deleting visits"`
	Force     bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
}

// QueryCommand — manage the search query log.
type QueryCommand struct {
	Add    string `long:"add" description:"Log a search query"`
	Delete int64  `long:"delete" description:"Delete the query log entry with this id"`
	Limit  int    `long:"limit" description:"Maximum entries to list" default:"10"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show database statistics and configuration summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// MigrateCommand — bring the database schema to the current generation.
type MigrateCommand struct {
	globals *GlobalFlags
	version string
}
