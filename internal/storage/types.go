package storage

// URLRecord is a row of the urls table: one per distinct URL that has been
// visited or favorited.
type URLRecord struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Domain    string `json:"domain"`
	Title     string `json:"title"`
	Visits    int64  `json:"visits"`
	LastVisit int64  `json:"last_visit"` // epoch millis
	Favorite  bool   `json:"favorite"`
	FavTime   int64  `json:"fav_time"` // epoch millis, only meaningful when Favorite
}

// Visit is a single recorded navigation, joined with its URL record.
type Visit struct {
	ID    int64  `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Time  int64  `json:"time"` // epoch millis
}

// TopSite is one entry of the ranked top-sites list.
type TopSite struct {
	ID     int64  `json:"id"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Title  string `json:"title"`
}

// SearchResult is a suggestion returned by GetSuggestions. The ranking
// queries do not compute a score, so Score is always zero.
type SearchResult struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Score int    `json:"score"`
	Title string `json:"title"`
}

// HistoryItem is a url/title pair returned by the history search variants.
type HistoryItem struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Favorite is a favorited URL with the time it was marked.
type Favorite struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Time  int64  `json:"time"` // epoch millis
}

// QueryEntry is a row of the query log.
type QueryEntry struct {
	ID    int64  `json:"id"`
	Query string `json:"query"`
	Time  int64  `json:"time"` // epoch millis
}

// Stats holds aggregate counts about the history store.
type Stats struct {
	Generation     int           `json:"generation"`
	TotalURLs      int64         `json:"total_urls"`
	TotalVisits    int64         `json:"total_visits"`
	TotalFavorites int64         `json:"total_favorites"`
	BlockedDomains int64         `json:"blocked_domains"`
	TotalQueries   int64         `json:"total_queries"`
	FirstVisit     int64         `json:"first_visit"` // epoch millis, -1 when empty
	TopDomains     []DomainCount `json:"top_domains"`
}

// DomainCount pairs a domain with its summed visit count.
type DomainCount struct {
	Domain string `json:"domain"`
	Visits int64  `json:"visits"`
}
