package storage

import (
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

const domainCacheSize = 1024

// ExtractDomain returns the lower-cased host of rawURL with a leading "www."
// removed. ok is false when the url has no host.
func ExtractDomain(rawURL string) (domain string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", false
	}
	return strings.TrimPrefix(host, "www."), true
}

// domainCache memoises ExtractDomain; the same urls are visited and ranked
// over and over.
type domainCache struct {
	cache *lru.Cache
}

func newDomainCache(size int) *domainCache {
	cache, err := lru.New(size)
	if err != nil {
		panic(err.Error()) // Only errors on size <= 0.
	}
	return &domainCache{cache: cache}
}

type cachedDomain struct {
	domain string
	ok     bool
}

func (c *domainCache) extract(rawURL string) (string, bool) {
	if v, ok := c.cache.Get(rawURL); ok {
		d := v.(cachedDomain)
		return d.domain, d.ok
	}
	domain, ok := ExtractDomain(rawURL)
	c.cache.Add(rawURL, cachedDomain{domain: domain, ok: ok})
	return domain, ok
}
