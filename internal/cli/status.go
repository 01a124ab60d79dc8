package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/runnerr0/histstore/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	Driver            string            `json:"driver"`
	Generation        int               `json:"generation"`
	TotalURLs         int64             `json:"total_urls"`
	TotalVisits       int64             `json:"total_visits"`
	TotalFavorites    int64             `json:"total_favorites"`
	BlockedDomains    int64             `json:"blocked_domains"`
	TotalQueries      int64             `json:"total_queries"`
	FirstVisit        string            `json:"first_visit,omitempty"`
	VisitTypes        []string          `json:"visit_types"`
	TopDomains        []domainCountJSON `json:"top_domains"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Visits int64  `json:"visits"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e)
	})
}

func (c *StatusCommand) run(ctx context.Context, e *env) error {
	stats := e.engine.Stats(ctx)
	if stats == nil {
		return errors.New("statistics are unavailable")
	}
	dbSize := getDatabaseSize(e.store.DB(), e.dbPath)

	if e.json {
		return c.printStatusJSON(e, stats, dbSize)
	}
	return c.printStatusHuman(e, stats, dbSize)
}

func (c *StatusCommand) printStatusHuman(e *env, stats *storage.Stats, dbSize int64) error {
	fmt.Println("histstore status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s, %s)\n", e.dbPath, humanize.Bytes(uint64(dbSize)), e.cfg.Storage.Driver)
	fmt.Printf("Generation:    %d\n", stats.Generation)
	fmt.Printf("URLs:          %s\n", humanize.Comma(stats.TotalURLs))
	fmt.Printf("Visits:        %s\n", humanize.Comma(stats.TotalVisits))
	fmt.Printf("Favorites:     %s\n", humanize.Comma(stats.TotalFavorites))
	fmt.Printf("Blocked:       %s\n", humanize.Comma(stats.BlockedDomains))
	fmt.Printf("Queries:       %s\n", humanize.Comma(stats.TotalQueries))
	if stats.FirstVisit > 0 {
		fmt.Printf("First visit:   %s\n", formatMillis(stats.FirstVisit))
	}
	fmt.Printf("Recording:     %v\n", e.cfg.Recording.VisitTypes)

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-30s %s\n", d.Domain, humanize.Comma(d.Visits))
		}
	}
	return nil
}

func (c *StatusCommand) printStatusJSON(e *env, stats *storage.Stats, dbSize int64) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      e.dbPath,
		DatabaseSizeBytes: dbSize,
		Driver:            e.cfg.Storage.Driver,
		Generation:        stats.Generation,
		TotalURLs:         stats.TotalURLs,
		TotalVisits:       stats.TotalVisits,
		TotalFavorites:    stats.TotalFavorites,
		BlockedDomains:    stats.BlockedDomains,
		TotalQueries:      stats.TotalQueries,
		VisitTypes:        e.cfg.Recording.VisitTypes,
		TopDomains:        make([]domainCountJSON, len(stats.TopDomains)),
	}
	if stats.FirstVisit > 0 {
		out.FirstVisit = time.UnixMilli(stats.FirstVisit).UTC().Format(time.RFC3339)
	}
	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Visits: d.Visits}
	}
	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}
