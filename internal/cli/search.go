package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/histstore/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args)
	})
}

func (c *SearchCommand) run(ctx context.Context, e *env, args []string) error {
	query := strings.Join(args, " ")

	var items []storage.HistoryItem
	switch c.Mode {
	case "suggestions":
		for _, r := range e.engine.GetSuggestions(ctx, query, c.Limit) {
			items = append(items, storage.HistoryItem{URL: r.URL, Title: r.Title})
		}
	case "contains":
		items = e.engine.FindItemsContaining(ctx, query, c.Limit)
	default:
		items = e.engine.SearchHistory(ctx, query, c.Limit)
	}
	if items == nil {
		items = []storage.HistoryItem{}
	}

	if e.json {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Printf("No results for %q.\n", query)
		return nil
	}

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Title, it.URL})
	}
	return renderTable([]string{"Title", "URL"}, rows)
}
