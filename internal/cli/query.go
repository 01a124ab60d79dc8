package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for QueryCommand.
func (c *QueryCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e)
	})
}

func (c *QueryCommand) run(ctx context.Context, e *env) error {
	if c.Add != "" && c.Delete != 0 {
		return errors.New("--add and --delete are mutually exclusive")
	}

	switch {
	case c.Add != "":
		id := e.engine.AddQuery(ctx, c.Add)
		if id < 0 {
			return errors.Errorf("query %q was not logged", c.Add)
		}
		if e.json {
			return printJSON(map[string]interface{}{"id": id, "query": c.Add})
		}
		fmt.Printf("Logged query %d: %s\n", id, c.Add)
		return nil
	case c.Delete != 0:
		e.engine.DeleteQuery(ctx, c.Delete)
		if !e.json {
			fmt.Printf("Deleted query %d\n", c.Delete)
			return nil
		}
	}

	entries := e.engine.RecentQueries(ctx, c.Limit)
	if e.json {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No queries logged.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, q := range entries {
		rows = append(rows, []string{strconv.FormatInt(q.ID, 10), formatMillis(q.Time), q.Query})
	}
	return renderTable([]string{"ID", "When", "Query"}, rows)
}
