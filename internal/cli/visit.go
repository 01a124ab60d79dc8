package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/runnerr0/histstore/internal/history"
)

type visitJSON struct {
	URL      string `json:"url"`
	VisitID  int64  `json:"visit_id"`
	Recorded bool   `json:"recorded"`
}

// Execute implements the go-flags Commander interface for VisitCommand.
func (c *VisitCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args)
	})
}

func (c *VisitCommand) run(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return errors.New("visit requires at least one url")
	}
	vt, err := history.ParseVisitType(c.Type)
	if err != nil {
		return err
	}

	out := make([]visitJSON, 0, len(args))
	for _, u := range args {
		id := e.engine.RecordVisit(ctx, u, vt)
		if id > 0 && c.Title != "" {
			e.engine.RecordObservation(ctx, u, c.Title)
		}
		out = append(out, visitJSON{URL: u, VisitID: id, Recorded: id > 0})
	}

	if e.json {
		return printJSON(out)
	}
	for _, v := range out {
		switch {
		case v.Recorded:
			fmt.Printf("Recorded visit %d to %s\n", v.VisitID, v.URL)
		case !e.engine.Records(vt):
			fmt.Printf("Skipped %s (%s visits are not recorded)\n", v.URL, vt)
		default:
			fmt.Printf("Failed to record visit to %s\n", v.URL)
		}
	}
	return nil
}

// Execute implements the go-flags Commander interface for ObserveCommand.
func (c *ObserveCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args)
	})
}

func (c *ObserveCommand) run(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("observe requires exactly one url")
	}
	if c.Title == "" {
		return errors.New("--title is required for observe command")
	}
	e.engine.RecordObservation(ctx, args[0], c.Title)

	if e.json {
		return printJSON(map[string]string{"url": args[0], "title": c.Title})
	}
	fmt.Printf("Updated title of %s\n", args[0])
	return nil
}

// Execute implements the go-flags Commander interface for DeleteVisitCommand.
func (c *DeleteVisitCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args)
	})
}

func (c *DeleteVisitCommand) run(ctx context.Context, e *env, args []string) error {
	if len(args) != 1 {
		return errors.New("delete-visit requires exactly one url")
	}
	if c.Time <= 0 {
		return errors.New("--time is required for delete-visit command")
	}
	before := e.engine.HistoryItemsCount(ctx)
	e.engine.DeleteVisit(ctx, args[0], c.Time)
	deleted := before - e.engine.HistoryItemsCount(ctx)

	if e.json {
		return printJSON(map[string]interface{}{"url": args[0], "time": c.Time, "deleted": deleted > 0})
	}
	if deleted > 0 {
		fmt.Printf("Deleted visit to %s at %d\n", args[0], c.Time)
	} else {
		fmt.Printf("No visit to %s at %d\n", args[0], c.Time)
	}
	return nil
}

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e)
	})
}

func (c *HistoryCommand) run(ctx context.Context, e *env) error {
	visits := e.engine.GetVisitsPaginated(ctx, c.Offset, c.Limit)

	if e.json {
		return printJSON(visits)
	}
	if len(visits) == 0 {
		fmt.Println("No history.")
		return nil
	}

	rows := make([][]string, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, []string{formatMillis(v.Time), strconv.FormatInt(v.Time, 10), v.Title, v.URL})
	}
	return renderTable([]string{"When", "Time", "Title", "URL"}, rows)
}
