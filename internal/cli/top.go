package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for TopCommand.
func (c *TopCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e)
	})
}

func (c *TopCommand) run(ctx context.Context, e *env) error {
	limit := c.Limit
	if limit == 0 {
		limit = e.cfg.TopSites.Limit
	}
	sites := e.engine.GetTopSites(ctx, limit)

	if e.json {
		return printJSON(sites)
	}
	if len(sites) == 0 {
		fmt.Println("No top sites yet.")
		return nil
	}

	rows := make([][]string, 0, len(sites))
	for i, s := range sites {
		rows = append(rows, []string{strconv.Itoa(i + 1), s.Domain, s.Title, s.URL})
	}
	return renderTable([]string{"#", "Domain", "Title", "URL"}, rows)
}

// Execute implements the go-flags Commander interface for BlockCommand.
func (c *BlockCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args)
	})
}

// run blocks the given domains, then lists the block list. With no domains
// it only lists.
func (c *BlockCommand) run(ctx context.Context, e *env, args []string) error {
	e.engine.BlockDomainsForTopSites(ctx, args...)
	return printBlocked(ctx, e)
}

// Execute implements the go-flags Commander interface for UnblockCommand.
func (c *UnblockCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args)
	})
}

func (c *UnblockCommand) run(ctx context.Context, e *env, args []string) error {
	switch {
	case c.All && c.Force:
		e.engine.RestoreTopSites(ctx)
	case c.All:
		e.engine.RemoveBlockedTopSites(ctx)
	case len(args) == 0:
		return errors.New("unblock requires a domain, or --all")
	default:
		for _, d := range args {
			e.engine.RemoveDomainFromBlockedTopSites(ctx, d)
		}
	}
	return printBlocked(ctx, e)
}

func printBlocked(ctx context.Context, e *env) error {
	domains := e.engine.BlockedDomains(ctx)
	if e.json {
		return printJSON(map[string][]string{"blocked_domains": domains})
	}
	if len(domains) == 0 {
		fmt.Println("No blocked domains.")
		return nil
	}
	fmt.Println("Blocked domains:")
	for _, d := range domains {
		fmt.Printf("  %s\n", d)
	}
	return nil
}
