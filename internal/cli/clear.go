package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for ClearCommand.
func (c *ClearCommand) Execute(args []string) error {
	if !c.Force {
		if err := c.confirm(os.Stdin); err != nil {
			return err
		}
	}
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e)
	})
}

// confirm prints what is about to be deleted and reads the confirmation
// word from in.
func (c *ClearCommand) confirm(in io.Reader) error {
	fmt.Println("⚠ WARNING: This will permanently delete browsing history.")
	if c.Favorites {
		fmt.Println("  - All favorites are unmarked")
		fmt.Println("  - Urls that were only favorites are removed")
	} else {
		fmt.Println("  - All visits")
		fmt.Println("  - All urls that are not favorites")
	}
	fmt.Println("  - The search query log")
	fmt.Println()
	fmt.Println("This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "CLEAR" to confirm: `)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return errors.New("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "CLEAR" {
		return errors.New("aborted: confirmation text did not match")
	}
	return nil
}

func (c *ClearCommand) run(ctx context.Context, e *env) error {
	e.engine.ClearHistory(ctx, c.Favorites)

	if e.json {
		return printJSON(map[string]interface{}{
			"cleared":          true,
			"delete_favorites": c.Favorites,
			"remaining_visits": e.engine.HistoryItemsCount(ctx),
		})
	}
	if c.Favorites {
		fmt.Println("Cleared favorites and the query log.")
	} else {
		fmt.Println("Cleared history. Favorites were kept.")
	}
	return nil
}
