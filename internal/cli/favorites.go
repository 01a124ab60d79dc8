package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Execute implements the go-flags Commander interface for FavoriteCommand.
func (c *FavoriteCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e, args, time.Now())
	})
}

func (c *FavoriteCommand) run(ctx context.Context, e *env, args []string, now time.Time) error {
	if len(args) != 1 {
		return errors.New("favorite requires exactly one url")
	}
	u := args[0]
	e.engine.SetFavorite(ctx, u, c.Title, now.UnixMilli(), !c.Remove)
	fav := e.engine.IsFavorite(ctx, u)

	if e.json {
		return printJSON(map[string]interface{}{"url": u, "favorite": fav})
	}
	if fav {
		fmt.Printf("★ %s\n", u)
	} else {
		fmt.Printf("☆ %s\n", u)
	}
	return nil
}

// Execute implements the go-flags Commander interface for FavoritesCommand.
func (c *FavoritesCommand) Execute(args []string) error {
	return withEnv(c.globals, func(ctx context.Context, e *env) error {
		return c.run(ctx, e)
	})
}

func (c *FavoritesCommand) run(ctx context.Context, e *env) error {
	favs := e.engine.Favorites(ctx)

	if e.json {
		return printJSON(favs)
	}
	if len(favs) == 0 {
		fmt.Println("No favorites.")
		return nil
	}

	rows := make([][]string, 0, len(favs))
	for _, f := range favs {
		rows = append(rows, []string{formatMillis(f.Time), f.Title, f.URL})
	}
	return renderTable([]string{"Added", "Title", "URL"}, rows)
}
