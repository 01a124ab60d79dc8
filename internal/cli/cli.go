package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Visit       *VisitCommand
	Observe     *ObserveCommand
	DeleteVisit *DeleteVisitCommand
	History     *HistoryCommand
	Top         *TopCommand
	Search      *SearchCommand
	Favorite    *FavoriteCommand
	Favorites   *FavoritesCommand
	Block       *BlockCommand
	Unblock     *UnblockCommand
	Clear       *ClearCommand
	Query       *QueryCommand
	Status      *StatusCommand
	Migrate     *MigrateCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "histstore"
	parser.LongDescription = "Embedded browsing history store: record visits, rank top sites, search history and manage favorites."

	cmds := &commands{
		Visit:       &VisitCommand{globals: &globals, version: version},
		Observe:     &ObserveCommand{globals: &globals, version: version},
		DeleteVisit: &DeleteVisitCommand{globals: &globals, version: version},
		History:     &HistoryCommand{globals: &globals, version: version},
		Top:         &TopCommand{globals: &globals, version: version},
		Search:      &SearchCommand{globals: &globals, version: version},
		Favorite:    &FavoriteCommand{globals: &globals, version: version},
		Favorites:   &FavoritesCommand{globals: &globals, version: version},
		Block:       &BlockCommand{globals: &globals, version: version},
		Unblock:     &UnblockCommand{globals: &globals, version: version},
		Clear:       &ClearCommand{globals: &globals, version: version},
		Query:       &QueryCommand{globals: &globals, version: version},
		Status:      &StatusCommand{globals: &globals, version: version},
		Migrate:     &MigrateCommand{globals: &globals, version: version},
	}

	parser.AddCommand("visit", "Record visits to urls", "Record one visit to each given url. Visit types outside the configured recording policy are skipped.", cmds.Visit)
	parser.AddCommand("observe", "Update the title of a visited url", "Update the title and domain of a url that has already been visited. Unknown urls are ignored.", cmds.Observe)
	parser.AddCommand("delete-visit", "Delete one visit", "Delete the visit to a url recorded at an exact time (epoch milliseconds).", cmds.DeleteVisit)
	parser.AddCommand("history", "List visits, newest first", "List recorded visits, newest first, with paging.", cmds.History)
	parser.AddCommand("top", "List top sites", "List the most visited sites, one per domain, excluding blocked domains.", cmds.Top)
	parser.AddCommand("search", "Search history", "Search urls and titles. Matching is case-insensitive and literal.", cmds.Search)
	parser.AddCommand("favorite", "Mark or unmark a favorite", "Mark a url as favorite, or unmark it with --remove.", cmds.Favorite)
	parser.AddCommand("favorites", "List favorites", "List favorites, oldest first.", cmds.Favorites)
	parser.AddCommand("block", "Block domains from top sites", "Hide the given domains from top sites and list the block list.", cmds.Block)
	parser.AddCommand("unblock", "Unblock domains", "Let the given domains appear in top sites again, or clear the block list with --all.", cmds.Unblock)
	parser.AddCommand("clear", "Delete browsing history", "Delete browsing history and the query log. Destructive operation with safety prompt.", cmds.Clear)
	parser.AddCommand("query", "Manage the search query log", "Log, delete or list recent search queries.", cmds.Query)
	parser.AddCommand("status", "Show database statistics", "Show database statistics and configuration summary.", cmds.Status)
	parser.AddCommand("migrate", "Upgrade the database schema", "Bring the database to the current schema generation and report the change.", cmds.Migrate)

	return parser, &globals, cmds
}

// Run is the main entry point for the histstore CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("histstore %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
