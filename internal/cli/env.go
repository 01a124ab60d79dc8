package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/runnerr0/histstore/internal/config"
	"github.com/runnerr0/histstore/internal/history"
	"github.com/runnerr0/histstore/internal/storage"
)

// env is what a subcommand runs against: the resolved configuration, the
// opened store, and the engine wrapping it.
type env struct {
	cfg    *config.Config
	dbPath string
	store  *storage.SQLiteStore
	engine *history.Engine
	json   bool
}

// loadConfig resolves the config file named by the global flags, applies
// flag overrides, validates it and initialises logging.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if g.Config != "" {
		cfg, err = config.Load(g.Config)
	} else {
		cfg, err = config.LoadOrCreateAt(config.DefaultConfigPath())
	}
	if err != nil {
		return nil, err
	}

	if g.DB != "" {
		cfg.Storage.Path, cfg.Storage.SQLiteFile = filepath.Split(g.DB)
		if cfg.Storage.Path == "" {
			cfg.Storage.Path = "."
		}
	}
	if g.Verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid config")
	}
	if err := config.InitLog(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newEnv wraps an opened store. Blocked domains from the config are seeded
// into a store that has never recorded a visit.
func newEnv(ctx context.Context, cfg *config.Config, dbPath string, store *storage.SQLiteStore, asJSON bool) (*env, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	e := &env{
		cfg:    cfg,
		dbPath: dbPath,
		store:  store,
		engine: history.New(store, history.WithPolicy(policy)),
		json:   asJSON,
	}

	if seed := cfg.TopSites.BlockedDomains; len(seed) > 0 &&
		e.engine.HistoryItemsCount(ctx) == 0 && len(e.engine.BlockedDomains(ctx)) == 0 {
		e.engine.BlockDomainsForTopSites(ctx, seed...)
		log.WithField("domains", seed).Debug("seeded blocked top sites")
	}
	return e, nil
}

// openEnv loads configuration and opens the store it names.
func openEnv(ctx context.Context, g *GlobalFlags) (*env, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, dbPath, cfg.StoreOptions())
	if err != nil {
		return nil, errors.WithMessagef(err, "open %s", dbPath)
	}
	log.WithFields(log.Fields{"path": dbPath, "driver": cfg.Storage.Driver}).Debug("opened history store")

	e, err := newEnv(ctx, cfg, dbPath, store, g.JSON)
	if err != nil {
		store.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) Close() error { return e.store.Close() }

// withEnv opens an env for the duration of fn.
func withEnv(g *GlobalFlags, fn func(ctx context.Context, e *env) error) error {
	ctx := context.Background()
	e, err := openEnv(ctx, g)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(ctx, e)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable writes rows to stdout under headers.
func renderTable(headers []string, rows [][]string) error {
	table := tablewriter.NewWriter(os.Stdout)
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	table.Header(header...)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return errors.Wrap(err, "table row")
		}
	}
	return errors.Wrap(table.Render(), "render table")
}

// formatMillis renders an epoch-millis timestamp relative to now, or "-"
// when unset.
func formatMillis(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return humanize.Time(time.UnixMilli(ms))
}
