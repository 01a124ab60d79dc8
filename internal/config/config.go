package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/runnerr0/histstore/internal/history"
	"github.com/runnerr0/histstore/internal/storage"
)

// AppName names the XDG subdirectories used for data and config.
const AppName = "histstore"

// DataDir returns the XDG data directory, e.g. ~/.local/share/histstore.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultConfigPath returns the XDG config file path, e.g.
// ~/.config/histstore/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Config holds all histstore configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Recording RecordingConfig `yaml:"recording"`
	TopSites  TopSitesConfig  `yaml:"top_sites"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type StorageConfig struct {
	Path          string `yaml:"path"`
	SQLiteFile    string `yaml:"sqlite_file"`
	Driver        string `yaml:"driver"`
	JournalMode   string `yaml:"journal_mode"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms"`
}

// RecordingConfig selects which visit types produce a stored visit.
type RecordingConfig struct {
	VisitTypes []string `yaml:"visit_types"`
}

type TopSitesConfig struct {
	Limit int `yaml:"limit"`
	// BlockedDomains seed the block list of a store that has never recorded
	// a visit.
	BlockedDomains []string `yaml:"blocked_domains"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "creating config directory")
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "marshaling default config")
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, errors.Wrap(err, "writing default config")
		}

		return cfg, nil
	}

	return Load(path)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "resolving home directory")
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// DBPath returns the database file location. A SQLiteFile of ":memory:" is
// returned as is.
func (c *Config) DBPath() (string, error) {
	if c.Storage.SQLiteFile == ":memory:" {
		return c.Storage.SQLiteFile, nil
	}
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// StoreOptions converts the storage section into storage.Options.
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Driver:      c.Storage.Driver,
		JournalMode: c.Storage.JournalMode,
		BusyTimeout: time.Duration(c.Storage.BusyTimeoutMS) * time.Millisecond,
	}
}

// Policy converts the recording section into a history.Policy.
func (c *Config) Policy() (history.Policy, error) {
	return history.NewPolicy(c.Recording.VisitTypes)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case storage.DriverMattn, storage.DriverModernc:
	default:
		return errors.Errorf("storage.driver: unsupported driver %q (want %q or %q)",
			c.Storage.Driver, storage.DriverMattn, storage.DriverModernc)
	}
	if c.Storage.SQLiteFile == "" {
		return errors.New("storage.sqlite_file: must not be empty")
	}
	if c.Storage.BusyTimeoutMS < 0 {
		return errors.Errorf("storage.busy_timeout_ms: must not be negative, got %d", c.Storage.BusyTimeoutMS)
	}
	if _, err := c.Policy(); err != nil {
		return errors.WithMessage(err, "recording.visit_types")
	}
	if c.TopSites.Limit < 1 || c.TopSites.Limit > storage.MaxTopSites {
		return errors.Errorf("top_sites.limit: must be between 1 and %d, got %d", storage.MaxTopSites, c.TopSites.Limit)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.WithMessage(err, "logging.level")
	}
	switch c.Logging.Format {
	case "text", "json", "color":
	default:
		return errors.Errorf("logging.format: unsupported format %q", c.Logging.Format)
	}
	return nil
}
