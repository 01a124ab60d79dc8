package config

import "github.com/runnerr0/histstore/internal/storage"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:          DataDir(),
			SQLiteFile:    "history.db",
			Driver:        storage.DriverMattn,
			JournalMode:   "wal",
			BusyTimeoutMS: 5000,
		},
		Recording: RecordingConfig{
			VisitTypes: []string{"link", "typed"},
		},
		TopSites: TopSitesConfig{
			Limit:          10,
			BlockedDomains: []string{},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}
