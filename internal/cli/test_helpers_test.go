package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/histstore/internal/config"
	"github.com/runnerr0/histstore/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// newTestEnv creates an env over a migrated in-memory store with the default
// configuration.
func newTestEnv(t *testing.T, asJSON bool) *env {
	t.Helper()
	return newTestEnvWithConfig(t, config.DefaultConfig(), asJSON)
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config, asJSON bool) *env {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, ":memory:", storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e, err := newEnv(ctx, cfg, ":memory:", store, asJSON)
	require.NoError(t, err)
	return e
}

// writeTestConfig writes a minimal config file and returns its path together
// with a database path in the same temporary directory.
func writeTestConfig(t *testing.T, yaml string) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))
	return cfgPath, filepath.Join(dir, "data", "history.db")
}
