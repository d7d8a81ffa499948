package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/config"
	"github.com/yourname/snusquit/internal/service"
	"github.com/yourname/snusquit/internal/storage"
)

// useEnv points loadConfig at vars for the duration of the test.
func useEnv(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	vars["LOG_LEVEL"] = "error"
	getenv := func(k string) string { return vars[k] }
	cfg, err := config.LoadFrom(getenv)
	require.NoError(t, err)

	prev := loadConfig
	loadConfig = func() (*config.Config, error) { return config.LoadFrom(getenv) }
	t.Cleanup(func() { loadConfig = prev })
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "seed-tips")
	assert.Contains(t, out, "summary")
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snusquit.db")
	useEnv(t, map[string]string{"STORAGE_BACKEND": "sqlite", "SQLITE_PATH": path})

	for i := 0; i < 2; i++ {
		out, err := run(t, "migrate")
		require.NoError(t, err, "run %d", i+1)
		assert.Contains(t, out, "Migrated sqlite store")
	}
}

func TestSeedTips(t *testing.T) {
	useEnv(t, map[string]string{"STORAGE_BACKEND": "sqlite", "SQLITE_PATH": filepath.Join(t.TempDir(), "s.db")})

	out, err := run(t, "seed-tips")
	require.NoError(t, err)
	assert.Equal(t, "Seeded 4 default tips\n", out)

	out, err = run(t, "seed-tips")
	require.NoError(t, err)
	assert.Equal(t, "Tips already present (4)\n", out)
}

func TestSummaryCommand(t *testing.T) {
	cfg := useEnv(t, map[string]string{"STORAGE_BACKEND": "sqlite", "SQLITE_PATH": filepath.Join(t.TempDir(), "s.db")})

	store, err := storage.NewSQLiteStorage(cfg.SQLitePath, internal.NopLogger())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	uid, err := store.CreateUser(ctx, &internal.User{Name: "Robin"})
	require.NoError(t, err)
	for _, d := range []string{"2024-01-09", "2024-01-10"} {
		_, err := store.UpsertCheckin(ctx, &internal.Checkin{UserID: uid, Date: d, NicotineFree: true})
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	out, err := run(t, "summary", uid, "--today", "2024-01-10")
	require.NoError(t, err)
	var s service.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 2, s.TotalCheckins)
	assert.Equal(t, 2, s.CurrentStreak)
	assert.Nil(t, s.AdherencePercent)

	_, err = run(t, "summary", uid, "--today", "10/01/2024")
	assert.Error(t, err)
	_, err = run(t, "summary", "nope")
	assert.ErrorIs(t, err, internal.ErrValidation)
}

func TestCommandsNeedAStore(t *testing.T) {
	useEnv(t, map[string]string{"STORAGE_BACKEND": "mongo"})

	_, err := run(t, "migrate")
	assert.ErrorIs(t, err, errNoStore)
	_, err = run(t, "summary", "65a1f0c2e4b0a1b2c3d4e5f6")
	assert.ErrorIs(t, err, errNoStore)
}
