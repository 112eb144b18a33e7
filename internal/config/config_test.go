package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrail-labs/jobtrail/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(50), cfg.Scan.PageSize)
	assert.Equal(t, 30, cfg.Scan.DefaultLookbackDays)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/var/lib/jobtrail"

[server]
addr = ":9090"
jwt_secret = "file-secret"

[google]
client_id = "cid"
client_secret = "csecret"
redirect_url = "https://app.example.com/api/gmail/callback"

[scan]
page_size = 25
default_lookback_days = 14

[limits.gmail-scan]
max = 3
window_seconds = 30

[log]
level = "debug"
pretty = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "cid", cfg.Google.ClientID)
	assert.Equal(t, int64(25), cfg.Scan.PageSize)
	assert.Equal(t, 14, cfg.Scan.DefaultLookbackDays)
	assert.Equal(t, "/var/lib/jobtrail", cfg.DataDir)
	assert.True(t, cfg.Log.Pretty)

	limits := cfg.ActionLimits()
	assert.Equal(t, domain.ActionLimit{Max: 3, Window: 30 * time.Second}, limits["gmail-scan"])
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9090"
jwt_secret = "file-secret"
`)

	t.Setenv("JOBTRAIL_ADDR", ":7070")
	t.Setenv("JOBTRAIL_JWT_SECRET", "env-secret")
	t.Setenv("JOBTRAIL_GOOGLE_CLIENT_ID", "env-cid")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "env-secret", cfg.Server.JWTSecret)
	assert.Equal(t, "env-cid", cfg.Google.ClientID)
}

func TestActionLimits_DropsInvalid(t *testing.T) {
	cfg := Config{Limits: map[string]LimitConfig{
		"good": {Max: 5, WindowSeconds: 60},
		"bad":  {Max: 0, WindowSeconds: 60},
	}}

	limits := cfg.ActionLimits()
	assert.Contains(t, limits, "good")
	assert.NotContains(t, limits, "bad")
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9090"
`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, zerolog.Nop(), func(Config) {
			reloads.Add(1)
		})
	}()

	// Give the watcher time to register, then rewrite the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \":9191\"\n"), 0600))

	assert.Eventually(t, func() bool {
		return reloads.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	<-done
}
