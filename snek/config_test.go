package snek

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneknetwork/snek/snek/util"
)

func TestReadConfigCreatesDefault(t *testing.T) {
	for _, key := range []string{"SNEK_API_TOKEN", "SNEK_SITE_URL", "BOT_TOKEN", "SENTRY_DSN"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.toml")

	c, err := ReadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	def := DefaultConfig()
	assert.Equal(t, def.Service.GinAddress, c.Service.GinAddress)
	assert.Equal(t, def.Service.SiteURL, c.Service.SiteURL)
	assert.Equal(t, def.Moderation.ExpiryLookahead, c.Moderation.ExpiryLookahead)
	assert.Equal(t, def.Service.RequestTimeout, c.Service.RequestTimeout)
}

func TestReadConfigEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := ReadConfig(path)
	require.NoError(t, err)

	t.Setenv("SNEK_API_TOKEN", "site-token")
	t.Setenv("BOT_TOKEN", "bot-token")
	t.Setenv("SNEK_SITE_URL", "http://localhost:8000")
	t.Setenv("SENTRY_DSN", "")

	c, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "site-token", c.Service.SiteToken)
	assert.Equal(t, "bot-token", c.Service.DiscordToken)
	assert.Equal(t, "http://localhost:8000", c.Service.SiteURL)
	assert.Empty(t, c.Snek.SentryDsn)
}

func TestReadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Service\nGinAddress = "), 0o644))

	_, err := ReadConfig(path)
	assert.Error(t, err)
}

func TestMuteRoles(t *testing.T) {
	c := DefaultConfig()
	c.Moderation.MuteRoles = map[string]string{"100": "200"}

	roles, err := c.MuteRoles()
	require.NoError(t, err)
	assert.Equal(t, map[snowflake.ID]snowflake.ID{100: 200}, roles)

	c.Moderation.MuteRoles = map[string]string{"100": "muted"}
	_, err = c.MuteRoles()
	assert.ErrorContains(t, err, "invalid role id")

	c.Moderation.MuteRoles = map[string]string{"guild": "200"}
	_, err = c.MuteRoles()
	assert.ErrorContains(t, err, "invalid guild id")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	c := DefaultConfig()
	c.Snek.LogLevel = "warn"
	c.Snek.LogFormat = "json"

	var buf bytes.Buffer
	log, err := NewLogger(&buf, c)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", "infraction", 7)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"infraction":7`)

	c.Snek.LogFormat = "xml"
	_, err = NewLogger(&buf, c)
	assert.Error(t, err)
}

func TestNewSnekRejectsInvalidMuteRoles(t *testing.T) {
	c := DefaultConfig()
	c.Moderation.ChannelCachePath = ""
	c.Moderation.MuteRoles = map[string]string{"guild": "role"}

	_, err := NewSnek(slog.New(slog.DiscardHandler), c)
	assert.Error(t, err)
}

func TestNewSnek(t *testing.T) {
	c := DefaultConfig()
	c.Moderation.ChannelCachePath = filepath.Join(t.TempDir(), "cache", "channels.json")
	c.Moderation.MuteRoles = map[string]string{"100": "200"}
	c.Service.RequestTimeout = util.Duration(time.Second)

	s, err := NewSnek(slog.New(slog.DiscardHandler), c)
	require.NoError(t, err)
	assert.NotNil(t, s.Moderation())
	s.Close()
	s.Close()
}

func TestSnekStartStopsWithContext(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer site.Close()

	c := DefaultConfig()
	c.Moderation.ChannelCachePath = ""
	c.Service.SiteURL = site.URL
	c.Service.SiteToken = "token"
	c.Service.GinAddress = "127.0.0.1:0"

	s, err := NewSnek(slog.New(slog.DiscardHandler), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		errs <- s.Start(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err = <-errs:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after the context was cancelled")
	}
}
