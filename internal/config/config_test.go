// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("PLAYD_MEDIA_API", "https://media.example")
	t.Setenv("PLAYD_LISTEN", "127.0.0.1:9999")
	t.Setenv("PLAYD_METRICS_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Equal(t, "https://media.example", cfg.MediaAPIBase)
	assert.Equal(t, 3*time.Second, cfg.TelemetryInterval)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	path := writeConfigFile(t, `
listenAddr: ":7000"
mediaApiBase: "https://file.example"
telemetryInterval: 5s
`)
	t.Setenv("PLAYD_LISTEN", ":7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	// Environment wins over the file.
	assert.Equal(t, ":7001", cfg.ListenAddr)
	assert.Equal(t, "https://file.example", cfg.MediaAPIBase)
	assert.Equal(t, 5*time.Second, cfg.TelemetryInterval)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfigFile(t, `
listenAddr: ":7000"
dataDir: "/tmp/playd-test"
logLevel: "debug"
mediaApiBase: "https://media.example"
mediaApiToken: "secret"
telemetryInterval: 5s
redisAddr: "localhost:6379"
rateLimit: 120
rateWindow: 30s
metricsEnabled: false
shutdownTimeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	want := Config{
		ListenAddr:        ":7000",
		DataDir:           "/tmp/playd-test",
		LogLevel:          "debug",
		MediaAPIBase:      "https://media.example",
		MediaAPIToken:     "secret",
		TelemetryInterval: 5 * time.Second,
		RedisAddr:         "localhost:6379",
		RateLimit:         120,
		RateWindow:        30 * time.Second,
		MetricsEnabled:    false,
		ShutdownTimeout:   5 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingMediaAPIFails(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad media url", "mediaApiBase: \"not a url\"\n"},
		{"interval below floor", "mediaApiBase: \"https://m.example\"\ntelemetryInterval: 100ms\n"},
		{"zero rate limit", "mediaApiBase: \"https://m.example\"\nrateLimit: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParseHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("PLAYD_TEST_INT", "not-a-number")
	t.Setenv("PLAYD_TEST_DUR", "soon")
	t.Setenv("PLAYD_TEST_BOOL", "maybe")

	assert.Equal(t, 42, ParseInt("PLAYD_TEST_INT", 42))
	assert.Equal(t, time.Minute, ParseDuration("PLAYD_TEST_DUR", time.Minute))
	assert.True(t, ParseBool("PLAYD_TEST_BOOL", true))
}

func TestHolder_ReloadNotifiesSubscribers(t *testing.T) {
	t.Setenv("PLAYD_MEDIA_API", "")
	path := writeConfigFile(t, "mediaApiBase: \"https://m.example\"\nrateLimit: 100\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(cfg, path)
	var got atomic.Int64
	h.Subscribe(func(c Config) { got.Store(int64(c.RateLimit)) })

	require.NoError(t, os.WriteFile(path, []byte("mediaApiBase: \"https://m.example\"\nrateLimit: 250\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, int64(250), got.Load())
	assert.Equal(t, 250, h.Get().RateLimit)
}

func TestHolder_ReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfigFile(t, "mediaApiBase: \"https://m.example\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(cfg, path)
	require.NoError(t, os.WriteFile(path, []byte("mediaApiBase: \"\"\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "https://m.example", h.Get().MediaAPIBase)
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	path := writeConfigFile(t, "mediaApiBase: \"https://m.example\"\nrateLimit: 100\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHolder(cfg, path)
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("mediaApiBase: \"https://m.example\"\nrateLimit: 300\n"), 0o600))

	require.Eventually(t, func() bool {
		return h.Get().RateLimit == 300
	}, 5*time.Second, 50*time.Millisecond)
}
