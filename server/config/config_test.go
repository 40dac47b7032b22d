package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadINI(t *testing.T) {
	path := writeConfig(t, `
Listen = :9090
LogLevel = debug
DefaultProvider = qqmp3

[providers.gequbao]
enabled = true
timeout = 5

[providers.netease]
enabled = false
music_u = secret-cookie
spoof_ip = 1
`)

	conf, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", conf.GetString("Listen"))
	require.Equal(t, "debug", conf.GetString("LogLevel"))
	require.Equal(t, "qqmp3", conf.GetString("DefaultProvider"))

	require.Equal(t, []string{"gequbao", "netease"}, conf.ProviderNames())

	require.True(t, conf.GetProviderBool("gequbao", "enabled"))
	require.Equal(t, 5, conf.GetProviderInt("gequbao", "timeout"))

	require.False(t, conf.GetProviderBool("netease", "enabled"))
	require.True(t, conf.GetProviderBool("netease", "spoof_ip"))
	require.Equal(t, "secret-cookie", conf.GetProviderString("netease", "music_u"))
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	conf, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":8080", conf.GetString("Listen"))
	require.Equal(t, "info", conf.GetString("LogLevel"))
	require.Equal(t, "text", conf.GetString("LogFormat"))
	require.Equal(t, "gequbao", conf.GetString("DefaultProvider"))
	require.Equal(t, 10, conf.GetInt("RequestTimeout"))
	require.Equal(t, 4, conf.GetInt("DownloadConcurrency"))
	require.InDelta(t, 1.0, conf.GetFloat64("DownloadRatePerSecond"), 0.001)
	require.Equal(t, 2, conf.GetInt("DownloadRetries"))

	require.Empty(t, conf.ProviderNames())
	require.Equal(t, "", conf.GetProviderString("gequbao", "base_url"))
	require.Equal(t, 0, conf.GetProviderInt("gequbao", "timeout"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
}
