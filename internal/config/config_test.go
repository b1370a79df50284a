package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 65536, cfg.Transfer.ChunkSize)
	require.Equal(t, 10*time.Millisecond, cfg.Transfer.ChunkDelay)
	require.Equal(t, "localhost", cfg.DownloadBase())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"http url", func(c *Config) { c.Server.URL = "http://localhost/connect" }, ErrInvalidServerURL},
		{"no host", func(c *Config) { c.Server.URL = "ws:///connect" }, ErrInvalidServerURL},
		{"no origin", func(c *Config) { c.Server.Origin = "" }, ErrInvalidOrigin},
		{"zero chunk", func(c *Config) { c.Transfer.ChunkSize = 0 }, ErrInvalidChunkSize},
		{"negative delay", func(c *Config) { c.Transfer.ChunkDelay = -time.Second }, ErrInvalidChunkDelay},
		{"negative link timeout", func(c *Config) { c.Transfer.LinkTimeout = -time.Second }, ErrInvalidLinkTimeout},
		{"zero tick", func(c *Config) { c.Progress.Tick = 0 }, ErrInvalidTick},
		{"smoothing above one", func(c *Config) { c.Progress.Smoothing = 1.5 }, ErrInvalidSmoothing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestDownloadBase(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.Server.URL = "wss://drop.example.com:443/connect"
	require.Equal(t, "drop.example.com", cfg.DownloadBase())

	cfg.Server.URL = "ws://127.0.0.1:8080/connect"
	require.Equal(t, "127.0.0.1:8080", cfg.DownloadBase())

	cfg.Link.DownloadBase = "https://files.example.com"
	require.Equal(t, "https://files.example.com", cfg.DownloadBase())
}

func TestLoadAppliesOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("server.url", "ws://example.com:9000/connect")
	v.Set("transfer.chunk_size", 1024)
	v.Set("progress.tick", "5ms")

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "ws://example.com:9000/connect", cfg.Server.URL)
	require.Equal(t, 1024, cfg.Transfer.ChunkSize)
	require.Equal(t, 5*time.Millisecond, cfg.Progress.Tick)
	require.Equal(t, 0.1, cfg.Progress.Smoothing)
	require.True(t, cfg.Link.Clipboard)
}

func TestLoadValidates(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("transfer.chunk_size", -1)

	_, err := Load(v)
	require.ErrorIs(t, err, ErrInvalidChunkSize)
}
