package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrInvalidServerURL   = errors.New("server url must be a ws:// or wss:// url")
	ErrInvalidOrigin      = errors.New("server origin must be set")
	ErrInvalidChunkSize   = errors.New("chunk size must be greater than 0")
	ErrInvalidChunkDelay  = errors.New("chunk delay must not be negative")
	ErrInvalidTick        = errors.New("progress tick must be greater than 0")
	ErrInvalidSmoothing   = errors.New("progress smoothing must be in (0, 1]")
	ErrInvalidLinkTimeout = errors.New("link timeout must not be negative")
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Progress ProgressConfig `mapstructure:"progress"`
	Link     LinkConfig     `mapstructure:"link"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ServerConfig describes the drop endpoint
type ServerConfig struct {
	URL    string `mapstructure:"url"`
	Origin string `mapstructure:"origin"`
}

// TransferConfig holds chunking and pacing settings
type TransferConfig struct {
	ChunkSize   int           `mapstructure:"chunk_size"`
	ChunkDelay  time.Duration `mapstructure:"chunk_delay"`
	LinkTimeout time.Duration `mapstructure:"link_timeout"` // 0 waits forever
}

// ProgressConfig holds the display smoothing settings
type ProgressConfig struct {
	Tick      time.Duration `mapstructure:"tick"`
	Smoothing float64       `mapstructure:"smoothing"`
}

// LinkConfig controls how returned links are presented
type LinkConfig struct {
	DownloadBase string `mapstructure:"download_base"` // empty means server host
	Clipboard    bool   `mapstructure:"clipboard"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the endpoint
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:    "ws://localhost:80/connect",
			Origin: "http://localhost/",
		},
		Transfer: TransferConfig{
			ChunkSize:  64 * 1024, // 64 KB frames
			ChunkDelay: 10 * time.Millisecond,
		},
		Progress: ProgressConfig{
			Tick:      10 * time.Millisecond,
			Smoothing: 0.1,
		},
		Link: LinkConfig{
			Clipboard: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// SetDefaults registers every default with v so config files and env vars
// only need to override what they change.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.origin", d.Server.Origin)
	v.SetDefault("transfer.chunk_size", d.Transfer.ChunkSize)
	v.SetDefault("transfer.chunk_delay", d.Transfer.ChunkDelay)
	v.SetDefault("transfer.link_timeout", d.Transfer.LinkTimeout)
	v.SetDefault("progress.tick", d.Progress.Tick)
	v.SetDefault("progress.smoothing", d.Progress.Smoothing)
	v.SetDefault("link.download_base", d.Link.DownloadBase)
	v.SetDefault("link.clipboard", d.Link.Clipboard)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Load builds a Config from v and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return ErrInvalidServerURL
	}
	if c.Server.Origin == "" {
		return ErrInvalidOrigin
	}
	if c.Transfer.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.Transfer.ChunkDelay < 0 {
		return ErrInvalidChunkDelay
	}
	if c.Transfer.LinkTimeout < 0 {
		return ErrInvalidLinkTimeout
	}
	if c.Progress.Tick <= 0 {
		return ErrInvalidTick
	}
	if c.Progress.Smoothing <= 0 || c.Progress.Smoothing > 1 {
		return ErrInvalidSmoothing
	}
	return nil
}

// DownloadBase returns the prefix placed in front of "d/<link>". Without an
// explicit setting it is the server host, dropping default ports.
func (c *Config) DownloadBase() string {
	if c.Link.DownloadBase != "" {
		return c.Link.DownloadBase
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return ""
	}
	port := u.Port()
	if port == "" || (u.Scheme == "ws" && port == "80") || (u.Scheme == "wss" && port == "443") {
		return u.Hostname()
	}
	return u.Host
}
