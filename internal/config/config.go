package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DataDir string `koanf:"data_dir"` // override for the sqlite data directory

	// Sync server (account, tokens, episode sync)
	Server ServerConfig `koanf:"server"`

	// Playback tuning
	Playback PlaybackConfig `koanf:"playback"`
}

// ServerConfig holds the sync server endpoints and identity.
type ServerConfig struct {
	SyncURL  string `koanf:"sync_url"`  // e.g., "https://api.pocketcasts.com"
	ClientID string `koanf:"client_id"` // identity provider client id
}

// PlaybackConfig holds playback tuning knobs.
type PlaybackConfig struct {
	SkipForwardSec  int `koanf:"skip_forward"`  // seconds (default: 30)
	SkipBackwardSec int `koanf:"skip_backward"` // seconds (default: 10)
	QueueLimit      int `koanf:"queue_limit"`   // resolved episodes fetched at once (default: 100)
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in data_dir
	if cfg.DataDir != "" {
		cfg.DataDir = expandPath(cfg.DataDir)
	}

	// Normalize server URL (remove trailing slash)
	cfg.Server.SyncURL = strings.TrimSuffix(cfg.Server.SyncURL, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/upnext/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "upnext", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasServerConfig returns true if the sync server is configured.
func (c *Config) HasServerConfig() bool {
	return c.Server.SyncURL != "" && c.Server.ClientID != ""
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.SkipForwardSec <= 0 {
		cfg.SkipForwardSec = 30
	}
	if cfg.SkipBackwardSec <= 0 {
		cfg.SkipBackwardSec = 10
	}
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = 100
	}

	return cfg
}
