// Package config loads the engine configuration file.
//
// The file is JWCC (JSON with comments and trailing commas) so operators can
// annotate it; it is standardized with hujson before decoding. Missing file
// means defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// FileName is the default config file name, looked up in the working
// directory.
const FileName = "content-engine.json"

// Config holds all engine settings.
type Config struct {
	// ContentDir is the content root holding data, index and uploads trees.
	ContentDir string `json:"content_dir"`

	// AuthorName and AuthorEmail are the fallback git identity for commits
	// that carry no author.
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`

	// WatchRebuildSeconds is the minimum spacing between watcher-triggered
	// index rebuilds.
	WatchRebuildSeconds int `json:"watch_rebuild_seconds,omitempty"`

	// FetchTimeoutSeconds bounds upload-import HTTP fetches.
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ContentDir:          "content",
		WatchRebuildSeconds: 2,
		FetchTimeoutSeconds: 30,
	}
}

// Load reads the config file at path over the defaults. A missing file
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WatchRebuildInterval returns the watcher rebuild spacing as a duration.
func (c Config) WatchRebuildInterval() time.Duration {
	if c.WatchRebuildSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.WatchRebuildSeconds) * time.Second
}

// FetchTimeout returns the upload-import timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	if c.FetchTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
