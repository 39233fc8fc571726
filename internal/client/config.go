package client

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultBaseURL is the API server address used when none is configured.
const DefaultBaseURL = "http://localhost:9000"

// Config holds client settings.
type Config struct {
	BaseURL  string
	CacheDir string
}

// LoadConfig reads NOTESYNC_URL and NOTESYNC_CACHE_DIR. The cache lives under
// the user cache directory by default, falling back to the temp dir.
func LoadConfig() Config {
	cfg := Config{
		BaseURL:  strings.TrimRight(os.Getenv("NOTESYNC_URL"), "/"),
		CacheDir: os.Getenv("NOTESYNC_CACHE_DIR"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		cfg.CacheDir = filepath.Join(base, "notesync")
	}
	return cfg
}
