// Package config handles XDG configuration directory, file paths and
// environment settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "youdo"

	// EnvFile is the optional dotenv file inside the config directory.
	EnvFile = "youdo.env"

	// StateFile holds the persisted session for the file store.
	StateFile = "state.json"

	// StateDB holds the persisted session for the sqlite store.
	StateDB = "state.db"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// GoogleTokenFile is the stored Google OAuth token filename.
	GoogleTokenFile = "google_token.json"

	// DefaultAPIURL is the root of the YouDo API.
	DefaultAPIURL = "https://you-do-beryl.vercel.app/api"
)

// Store backends for persisted state.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the root endpoint of the remote service.
	APIURL string

	// Store selects the persistence backend: "file" or "sqlite".
	Store string

	// Timeout bounds each HTTP call. Zero means no timeout.
	Timeout time.Duration

	// LogFile, when set, receives JSON logs with rotation.
	LogFile string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/youdo or $HOME/.config/youdo.
// Environment settings come from the process environment, then
// <dir>/youdo.env and ./.env; variables already set are not overridden.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	loadEnvFiles(filepath.Join(dir, EnvFile), ".env")

	cfg := &Config{
		Dir:     dir,
		APIURL:  strings.TrimRight(envOr("YOUDO_API_URL", DefaultAPIURL), "/"),
		Store:   envOr("YOUDO_STORE", StoreFile),
		LogFile: os.Getenv("YOUDO_LOG_FILE"),
	}

	switch cfg.Store {
	case StoreFile, StoreSQLite:
	default:
		return nil, fmt.Errorf("invalid YOUDO_STORE: %s (want file or sqlite)", cfg.Store)
	}

	if raw := os.Getenv("YOUDO_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid YOUDO_TIMEOUT: %s", raw)
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// StatePath returns the path of the persisted state for the configured store.
func (c *Config) StatePath() string {
	if c.Store == StoreSQLite {
		return filepath.Join(c.Dir, StateDB)
	}
	return filepath.Join(c.Dir, StateFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// GoogleTokenPath returns the path to the stored Google OAuth token file.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.Dir, GoogleTokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the Google OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasGoogleToken checks if the Google token file exists.
func (c *Config) HasGoogleToken() bool {
	_, err := os.Stat(c.GoogleTokenPath())
	return err == nil
}

func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		// Load never overrides variables that are already set.
		_ = godotenv.Load(p)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
