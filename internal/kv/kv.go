// Package kv persists small string values across process restarts.
// There are no transactional guarantees between keys.
package kv

import (
	"fmt"

	"youdo/internal/config"
)

// Keys used by the client.
const (
	KeyToken = "youdo_token"
	KeyUser  = "youdo_user"
	KeyTheme = "youdo_theme"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key.
	Set(key, value string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(keys ...string) error

	// Close releases any resources held by the store.
	Close() error
}

// Open returns the store selected by cfg.Store, creating the config
// directory if needed.
func Open(cfg *config.Config) (Store, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}
	switch cfg.Store {
	case config.StoreSQLite:
		return OpenSQLite(cfg.StatePath())
	case config.StoreFile, "":
		return OpenFile(cfg.StatePath()), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", cfg.Store)
	}
}
