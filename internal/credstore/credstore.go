// Package credstore provides the CredentialStore backends: a TOML file, a
// Postgres table, a Redis hash and an in-memory store.
package credstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/alexbotov/bunqledger/internal/config"
	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// Store is a CredentialStore holding resources that must be released
type Store interface {
	bunq.CredentialStore
	Close() error
}

// Open creates the store selected by cfg.Backend
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	appID := cfg.AppID
	if appID == "" {
		appID = config.DefaultAppID
	}

	switch cfg.Backend {
	case config.BackendFile, "":
		path := cfg.Path
		if path == "" {
			p, err := DefaultPath(appID)
			if err != nil {
				return nil, err
			}
			path = p
		}
		return NewFile(path), nil
	case config.BackendPostgres:
		store, err := OpenPostgres(cfg.DSN, appID)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRedis:
		store, err := OpenRedis(ctx, cfg.RedisURL, appID)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return NewMemory(nil), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", bunq.ErrPersistence, cfg.Backend)
	}
}

// DefaultPath returns the credentials file under the user's XDG config
// directory, creating its parent directory
func DefaultPath(appID string) (string, error) {
	path, err := xdg.ConfigFile(filepath.Join(appID, "credentials.toml"))
	if err != nil {
		return "", fmt.Errorf("%w: resolve credentials path: %w", bunq.ErrPersistence, err)
	}
	return path, nil
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", bunq.ErrPersistence, op, err)
}

// copyCredentials returns a deep copy so callers never share State
func copyCredentials(c *bunq.Credentials) *bunq.Credentials {
	if c == nil {
		return &bunq.Credentials{}
	}
	out := &bunq.Credentials{APIKey: c.APIKey}
	if c.State != nil {
		s := *c.State
		out.State = &s
	}
	return out
}
