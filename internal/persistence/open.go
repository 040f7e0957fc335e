package persistence

import (
	"context"
	"fmt"
	"strings"

	"example.com/stravahook/internal/domain"
	"example.com/stravahook/internal/persistence/postgres"
	"example.com/stravahook/internal/persistence/sqlite"
)

// Store is the full dedup store surface used by the entry points.
type Store interface {
	domain.ProcessedStore
	domain.ProcessedReader
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend identifies a dedup store implementation.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendSQLite   Backend = "sqlite"
)

// ParseDSN picks the backend for dsn and returns the driver-specific connection string.
func ParseDSN(dsn string) (Backend, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty store DSN")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return BackendPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite DSN %q has no path", dsn)
		}
		return BackendSQLite, path, nil
	default:
		return BackendSQLite, dsn, nil
	}
}

// Open connects to the store named by dsn and creates the dedup table.
// Any failure here should stop the process.
func Open(ctx context.Context, dsn string) (Store, error) {
	backend, conn, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	var store Store
	switch backend {
	case BackendPostgres:
		store, err = postgres.Open(ctx, conn)
	default:
		store, err = sqlite.Open(ctx, conn)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initialise %s store: %w", backend, err)
	}
	return store, nil
}
