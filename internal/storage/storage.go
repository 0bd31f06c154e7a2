// Package storage implements the snapshot persistence adapters behind the
// ledger. Each store reads and writes the same version-0 snapshot shape; the
// ledger treats whichever one is configured as a best-effort durable copy of
// its in-memory state.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/walletbook/walletbook/internal/config"
	"github.com/walletbook/walletbook/internal/ledger"
)

// Store loads and saves ledger snapshots. Load reports absent=false via its
// boolean result rather than an error, so a first run starts from an empty
// store without special-casing.
type Store interface {
	Load(ctx context.Context) (ledger.Snapshot, bool, error)
	Save(ctx context.Context, snap ledger.Snapshot) error
	Close() error
}

// Open builds the store selected by STORE_DRIVER.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		return NewFileStore(cfg.SnapshotPath)
	case config.DriverSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.DriverRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.SnapshotKey)
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func encodeSnapshot(snap ledger.Snapshot) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return payload, nil
}

func decodeSnapshot(payload []byte) (ledger.Snapshot, error) {
	var snap ledger.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
