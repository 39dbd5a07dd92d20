package storage

import (
	"fmt"
	"io"
	"time"

	"wallet_adapter/internal/app/port"
	"wallet_adapter/internal/infrastructure/configloader"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open builds the store selected by the storage config. The returned closer
// releases the store's resources.
func Open(cfg configloader.StorageConfig) (port.KeyValueStore, io.Closer, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(time.Duration(cfg.CleanupIntervalMins) * time.Minute), nopCloser{}, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
