// Package db persists the count of rooms ever created. The counter outlives
// the relay process; document contents never touch it.
package db

import (
	"context"
	"sync"

	"github.com/manpreetbhatti/codesync/internal/config"
	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
)

// Counter is a monotonic, externally persisted room counter.
type Counter interface {
	Increment(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Open builds the counter selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Counter, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLite(cfg.Path, cfg.CounterID)
	case config.DriverPostgres:
		return NewPostgres(ctx, cfg.PostgresURL, cfg.CounterID)
	case config.DriverRedis:
		return NewRedis(ctx, cfg.RedisAddr, cfg.CounterID)
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, cserrors.ConfigInvalid("unknown store driver " + cfg.Driver)
	}
}

// Memory is a process-local Counter for tests and store-less runs.
type Memory struct {
	mu    sync.Mutex
	count int64
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Increment(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return nil
}

func (m *Memory) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

func (m *Memory) Close() error { return nil }
