// Package storage persists small named values per browser session, such as
// the serialized cart or the signed-in identity.
package storage

import (
	"context"
	"errors"
)

var (
	ErrInvalidDriver = errors.New("storage: unsupported driver")
	ErrInvalidConfig = errors.New("storage: missing driver dependency")
)

// Driver selects the Store implementation.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverRedis  Driver = "redis"
	DriverSQL    Driver = "sql"
)

// Store is a durable key/value store scoped by browser session.
type Store interface {
	// Get returns ok=false when nothing is stored under name.
	Get(ctx context.Context, sessionID, name string) ([]byte, bool, error)
	// Put replaces the stored value.
	Put(ctx context.Context, sessionID, name string, value []byte) error
	Delete(ctx context.Context, sessionID, name string) error
	Ping(ctx context.Context) error
	// Close releases resources owned by the store. Shared clients passed in
	// through options are left open.
	Close() error
}

// New builds a Store for the given driver.
// The redis driver requires WithRedis and the sql driver requires WithDB.
func New(driver Driver, opts ...Option) (Store, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverMemory:
		return NewMemory(), nil

	case DriverRedis:
		if cfg.redis == nil {
			return nil, ErrInvalidConfig
		}
		return &redisStore{client: cfg.redis, ttl: cfg.ttl}, nil

	case DriverSQL:
		if cfg.db == nil {
			return nil, ErrInvalidConfig
		}
		return &sqlStore{client: cfg.db}, nil

	default:
		return nil, ErrInvalidDriver
	}
}
