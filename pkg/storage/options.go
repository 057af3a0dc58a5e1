package storage

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// Option configures New.
type Option func(*options)

type options struct {
	redis *redis.Client
	db    *db.Client
	ttl   time.Duration
}

// WithRedis sets the client used by the redis driver.
func WithRedis(client *redis.Client) Option {
	return func(o *options) {
		o.redis = client
	}
}

// WithDB sets the client used by the sql driver.
func WithDB(client *db.Client) Option {
	return func(o *options) {
		o.db = client
	}
}

// WithTTL expires redis keys after ttl of inactivity. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}
