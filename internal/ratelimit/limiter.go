// Package ratelimit wraps ulule/limiter with the store and defaults used for
// brute-force sensitive endpoints, the login form foremost.
package ratelimit

import (
	"fmt"
	"net/http"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	mstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// New builds a rate limiting middleware from a formatted rate such as "10-M"
// (ten requests per minute), keyed by client IP and backed by Redis.
func New(rdb *redis.Client, formatted, prefix string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("create limiter store: %w", err)
	}
	instance := limiter.New(store, rate)
	return mstdlib.NewMiddleware(instance).Handler, nil
}
