package main

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5w1tchy/reading-journal/internal/config"
)

// newRedis prefers a full URL (e.g. rediss://default:<token>@host:port) and
// falls back to the split fields.
func newRedis(cfg config.Redis) (*redis.Client, error) {
	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTASH_REDIS_URL: %w", err)
		}
		if opt.TLSConfig != nil {
			opt.TLSConfig.MinVersion = tls.VersionTLS12
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.User,
		Password:     cfg.Password,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS12},
	}), nil
}
