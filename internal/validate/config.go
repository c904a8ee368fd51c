package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/5w1tchy/reading-journal/internal/config"
	"github.com/redis/go-redis/v9"
)

// Env validates the configuration needed to serve requests. Fail-fast on bad config.
func Env(cfg config.Config) error {
	var errs []error
	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if len(cfg.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be at least 32 characters"))
	}
	if cfg.Redis.URL == "" && (cfg.Redis.Addr == "" || cfg.Redis.User == "" || cfg.Redis.Password == "") {
		errs = append(errs, errors.New("missing Redis config: set UPSTASH_REDIS_URL or REDIS_ADDR/REDIS_USER/REDIS_PASSWORD"))
	}
	if cfg.Argon2.Memory < 65536 { // >= 64MiB
		errs = append(errs, fmt.Errorf("ARGON2_MEMORY: must be >= %d", 65536))
	}
	if cfg.Argon2.Iterations < 2 {
		errs = append(errs, errors.New("ARGON2_ITER: must be >= 2"))
	}
	if cfg.Argon2.Parallelism < 1 {
		errs = append(errs, errors.New("ARGON2_PAR: must be >= 1"))
	}
	if cfg.Storage.Bucket == "" || cfg.Storage.Endpoint == "" {
		errs = append(errs, errors.New("AWS_BUCKET and AWS_ENDPOINT are required for memo images"))
	}
	if cfg.Storage.PublicBaseURL != "" && !IsHTTPURL(cfg.Storage.PublicBaseURL) {
		errs = append(errs, errors.New("MEMO_IMAGE_PUBLIC_BASE_URL must be an http(s) URL"))
	}
	if cfg.Memo.SampleDefault < 1 || cfg.Memo.SampleMax < cfg.Memo.SampleDefault {
		errs = append(errs, errors.New("MEMO_SAMPLE_DEFAULT must be >= 1 and <= MEMO_SAMPLE_MAX"))
	}
	if cfg.Limits.MaxImageBytes <= 0 || cfg.Limits.MaxBodySize <= 0 {
		errs = append(errs, errors.New("MAX_BODY_SIZE and MAX_IMAGE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// HardeningWarnings returns non-fatal warnings worth logging on startup.
func HardeningWarnings(cfg config.Config) []string {
	var warns []string

	if cfg.Auth.AccessTTL > time.Hour {
		warns = append(warns, fmt.Sprintf("AUTH_ACCESS_TTL=%s is > 1h; consider shorter access tokens", cfg.Auth.AccessTTL))
	}
	if cfg.Auth.RefreshTTL < 24*time.Hour {
		warns = append(warns, fmt.Sprintf("AUTH_REFRESH_TTL=%s is < 24h; users may be logged out too often", cfg.Auth.RefreshTTL))
	}

	if strings.EqualFold(cfg.AppEnv, "production") {
		if !cfg.Argon2.Explicit {
			warns = append(warns, "ARGON2_* not explicitly set; using code defaults. Set strong values in production")
		}
		if strings.HasPrefix(cfg.Redis.URL, "redis://") {
			warns = append(warns, "UPSTASH_REDIS_URL uses redis:// (no TLS). Prefer rediss:// for TLS")
		}
		if cfg.TLSCertFile == "" {
			warns = append(warns, "TLS_CERT_FILE not set; serving plain HTTP")
		}
		if cfg.Storage.PublicBaseURL == "" {
			warns = append(warns, "MEMO_IMAGE_PUBLIC_BASE_URL not set; image memos will use the bucket endpoint URL")
		}
	}
	return warns
}

// PingRedis checks connectivity with a short timeout.
func PingRedis(rdb *redis.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_, err := rdb.Ping(ctx).Result()
	return err
}
