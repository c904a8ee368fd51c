package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidRefresh = errors.New("invalid refresh token")

// RefreshStore is the allowlist of live refresh tokens. Consume is single
// use: a token is gone once it has been read.
type RefreshStore interface {
	Issue(ctx context.Context, memberID string, tokenVersion int) (string, error)
	Consume(ctx context.Context, token string) (memberID string, tokenVersion int, err error)
	Revoke(ctx context.Context, token string) error
}

const refreshPrefix = "rt:"

// RedisRefreshStore keeps rt:<token> -> "<memberID>|<tokenVersion>" with a TTL.
type RedisRefreshStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRefreshStore(rdb *redis.Client, ttl time.Duration) *RedisRefreshStore {
	return &RedisRefreshStore{rdb: rdb, ttl: ttl}
}

func (s *RedisRefreshStore) Issue(ctx context.Context, memberID string, tokenVersion int) (string, error) {
	token, err := randToken()
	if err != nil {
		return "", err
	}
	val := memberID + "|" + strconv.Itoa(tokenVersion)
	if err := s.rdb.Set(ctx, refreshPrefix+token, val, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisRefreshStore) Consume(ctx context.Context, token string) (string, int, error) {
	if token == "" {
		return "", 0, ErrInvalidRefresh
	}
	val, err := s.rdb.GetDel(ctx, refreshPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", 0, ErrInvalidRefresh
	}
	if err != nil {
		return "", 0, err
	}
	return parseRefreshValue(val)
}

func (s *RedisRefreshStore) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.rdb.Del(ctx, refreshPrefix+token).Err()
}

func parseRefreshValue(val string) (string, int, error) {
	memberID, rawTV, ok := strings.Cut(val, "|")
	if !ok || memberID == "" {
		return "", 0, ErrInvalidRefresh
	}
	tv, err := strconv.Atoi(rawTV)
	if err != nil {
		return "", 0, ErrInvalidRefresh
	}
	return memberID, tv, nil
}

func randToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
