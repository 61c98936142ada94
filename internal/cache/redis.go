// Package cache holds the Redis-backed idempotency keys used to absorb
// double-submitted return requests.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"book-rental-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// idem:return:create:{customer_id}:{key} -> rma number
	keyIdemReturnCreate = "idem:return:create:%s:%s"

	DefaultIdempotencyTTL = 24 * time.Hour
)

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// kv is the subset of redis.Cmdable the store needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type IdempotencyStore struct {
	rdb kv
	ttl time.Duration
}

func NewIdempotencyStore(rdb kv, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func createKey(customerID, key string) string {
	return fmt.Sprintf(keyIdemReturnCreate, customerID, key)
}

// Lookup returns the RMA number previously stored under key, if any.
func (s *IdempotencyStore) Lookup(ctx context.Context, customerID, key string) (string, bool, error) {
	logger.ExternalServiceCall("redis", "GET", "customerID", customerID)
	rma, err := s.rdb.Get(ctx, createKey(customerID, key)).Result()
	if errors.Is(err, redis.Nil) {
		logger.ExternalServiceResult("redis", "GET", nil, "hit", false)
		return "", false, nil
	}
	logger.ExternalServiceResult("redis", "GET", err, "hit", err == nil)
	if err != nil {
		return "", false, err
	}
	return rma, true, nil
}

// Remember stores rma under key unless another request got there first.
func (s *IdempotencyStore) Remember(ctx context.Context, customerID, key, rma string) error {
	logger.ExternalServiceCall("redis", "SETNX", "customerID", customerID, "rma", rma)
	_, err := s.rdb.SetNX(ctx, createKey(customerID, key), rma, s.ttl).Result()
	logger.ExternalServiceResult("redis", "SETNX", err)
	return err
}
