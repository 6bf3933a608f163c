package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"
	"time" // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache key prefixes
const (
	CacheKeyUserTransactions = "invest:user:%d:transactions" // + ":page:%d:size:%d"
	CacheKeyAdminUsers       = "invest:admin:users"
	CacheKeyAdminDeposits    = "invest:admin:deposits"
	CacheKeyAdminWithdrawals = "invest:admin:withdrawals"
	CacheKeyAdminTxs         = "invest:admin:transactions"
)

// UserTransactionsPrefix returns the cache prefix of a user's history pages
func UserTransactionsPrefix(userID uint) string {
	return fmt.Sprintf(CacheKeyUserTransactions, userID)
}

// PageKey appends pagination to a cache prefix
func PageKey(prefix string, p Page, extra ...string) string {
	key := fmt.Sprintf("%s:page:%d:size:%d", prefix, p.Page, p.PageSize)
	for _, e := range extra {
		key += ":" + e
	}
	return key
}

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client behaves as a permanent miss.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// DeleteCache deletes every key under each prefix (the prefix itself included)
func DeleteCache(ctx context.Context, rdb *redis.Client, prefixes ...string) error {
	if rdb == nil {
		return nil
	}
	for _, prefix := range prefixes {
		iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return err
		}
		if len(keys) == 0 {
			continue
		}
		if err := rdb.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}
