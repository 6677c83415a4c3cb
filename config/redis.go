package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisEnabled reports whether REDIS_ENABLED asks for a Redis connection.
func RedisEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("REDIS_ENABLED")))
	return v == "true" || v == "1" || v == "yes"
}

// RedisOptions builds client options from REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
// An unparsable REDIS_DB falls back to database 0.
func RedisOptions() *redis.Options {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if v, err := strconv.Atoi(dbStr); err == nil {
			dbNum = v
		}
	}
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       dbNum,
	}
}

// ConnectRedis returns a pinged Redis client, or nil without error when Redis is disabled.
func ConnectRedis() (*redis.Client, error) {
	if !RedisEnabled() {
		return nil, nil
	}
	opts := RedisOptions()
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Printf("Connected to Redis at %s", opts.Addr)
	return rdb, nil
}
