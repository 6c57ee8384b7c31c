package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client
var Ctx = context.Background()

const runLockPrefix = "newsggl:lock:run:"

// ConnectRedis is optional: the run lock is only enforced when REDIS_URL is
// configured.
func ConnectRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		fmt.Println("REDIS_URL environment variable is not set")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}

	Redis = redis.NewClient(opt)

	_, err = Redis.Ping(Ctx).Result()
	return err
}

func CloseRedis() {
	if Redis != nil {
		Redis.Close()
	}
}

// AcquireRunLock takes the per-day lock so two scheduled passes never overlap.
// Returns false when another invocation already holds it. The TTL guards
// against a crashed holder.
func AcquireRunLock(day string, ttl time.Duration) (bool, error) {
	return Redis.SetNX(Ctx, runLockPrefix+day, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// ReleaseRunLock drops the day's lock after the pass finished.
func ReleaseRunLock(day string) error {
	return Redis.Del(Ctx, runLockPrefix+day).Err()
}
