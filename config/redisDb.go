package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

var locker *redislock.Client

var redisCtx = context.Background()

// GetRedisLock returns the lock client, or nil when Redis is not configured.
// Callers must treat nil as "locking unavailable", not as an error.
func GetRedisLock() *redislock.Client {
	return locker
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// ConnectRedis connects the shared Redis client used for upload locks.
// Redis is optional for this service: without it, concurrent runs of the
// same upload are only guarded by the upload status row. A single attempt
// is made; batch tools should not block on a cache being down.
func ConnectRedis() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		log.Printf("REDIS_ADDRESS not set; upload locking disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(redisCtx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("failed to connect redis (addr=%s): %v; upload locking disabled", redisAddr, err)
		return
	}

	locker = redislock.New(client)
	log.Printf("connected to redis (addr=%s)", redisAddr)
}
