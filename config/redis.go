package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	Redis         *redis.Client
	initRedisOnce sync.Once
)

// InitRedis menyiapkan koneksi Redis untuk cache sesi.
// Redis bersifat opsional: jika REDIS_ADDR kosong, cache dilewati.
func InitRedis() error {
	var initError error
	initRedisOnce.Do(func() {
		if RedisAddr == "" {
			log.Println("⚠️ REDIS_ADDR belum diatur, cache sesi dinonaktifkan")
			return
		}

		client := redis.NewClient(&redis.Options{
			Addr:     RedisAddr,
			Password: RedisPassword,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			initError = fmt.Errorf("gagal melakukan ping ke Redis: %w", err)
			return
		}

		Redis = client
		log.Println("✅ Terhubung ke Redis!")
	})

	return initError
}

// CloseRedis closes the Redis connection gracefully
func CloseRedis() error {
	if Redis != nil {
		return Redis.Close()
	}
	return nil
}
