package repo

import (
	"Mini_Drive/config"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ErrLockBusy is returned when another holder owns the lock.
var ErrLockBusy = errors.New("lock is busy")

type RedisLock struct {
	rdb   *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// InitRedis initializes Redis client.
func InitRedis() {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Fatal("init redis fail", err)
	}
	log.Println("init redis success")
	Redis = client
}

// NewRedisLock creates a Redis lock helper.
func NewRedisLock(rdb *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		rdb: rdb,
		key: key,
		ttl: ttl,
	}
}

// Lock acquires a Redis-based lock.
func (l *RedisLock) Lock(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockBusy
	}
	l.token = token
	return nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases the lock if it is still held by this holder.
func (l *RedisLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	_, err := unlockScript.Run(ctx, l.rdb, []string{l.key}, l.token).Result()
	l.token = ""
	return err
}
