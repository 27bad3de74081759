package utils

import (
	"Mini_Drive/internal/repo"
	"Mini_Drive/model"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis cache client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
	}
}

// Get reads a cached JSON value into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Set writes a value as JSON.
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, string(data), expiration).Err()
}

// Delete removes a cache entry.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

type CacheManager struct {
	cache Cache
}

var globalCacheManager *CacheManager
var cacheManagerOnce sync.Once

// InitCacheManager initializes the cache manager on top of repo.Redis.
func InitCacheManager() {
	cacheManagerOnce.Do(func() {
		globalCacheManager = &CacheManager{
			cache: NewRedisCache(repo.Redis),
		}
	})
}

// GetCacheManager returns the cache manager.
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		InitCacheManager()
	}
	return globalCacheManager
}

// BuildCacheKey builds a cache key.
func BuildCacheKey(prefix string, params ...interface{}) string {
	key := prefix
	for _, param := range params {
		key += fmt.Sprintf(":%v", param)
	}
	return key
}

const (
	CacheKeyUserRole     = "user:role"
	CacheKeyShareLink    = "share:link"
	CacheKeyRevokedToken = "auth:revoked"
)

// GetUserRoleFromCache reads a cached role name.
func GetUserRoleFromCache(ctx context.Context, userID string) (string, bool) {
	var role string
	if err := GetCacheManager().cache.Get(ctx, BuildCacheKey(CacheKeyUserRole, userID), &role); err != nil {
		return "", false
	}
	return role, role != ""
}

// SetUserRoleToCache writes a cached role name.
func SetUserRoleToCache(ctx context.Context, userID, role string, expiration time.Duration) error {
	return GetCacheManager().cache.Set(ctx, BuildCacheKey(CacheKeyUserRole, userID), role, expiration)
}

// InvalidateUserRoleCache clears a cached role.
func InvalidateUserRoleCache(ctx context.Context, userID string) error {
	return GetCacheManager().cache.Delete(ctx, BuildCacheKey(CacheKeyUserRole, userID))
}

// GetShareLinkFromCache reads a cached link by token hash.
func GetShareLinkFromCache(ctx context.Context, tokenHash string) (*model.ShareLink, bool) {
	var link model.ShareLink
	if err := GetCacheManager().cache.Get(ctx, BuildCacheKey(CacheKeyShareLink, tokenHash), &link); err != nil {
		return nil, false
	}
	return &link, link.ID != ""
}

// SetShareLinkToCache writes a link keyed by token hash.
func SetShareLinkToCache(ctx context.Context, tokenHash string, link *model.ShareLink, expiration time.Duration) error {
	return GetCacheManager().cache.Set(ctx, BuildCacheKey(CacheKeyShareLink, tokenHash), link, expiration)
}

// InvalidateShareLinkCache clears a cached link.
func InvalidateShareLinkCache(ctx context.Context, tokenHash string) error {
	return GetCacheManager().cache.Delete(ctx, BuildCacheKey(CacheKeyShareLink, tokenHash))
}
