package services

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/example/blazehunter/internal/models"
)

const settingsCacheKey = "home_settings:last"

// SettingsCache remembers the last non-empty background URLs so the home page
// can still render when the data service is unreachable.
type SettingsCache interface {
	Load(ctx context.Context) (models.HomeSettings, bool, error)
	// Merge stores the non-empty fields of s, keeping previous values for
	// empty ones.
	Merge(ctx context.Context, s models.HomeSettings) error
}

// RedisSettingsCache stores the fields in a redis hash.
type RedisSettingsCache struct {
	client *redis.Client
}

// NewRedisSettingsCache builds a cache on client.
func NewRedisSettingsCache(client *redis.Client) *RedisSettingsCache {
	return &RedisSettingsCache{client: client}
}

func (r *RedisSettingsCache) Load(ctx context.Context) (models.HomeSettings, bool, error) {
	values, err := r.client.HGetAll(ctx, settingsCacheKey).Result()
	if errors.Is(err, redis.Nil) || (err == nil && len(values) == 0) {
		return models.HomeSettings{}, false, nil
	}
	if err != nil {
		return models.HomeSettings{}, false, err
	}
	return models.HomeSettings{
		ID:          models.HomeSettingsID,
		BgPcURL:     values["bg_pc_url"],
		BgMobileURL: values["bg_mobile_url"],
	}, true, nil
}

func (r *RedisSettingsCache) Merge(ctx context.Context, s models.HomeSettings) error {
	fields := map[string]interface{}{}
	if s.BgPcURL != "" {
		fields["bg_pc_url"] = s.BgPcURL
	}
	if s.BgMobileURL != "" {
		fields["bg_mobile_url"] = s.BgMobileURL
	}
	if len(fields) == 0 {
		return nil
	}
	return r.client.HSet(ctx, settingsCacheKey, fields).Err()
}

// MemorySettingsCache keeps the values in process memory.
type MemorySettingsCache struct {
	mu     sync.RWMutex
	value  models.HomeSettings
	filled bool
}

// NewMemorySettingsCache builds an empty cache.
func NewMemorySettingsCache() *MemorySettingsCache {
	return &MemorySettingsCache{}
}

func (m *MemorySettingsCache) Load(context.Context) (models.HomeSettings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.filled, nil
}

func (m *MemorySettingsCache) Merge(_ context.Context, s models.HomeSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.BgPcURL != "" {
		m.value.BgPcURL = s.BgPcURL
		m.filled = true
	}
	if s.BgMobileURL != "" {
		m.value.BgMobileURL = s.BgMobileURL
		m.filled = true
	}
	m.value.ID = models.HomeSettingsID
	return nil
}
