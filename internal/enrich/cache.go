package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AngelCh415/leadintel/internal/models"
)

type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]*models.EnrichmentData
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]*models.EnrichmentData)}
}

func (c *MemoryCache) Get(_ context.Context, domain string) (*models.EnrichmentData, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.data[domain]
	return d, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, domain string, data *models.EnrichmentData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[domain] = data
	return nil
}

const keyEnrichment = "leadintel:enrichment:%s"

// RedisCache comparte lookups entre procesos; ttl cero no expira.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func NewRedisCacheFromURL(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, domain string) (*models.EnrichmentData, bool, error) {
	raw, err := c.client.Get(ctx, fmt.Sprintf(keyEnrichment, domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var d models.EnrichmentData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, fmt.Errorf("decode cached enrichment: %w", err)
	}
	return &d, true, nil
}

func (c *RedisCache) Set(ctx context.Context, domain string, data *models.EnrichmentData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fmt.Sprintf(keyEnrichment, domain), b, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
