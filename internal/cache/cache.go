package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventsImporter/internal/config"
	"eventsImporter/internal/utils/logger/sl"

	"github.com/redis/go-redis/v9"
)

// Cache — redis-хранилище для перезалитых картинок.
type Cache struct {
	log    *slog.Logger
	client *redis.Client
	ttl    time.Duration
}

type imageEntry struct {
	URL     string `json:"url"`
	Service string `json:"service"`
}

// New подключается к redis и проверяет соединение.
func New(ctx context.Context, log *slog.Logger, cfg config.RedisConfig) (*Cache, error) {
	op := "cache.New()"

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Cache{log: log, client: client, ttl: cfg.TTL}, nil
}

// NewWithClient оборачивает готовый клиент.
func NewWithClient(log *slog.Logger, client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{log: log, client: client, ttl: ttl}
}

// Images возвращает кэш картинок с собственным префиксом ключей.
func (c *Cache) Images(prefix string) *ImageCache {
	return &ImageCache{cache: c, prefix: prefix}
}

func (c *Cache) Shutdown(_ context.Context) error {
	return c.client.Close()
}

// ImageCache хранит соответствие исходного URL и перезалитой копии.
type ImageCache struct {
	cache  *Cache
	prefix string
}

// GetImage ищет картинку. Любая ошибка redis считается промахом.
func (ic *ImageCache) GetImage(ctx context.Context, original string) (string, string, bool) {
	op := "ImageCache.GetImage()"

	b, err := ic.cache.client.Get(ctx, ic.prefix+original).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			ic.cache.log.Warn("cache get failed", slog.String("op", op), sl.Err(err))
		}
		return "", "", false
	}

	var e imageEntry
	if err := json.Unmarshal(b, &e); err != nil || e.URL == "" {
		return "", "", false
	}

	return e.URL, e.Service, true
}

// SetImage сохраняет картинку с TTL кэша. Ошибки только логируются.
func (ic *ImageCache) SetImage(ctx context.Context, original string, url string, service string) {
	op := "ImageCache.SetImage()"

	b, err := json.Marshal(imageEntry{URL: url, Service: service})
	if err != nil {
		return
	}

	if err := ic.cache.client.Set(ctx, ic.prefix+original, b, ic.cache.ttl).Err(); err != nil {
		ic.cache.log.Warn("cache set failed", slog.String("op", op), sl.Err(err))
	}
}
