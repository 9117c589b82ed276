package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const commandCachePrefix = "narrative:cmd"

var _ commands.CommandCache = (*RedisCommandCache)(nil)

// RedisCommandCache хранит разбор ввода игрока по паре (ввод, сцена).
type RedisCommandCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCommandCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCommandCache {
	return &RedisCommandCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisCommandCache"),
	}
}

// commandCacheKey — ключ сцены плюс хэш ввода, чтобы произвольный текст не
// попадал в ключ Redis.
func commandCacheKey(raw, sceneKey string) string {
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s:%s:%s", commandCachePrefix, sceneKey, hex.EncodeToString(sum[:]))
}

// Load возвращает сохранённый разбор или nil при промахе.
func (c *RedisCommandCache) Load(ctx context.Context, raw, sceneKey string) (*models.CachedCommand, error) {
	data, err := c.client.Get(ctx, commandCacheKey(raw, sceneKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cached command: %w", err)
	}

	var cached models.CachedCommand
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Dropping undecodable cached command", zap.String("scene", sceneKey), zap.Error(err))
		return nil, nil
	}
	if cached.Raw != raw || cached.SceneKey != sceneKey {
		return nil, nil
	}
	return &cached, nil
}

// Store сохраняет разбор с TTL кэша.
func (c *RedisCommandCache) Store(ctx context.Context, raw, sceneKey string, cmds models.Commands) error {
	data, err := json.Marshal(models.CachedCommand{Raw: raw, SceneKey: sceneKey, Commands: cmds})
	if err != nil {
		return fmt.Errorf("marshal cached command: %w", err)
	}
	if err := c.client.Set(ctx, commandCacheKey(raw, sceneKey), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("store cached command: %w", err)
	}
	c.logger.Debug("Command cached", zap.String("scene", sceneKey), zap.Int("commands", len(cmds.Commands)))
	return nil
}
