package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/umeet/watchparty/internal/models"
)

const seedKeyPrefix = "room:seed:"

// SeedCache is a Redis read-through cache in front of the room repository.
// Seed records are consulted only when a live session is first created and
// are immutable once a session exists, so a short TTL cannot introduce
// divergence between participants.
type SeedCache struct {
	repo   *Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSeedCache wraps the repository with a Redis cache.
func NewSeedCache(repo *Repository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SeedCache {
	return &SeedCache{repo: repo, rdb: rdb, ttl: ttl, logger: logger}
}

// RoomSeed resolves the persisted room record, preferring the cache.
// Cache failures fall through to Postgres; only ErrNotFound is surfaced as a
// missing room.
func (c *SeedCache) RoomSeed(ctx context.Context, roomID string) (*models.Room, error) {
	key := seedKeyPrefix + roomID
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		if err == nil {
			var room models.Room
			if json.Unmarshal(raw, &room) == nil {
				return &room, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("room seed cache read failed", zap.String("room_id", roomID), zap.Error(err))
		}
	}

	room, err := c.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(room); err == nil {
			if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("room seed cache write failed", zap.String("room_id", roomID), zap.Error(err))
			}
		}
	}
	return room, nil
}
