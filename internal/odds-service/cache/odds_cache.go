package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct{ R *redis.Client }

func New(r *redis.Client) *Cache { return &Cache{R: r} }

const keyBoard = "odds:board"

func keyMatch(matchID int64) string { return "odds:match:" + strconv.FormatInt(matchID, 10) }

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, b, ttl).Err()
}

func (c *Cache) GetBoard(ctx context.Context, dst any) (bool, error) {
	return c.get(ctx, keyBoard, dst)
}

func (c *Cache) SetBoard(ctx context.Context, v any, ttl time.Duration) error {
	return c.set(ctx, keyBoard, v, ttl)
}

func (c *Cache) GetOdds(ctx context.Context, matchID int64, dst any) (bool, error) {
	return c.get(ctx, keyMatch(matchID), dst)
}

func (c *Cache) SetOdds(ctx context.Context, matchID int64, v any, ttl time.Duration) error {
	return c.set(ctx, keyMatch(matchID), v, ttl)
}

// Invalidate remove o quadro e as odds das partidas informadas
func (c *Cache) Invalidate(ctx context.Context, matchIDs ...int64) error {
	keys := []string{keyBoard}
	for _, id := range matchIDs {
		keys = append(keys, keyMatch(id))
	}
	return c.R.Del(ctx, keys...).Err()
}
