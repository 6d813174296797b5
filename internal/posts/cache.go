package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/volunteerhub/backend/internal/models"
)

const teaserTTL = 30 * time.Second

// Cache wraps Redis for the teaser listing. The teaser is the hottest
// read in the system and goes stale on any post mutation, so entries
// carry a short TTL and mutating handlers invalidate explicitly.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func teaserKey(limit int64) string {
	return fmt.Sprintf("posts:teaser:%d", limit)
}

// GetTeaser returns the cached teaser listing, or ok=false on a miss.
// Redis faults degrade to a miss.
func (c *Cache) GetTeaser(ctx context.Context, limit int64) ([]models.Post, bool) {
	raw, err := c.rdb.Get(ctx, teaserKey(limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var posts []models.Post
	if err := json.Unmarshal(raw, &posts); err != nil {
		return nil, false
	}
	return posts, true
}

func (c *Cache) SetTeaser(ctx context.Context, limit int64, posts []models.Post) error {
	raw, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, teaserKey(limit), raw, teaserTTL).Err()
}

// Invalidate drops every teaser entry.
func (c *Cache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, "posts:teaser:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
