package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"ponyfiction/internal/model"
)

// StoryCache keeps JSON snapshots of published stories.
type StoryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewStoryCache(client *redisv9.Client, ttl time.Duration) *StoryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StoryCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *StoryCache) Get(ctx context.Context, storyID uint) (*model.Story, bool, error) {
	raw, err := c.client.Get(ctx, c.storyKey(storyID)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get story failed: %w", err)
	}

	var story model.Story
	if err := json.Unmarshal(raw, &story); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached story failed: %w", err)
	}
	return &story, true, nil
}

// Set stores story unless it is a draft.
func (c *StoryCache) Set(ctx context.Context, story *model.Story) error {
	if story == nil || story.IsDraft {
		return nil
	}
	payload, err := json.Marshal(story)
	if err != nil {
		return fmt.Errorf("marshal story cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.storyKey(story.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set story failed: %w", err)
	}
	return nil
}

func (c *StoryCache) Delete(ctx context.Context, storyID uint) error {
	if err := c.client.Del(ctx, c.storyKey(storyID)).Err(); err != nil {
		return fmt.Errorf("redis delete story failed: %w", err)
	}
	return nil
}

func (c *StoryCache) storyKey(storyID uint) string {
	return fmt.Sprintf("story:%d", storyID)
}
