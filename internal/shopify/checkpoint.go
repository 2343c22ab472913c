package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checkpoint persists the end of the last successful pull window per
// store, so repeated runs can pull incrementally instead of re-fetching
// the full lookback window every time.
type Checkpoint struct {
	client *redis.Client
	store  string
}

// NewCheckpoint creates a Redis-backed checkpoint store.
func NewCheckpoint(addr string, db int, store string) *Checkpoint {
	return &Checkpoint{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		store:  store,
	}
}

func (c *Checkpoint) key() string {
	return fmt.Sprintf("reporter:pull_checkpoint:%s", c.store)
}

// Last returns the recorded pull-window end for this store. ok is false
// when no checkpoint exists yet.
func (c *Checkpoint) Last(ctx context.Context) (t time.Time, ok bool, err error) {
	val, err := c.client.Get(ctx, c.key()).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading pull checkpoint: %w", err)
	}

	t, err = time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt pull checkpoint %q: %w", val, err)
	}
	return t, true, nil
}

// Save records t as the pull-window end for this store.
func (c *Checkpoint) Save(ctx context.Context, t time.Time) error {
	if err := c.client.Set(ctx, c.key(), t.UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("saving pull checkpoint: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *Checkpoint) Close() error {
	return c.client.Close()
}
