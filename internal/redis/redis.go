// Package redis stores saved board views and short-lived task snapshots in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/tasks"
)

const (
	// ViewKeyPrefix is the Redis key prefix for saved views.
	ViewKeyPrefix = "todoboard:view:"
	// SnapshotKeyPrefix is the Redis key prefix for task snapshots.
	SnapshotKeyPrefix = "todoboard:snapshot:"
	// SnapshotTTL is how long a snapshot survives.
	SnapshotTTL = 10 * time.Minute
	// DefaultRedisURL is the default Redis connection URL.
	DefaultRedisURL = "redis://localhost:6379"
)

var (
	// ErrViewNotFound is returned for an unknown saved view.
	ErrViewNotFound = errors.New("saved view not found")
	// ErrNoSnapshot is returned when no snapshot exists for a store.
	ErrNoSnapshot = errors.New("no snapshot")
)

// SavedView is a named projection configuration.
type SavedView struct {
	Name    string            `json:"name" yaml:"name"`
	Config  projection.Config `json:"config" yaml:"config"`
	SavedAt int64             `json:"savedAt" yaml:"saved_at"` // unix millis
}

// Snapshot is the last fetched task collection of a store.
type Snapshot struct {
	Store     string         `json:"store"`
	FetchedAt int64          `json:"fetchedAt"` // unix millis
	Tasks     []tasks.Task   `json:"tasks"`
	Members   []tasks.Member `json:"members,omitempty"`
}

// Freshness classifies a snapshot by age.
type Freshness string

const (
	FreshnessFresh   Freshness = "fresh"
	FreshnessStale   Freshness = "stale"
	FreshnessExpired Freshness = "expired"
)

// Client wraps a Redis client with board-specific operations.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client. An empty url falls back to
// REDIS_URL and then to DefaultRedisURL.
func NewClient(url string) (*Client, error) {
	if url == "" {
		url = os.Getenv("REDIS_URL")
	}
	if url == "" {
		url = DefaultRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SaveView stores cfg under name, replacing any previous view.
func (c *Client) SaveView(ctx context.Context, name string, cfg projection.Config) (*SavedView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: view name is required", tasks.ErrValidation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", tasks.ErrValidation, err)
	}

	view := &SavedView{Name: name, Config: cfg, SavedAt: time.Now().UnixMilli()}
	data, err := json.Marshal(view)
	if err != nil {
		return nil, err
	}
	if err := c.rdb.Set(ctx, ViewKeyPrefix+name, data, 0).Err(); err != nil {
		return nil, err
	}
	return view, nil
}

// GetView returns a saved view.
func (c *Client) GetView(ctx context.Context, name string) (*SavedView, error) {
	data, err := c.rdb.Get(ctx, ViewKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	var view SavedView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("corrupt view %s: %w", name, err)
	}
	return &view, nil
}

// ListViews returns every saved view ordered by name. Corrupt entries are skipped.
func (c *Client) ListViews(ctx context.Context) ([]SavedView, error) {
	keys, err := c.scanKeys(ctx, ViewKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return nil, nil
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	var views []SavedView
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue
		}

		var view SavedView
		if err := json.Unmarshal([]byte(str), &view); err != nil {
			continue
		}
		views = append(views, view)
	}

	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views, nil
}

// DeleteView removes a saved view.
func (c *Client) DeleteView(ctx context.Context, name string) error {
	n, err := c.rdb.Del(ctx, ViewKeyPrefix+name).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}
	return nil
}

// SetSnapshot stores the collection for snap.Store. Snapshots expire after SnapshotTTL.
func (c *Client) SetSnapshot(ctx context.Context, snap *Snapshot) error {
	if snap.FetchedAt == 0 {
		snap.FetchedAt = time.Now().UnixMilli()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, SnapshotKeyPrefix+snap.Store, data, SnapshotTTL).Err()
}

// GetSnapshot returns the snapshot for a store.
func (c *Client) GetSnapshot(ctx context.Context, store string) (*Snapshot, error) {
	data, err := c.rdb.Get(ctx, SnapshotKeyPrefix+store).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("corrupt snapshot: %w", err)
	}
	return &snap, nil
}

// scanKeys scans for all keys matching a pattern.
func (c *Client) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		var batch []string
		var err error
		batch, cursor, err = c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return keys, err
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// IsAvailable checks if Redis is reachable at url.
func IsAvailable(url string) bool {
	client, err := NewClient(url)
	if err != nil {
		return false
	}
	defer client.Close()
	return true
}

// DetermineFreshness classifies a snapshot by its age at now.
func DetermineFreshness(snap *Snapshot, now time.Time) Freshness {
	if snap == nil {
		return FreshnessExpired
	}

	age := now.Sub(time.UnixMilli(snap.FetchedAt))

	if age < time.Minute {
		return FreshnessFresh
	} else if age < SnapshotTTL {
		return FreshnessStale
	}
	return FreshnessExpired
}
