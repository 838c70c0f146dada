package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// ErrUnavailable wraps transport failures so callers can degrade instead of failing.
var ErrUnavailable = errors.New("cache unavailable")

// Cache is the key/value + set store the recommendation core relies on.
// A missing key is reported with ok=false, never as an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// AddToSet adds members to the set at key in one step and refreshes its
	// TTL. added counts the members that were not already present.
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) (added int64, err error)
	// SeedSet stores members in a fresh set with the given TTL.
	SeedSet(ctx context.Context, key string, members []string, ttl time.Duration) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	SetCard(ctx context.Context, key string) (int64, error)
}

func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool, error) {
	var zero T
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}
