package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/cache"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// ProfileCacheKey identifies a cached profile by user and the timestamp of
// the user's newest interaction, so any new interaction moves to a new key.
func ProfileCacheKey(userID uuid.UUID, lastInteraction *time.Time) string {
	if lastInteraction == nil || lastInteraction.IsZero() {
		return fmt.Sprintf("behavior_profile:%s:none", userID)
	}
	return fmt.Sprintf("behavior_profile:%s:%d", userID, lastInteraction.UTC().UnixMilli())
}

// ProfileCache memoizes analyzed profiles. Cache failures degrade to misses.
type ProfileCache struct {
	store   cache.Cache
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewProfileCache(store cache.Cache, ttl time.Duration, baseLog *logger.Logger, metrics *observability.Metrics) *ProfileCache {
	return &ProfileCache{
		store:   store,
		ttl:     ttl,
		log:     baseLog.With("component", "ProfileCache"),
		metrics: metrics,
	}
}

func (c *ProfileCache) Get(ctx context.Context, key string) (*types.BehaviorProfile, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	p, ok, err := cache.GetJSON[types.BehaviorProfile](ctx, c.store, key)
	if err != nil {
		c.log.Warn("profile cache read failed", "key", key, "error", err)
		c.metrics.ProfileCacheLookup("error")
		c.metrics.DependencyFailure("cache")
		return nil, false
	}
	if !ok {
		c.metrics.ProfileCacheLookup("miss")
		return nil, false
	}
	return &p, true
}

func (c *ProfileCache) Put(ctx context.Context, key string, p *types.BehaviorProfile) {
	if c == nil || c.store == nil || p == nil {
		return
	}
	if err := cache.SetJSON(ctx, c.store, key, p, c.ttl); err != nil {
		c.log.Warn("profile cache write failed", "key", key, "error", err)
		c.metrics.DependencyFailure("cache")
	}
}

func (c *ProfileCache) Forget(ctx context.Context, key string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.Warn("profile cache delete failed", "key", key, "error", err)
		c.metrics.DependencyFailure("cache")
	}
}
