package services

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/cache"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

func newTestLimiter(s *store, c cache.Cache, limit int, now time.Time) *dailySeenLimiter {
	cfg := DefaultDailySeenConfig()
	cfg.Limit = limit
	cfg.Location = time.UTC
	l := NewDailySeenLimiter(cfg, logger.Nop(), nil, s.repoSet().DailySeen, c).(*dailySeenLimiter)
	l.now = func() time.Time { return now }
	return l
}

func TestTTLUntilMidnight(t *testing.T) {
	now := time.Date(2025, 3, 10, 22, 30, 0, 0, time.UTC)
	if got := TTLUntilMidnight(now, time.UTC); got != 90*time.Minute {
		t.Fatalf("ttl: want=90m got=%v", got)
	}
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 22:30 UTC is 00:30 the next day at UTC+2.
	if got := TTLUntilMidnight(now, loc); got != 23*time.Hour+30*time.Minute {
		t.Fatalf("ttl in zone: want=23h30m got=%v", got)
	}
	if got := SeenDate(now, loc); got != "2025-03-11" {
		t.Fatalf("date in zone: want=2025-03-11 got=%s", got)
	}
}

func TestMarkAsSeenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, c := range map[string]cache.Cache{
		"memory": cache.NewMemoryCache(),
		"none":   nil,
		"broken": failingCache{},
	} {
		s := newStore()
		userID := s.addUser()
		l := newTestLimiter(s, c, 3, analysisNow)

		first, err := l.MarkAsSeen(ctx, userID, 10)
		if err != nil || !first {
			t.Fatalf("%s: first mark: added=%v err=%v", name, first, err)
		}
		again, err := l.MarkAsSeen(ctx, userID, 10)
		if err != nil || again {
			t.Fatalf("%s: second mark: added=%v err=%v", name, again, err)
		}
		n, err := l.CountToday(ctx, userID)
		if err != nil || n != 1 {
			t.Fatalf("%s: count: want=1 got=%d err=%v", name, n, err)
		}
	}
}

func TestDailyLimit(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	userID := s.addUser()
	l := newTestLimiter(s, cache.NewMemoryCache(), 3, analysisNow)

	if reached, _ := l.HasReachedLimit(ctx, userID); reached {
		t.Fatalf("fresh user must not be limited")
	}
	for id := int64(1); id <= 3; id++ {
		if _, err := l.MarkAsSeen(ctx, userID, id); err != nil {
			t.Fatalf("mark %d: %v", id, err)
		}
	}
	reached, err := l.HasReachedLimit(ctx, userID)
	if err != nil || !reached {
		t.Fatalf("limit: want=true got=%v err=%v", reached, err)
	}
	if left, _ := l.GetRemainingToday(ctx, userID); left != 0 {
		t.Fatalf("remaining: want=0 got=%d", left)
	}
	ids, err := l.SeenToday(ctx, userID)
	if err != nil || !reflect.DeepEqual(ids, []int64{1, 2, 3}) {
		t.Fatalf("seen today: got=%v err=%v", ids, err)
	}

	// A new day starts from zero.
	l.now = func() time.Time { return analysisNow.Add(24 * time.Hour) }
	if left, _ := l.GetRemainingToday(ctx, userID); left != 3 {
		t.Fatalf("next day remaining: want=3 got=%d", left)
	}
}

func TestLimiterRewarmsFromDurableStore(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	userID := s.addUser()
	mem := cache.NewMemoryCache()
	l := newTestLimiter(s, mem, 20, analysisNow)

	for _, id := range []int64{4, 5} {
		if _, err := s.repoSet().DailySeen.Insert(ctxDB(ctx), userID, id, SeenDate(analysisNow, time.UTC)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	n, err := l.CountToday(ctx, userID)
	if err != nil || n != 2 {
		t.Fatalf("count from store: want=2 got=%d err=%v", n, err)
	}

	// Eviction is recovered on the next read.
	if err := mem.Delete(ctx, DailySeenKey(userID, SeenDate(analysisNow, time.UTC))); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := l.MarkAsSeen(ctx, userID, 6); err != nil {
		t.Fatalf("mark: %v", err)
	}
	ids, err := l.SeenToday(ctx, userID)
	if err != nil || !reflect.DeepEqual(ids, []int64{4, 5, 6}) {
		t.Fatalf("seen: want=[4 5 6] got=%v err=%v", ids, err)
	}
	if n, _ := l.CountToday(ctx, userID); n != 3 {
		t.Fatalf("count: want=3 got=%d", n)
	}
}

func TestLimiterEmptyDayIsCached(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	userID := uuid.New()
	mem := cache.NewMemoryCache()
	l := newTestLimiter(s, mem, 20, analysisNow)

	if n, err := l.CountToday(ctx, userID); err != nil || n != 0 {
		t.Fatalf("count: want=0 got=%d err=%v", n, err)
	}
	ok, err := mem.Exists(ctx, DailySeenKey(userID, SeenDate(analysisNow, time.UTC)))
	if err != nil || !ok {
		t.Fatalf("empty day should leave a warmed key: ok=%v err=%v", ok, err)
	}
}

// expiringCache drops the key right before each set write, as if its TTL
// ran out between the caller's last read and the write.
type expiringCache struct {
	*cache.MemoryCache
}

func (c expiringCache) Exists(context.Context, string) (bool, error) { return true, nil }

func (c expiringCache) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) (int64, error) {
	_ = c.MemoryCache.Delete(ctx, key)
	return c.MemoryCache.AddToSet(ctx, key, ttl, members...)
}

func TestMarkAsSeenKeyExpiringMidWrite(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	userID := s.addUser()
	mem := cache.NewMemoryCache()
	l := newTestLimiter(s, expiringCache{mem}, 20, analysisNow)
	date := SeenDate(analysisNow, time.UTC)

	for _, id := range []int64{4, 5} {
		if _, err := s.repoSet().DailySeen.Insert(ctxDB(ctx), userID, id, date); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := l.MarkAsSeen(ctx, userID, 6); err != nil {
		t.Fatalf("mark: %v", err)
	}

	members, err := mem.SetMembers(ctx, DailySeenKey(userID, date))
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	hasSentinel := false
	for _, m := range members {
		if m == seenSentinel {
			hasSentinel = true
		}
	}
	if !hasSentinel {
		t.Fatalf("sentinel missing after rewrite: members=%v", members)
	}
	if n, err := l.CountToday(ctx, userID); err != nil || n != 3 {
		t.Fatalf("count: want=3 got=%d err=%v", n, err)
	}
}
