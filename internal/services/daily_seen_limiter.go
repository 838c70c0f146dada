package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/cache"
	"github.com/yungbote/gamerec-backend/internal/data/repos"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// seenSentinel marks a warmed set so an empty day is still a cache hit.
const seenSentinel = "-"

type DailySeenLimiter interface {
	// MarkAsSeen reports whether the game was newly recorded for today.
	MarkAsSeen(ctx context.Context, userID uuid.UUID, gameID int64) (bool, error)
	CountToday(ctx context.Context, userID uuid.UUID) (int, error)
	HasReachedLimit(ctx context.Context, userID uuid.UUID) (bool, error)
	GetRemainingToday(ctx context.Context, userID uuid.UUID) (int, error)
	SeenToday(ctx context.Context, userID uuid.UUID) ([]int64, error)
	Limit() int
}

type dailySeenLimiter struct {
	cfg     DailySeenConfig
	log     *logger.Logger
	metrics *observability.Metrics
	repo    repos.DailySeenRepo
	cache   cache.Cache
	now     func() time.Time
}

func NewDailySeenLimiter(cfg DailySeenConfig, baseLog *logger.Logger, metrics *observability.Metrics, repo repos.DailySeenRepo, store cache.Cache) DailySeenLimiter {
	return &dailySeenLimiter{
		cfg:     cfg,
		log:     baseLog.With("service", "DailySeenLimiter"),
		metrics: metrics,
		repo:    repo,
		cache:   store,
		now:     time.Now,
	}
}

// TTLUntilMidnight is the time left until the next midnight in loc.
func TTLUntilMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	return next.Sub(local)
}

// SeenDate is the calendar day key of t in loc.
func SeenDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(types.SeenDateLayout)
}

func DailySeenKey(userID uuid.UUID, date string) string {
	return fmt.Sprintf("daily_seen:%s:%s", userID, date)
}

func (l *dailySeenLimiter) Limit() int { return l.cfg.Limit }

func (l *dailySeenLimiter) today() (string, time.Duration) {
	now := l.now()
	loc := l.cfg.location()
	return SeenDate(now, loc), TTLUntilMidnight(now, loc)
}

func (l *dailySeenLimiter) MarkAsSeen(ctx context.Context, userID uuid.UUID, gameID int64) (bool, error) {
	date, ttl := l.today()
	inserted, err := l.repo.Insert(dbctx.New(ctx), userID, gameID, date)
	if err != nil {
		return false, fmt.Errorf("record seen game: %w", err)
	}
	if l.cache == nil {
		return inserted, nil
	}
	// The sentinel rides along with the member. Both being new means the set
	// was missing, so it is rebuilt from the durable rows, this one included.
	added, err := l.cache.AddToSet(ctx, DailySeenKey(userID, date), ttl, seenSentinel, strconv.FormatInt(gameID, 10))
	if err == nil && added == 2 {
		_, err = l.warm(ctx, userID, date, ttl)
	}
	if err != nil {
		l.degrade("mark", userID, err)
	}
	return inserted, nil
}

func (l *dailySeenLimiter) SeenToday(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	date, ttl := l.today()
	if l.cache != nil {
		ids, ok, err := l.cachedMembers(ctx, userID, date, ttl)
		if err == nil && ok {
			return ids, nil
		}
		if err != nil {
			l.degrade("members", userID, err)
		}
	}
	ids, err := l.repo.ListGameIDsForDate(dbctx.New(ctx), userID, date)
	if err != nil {
		return nil, fmt.Errorf("list seen games: %w", err)
	}
	return ids, nil
}

func (l *dailySeenLimiter) CountToday(ctx context.Context, userID uuid.UUID) (int, error) {
	date, ttl := l.today()
	if l.cache != nil {
		n, err := l.cachedCount(ctx, userID, date, ttl)
		if err == nil {
			return n, nil
		}
		l.degrade("count", userID, err)
	}
	n, err := l.repo.CountForDate(dbctx.New(ctx), userID, date)
	if err != nil {
		return 0, fmt.Errorf("count seen games: %w", err)
	}
	return int(n), nil
}

func (l *dailySeenLimiter) HasReachedLimit(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := l.CountToday(ctx, userID)
	if err != nil {
		return false, err
	}
	return n >= l.cfg.Limit, nil
}

func (l *dailySeenLimiter) GetRemainingToday(ctx context.Context, userID uuid.UUID) (int, error) {
	n, err := l.CountToday(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n >= l.cfg.Limit {
		return 0, nil
	}
	return l.cfg.Limit - n, nil
}

func (l *dailySeenLimiter) cachedCount(ctx context.Context, userID uuid.UUID, date string, ttl time.Duration) (int, error) {
	key := DailySeenKey(userID, date)
	n, err := l.cache.SetCard(ctx, key)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		ids, err := l.warm(ctx, userID, date, ttl)
		return len(ids), err
	}
	return int(n) - 1, nil
}

func (l *dailySeenLimiter) cachedMembers(ctx context.Context, userID uuid.UUID, date string, ttl time.Duration) ([]int64, bool, error) {
	members, err := l.cache.SetMembers(ctx, DailySeenKey(userID, date))
	if err != nil {
		return nil, false, err
	}
	if len(members) == 0 {
		ids, err := l.warm(ctx, userID, date, ttl)
		return ids, err == nil, err
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		if m == seenSentinel {
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true, nil
}

// warm rebuilds the day's set from the durable store.
func (l *dailySeenLimiter) warm(ctx context.Context, userID uuid.UUID, date string, ttl time.Duration) ([]int64, error) {
	ids, err := l.repo.ListGameIDsForDate(dbctx.New(ctx), userID, date)
	if err != nil {
		return nil, fmt.Errorf("list seen games: %w", err)
	}
	members := make([]string, 0, len(ids)+1)
	members = append(members, seenSentinel)
	for _, id := range ids {
		members = append(members, strconv.FormatInt(id, 10))
	}
	if err := l.cache.SeedSet(ctx, DailySeenKey(userID, date), members, ttl); err != nil {
		return ids, err
	}
	return ids, nil
}

func (l *dailySeenLimiter) degrade(op string, userID uuid.UUID, err error) {
	l.log.Warn("daily seen cache degraded", "op", op, "user_id", userID.String(), "error", err)
	l.metrics.DependencyFailure("cache")
}
