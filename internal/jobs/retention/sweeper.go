package retention

import (
	"context"
	"time"

	"github.com/yungbote/gamerec-backend/internal/data/repos"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
	"github.com/yungbote/gamerec-backend/internal/services"
)

const DefaultInterval = 6 * time.Hour

// Sweeper purges daily-seen rows older than the retention window.
type Sweeper struct {
	log      *logger.Logger
	repo     repos.DailySeenRepo
	cfg      services.DailySeenConfig
	metrics  *observability.Metrics
	interval time.Duration
	now      func() time.Time
}

func NewSweeper(baseLog *logger.Logger, repo repos.DailySeenRepo, cfg services.DailySeenConfig, metrics *observability.Metrics) *Sweeper {
	return &Sweeper{
		log:      baseLog.With("component", "RetentionSweeper"),
		repo:     repo,
		cfg:      cfg,
		metrics:  metrics,
		interval: DefaultInterval,
		now:      time.Now,
	}
}

// Cutoff is the oldest calendar date that survives a sweep.
func Cutoff(now time.Time, loc *time.Location, retentionDays int) string {
	if loc == nil {
		loc = time.Local
	}
	return services.SeenDate(now.In(loc).AddDate(0, 0, -retentionDays), loc)
}

// SweepOnce deletes every row dated before the cutoff and returns the count.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	cutoff := Cutoff(s.now(), s.cfg.Location, s.cfg.RetentionDays)
	n, err := s.repo.DeleteOlderThan(dbctx.New(ctx), cutoff)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.RetentionPurged(n)
	}
	if n > 0 {
		s.log.Info("Purged daily seen rows", "cutoff", cutoff, "rows", n)
	}
	return n, nil
}

// Start runs a sweep immediately and then on every tick until ctx ends.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("Starting retention sweeper", "interval", s.interval.String(), "retention_days", s.cfg.RetentionDays)
	go s.runLoop(ctx)
}

func (s *Sweeper) runLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if _, err := s.SweepOnce(ctx); err != nil {
		s.log.Warn("Retention sweep failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Retention sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.log.Warn("Retention sweep failed", "error", err)
			}
		}
	}
}
