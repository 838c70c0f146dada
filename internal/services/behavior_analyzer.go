package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/yungbote/gamerec-backend/internal/data/repos"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

type BehaviorAnalyzer interface {
	// BuildOrUpdateProfile returns nil (no error) while the user has too
	// little history for a profile.
	BuildOrUpdateProfile(ctx context.Context, userID uuid.UUID, force bool) (*types.BehaviorProfile, error)
	IncrementInteractionCounter(ctx context.Context, userID uuid.UUID, at time.Time) error
	AnalyzeGenrePatterns(ctx context.Context, userID uuid.UUID) (PatternResult, error)
	AnalyzeCategoryPatterns(ctx context.Context, userID uuid.UUID) (PatternResult, error)
	GetRejectedDevelopers(ctx context.Context, userID uuid.UUID) ([]int64, error)
	GetRejectedPublishers(ctx context.Context, userID uuid.UUID) ([]int64, error)
}

type behaviorAnalyzer struct {
	cfg          AnalysisConfig
	log          *logger.Logger
	metrics      *observability.Metrics
	interactions repos.InteractionRepo
	profiles     repos.BehaviorProfileRepo
	games        repos.GameRepo
	cache        *ProfileCache
	flight       singleflight.Group
	now          func() time.Time
}

func NewBehaviorAnalyzer(
	cfg AnalysisConfig,
	baseLog *logger.Logger,
	metrics *observability.Metrics,
	interactions repos.InteractionRepo,
	profiles repos.BehaviorProfileRepo,
	games repos.GameRepo,
	profileCache *ProfileCache,
) BehaviorAnalyzer {
	if !cfg.CacheEnabled {
		profileCache = nil
	}
	return &behaviorAnalyzer{
		cfg:          cfg,
		log:          baseLog.With("service", "BehaviorAnalyzer"),
		metrics:      metrics,
		interactions: interactions,
		profiles:     profiles,
		games:        games,
		cache:        profileCache,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// profileRebuildTimeout bounds a shared rebuild once it no longer follows a caller's ctx.
const profileRebuildTimeout = 30 * time.Second

// NeedsUpdate reports whether a stored profile must be recomputed.
func NeedsUpdate(cfg AnalysisConfig, p *types.BehaviorProfile, now time.Time) bool {
	if p == nil || p.LastAnalyzedAt == nil {
		return true
	}
	if p.InteractionsSinceUpdate >= cfg.UpdateThreshold {
		return true
	}
	return now.Sub(*p.LastAnalyzedAt) >= time.Duration(cfg.DaysThreshold)*24*time.Hour
}

func (a *behaviorAnalyzer) BuildOrUpdateProfile(ctx context.Context, userID uuid.UUID, force bool) (*types.BehaviorProfile, error) {
	dbc := dbctx.New(ctx)
	now := a.now()

	lastAt, err := a.interactions.LatestInteractedAt(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("latest interaction: %w", err)
	}
	key := ProfileCacheKey(userID, lastAt)

	if a.cache != nil && !force {
		if cached, ok := a.cache.Get(ctx, key); ok {
			if !NeedsUpdate(a.cfg, cached, now) {
				a.metrics.ProfileCacheLookup("hit")
				return cached, nil
			}
			a.metrics.ProfileCacheLookup("stale")
			a.cache.Forget(ctx, key)
		}
	}

	existing, err := a.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if !force && !NeedsUpdate(a.cfg, existing, now) {
		return existing, nil
	}

	// Concurrent misses for one user share a single analysis run. The run is
	// detached from any single caller; each caller still honours its own ctx.
	ch := a.flight.DoChan(userID.String(), func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), profileRebuildTimeout)
		defer cancel()
		return a.rebuild(runCtx, userID, existing, lastAt, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			a.metrics.ProfileBuild("error")
			return nil, res.Err
		}
		p, _ := res.Val.(*types.BehaviorProfile)
		return p, nil
	}
}

func (a *behaviorAnalyzer) rebuild(ctx context.Context, userID uuid.UUID, existing *types.BehaviorProfile, lastAt *time.Time, key string) (*types.BehaviorProfile, error) {
	ctx, span := observability.StartSpan(ctx, "profile.build", "user_id", userID.String())
	defer span.End()

	dbc := dbctx.New(ctx)
	now := a.now()

	total, err := a.interactions.CountByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("count interactions: %w", err)
	}
	if int(total) < a.cfg.MinInteractionsForProfile {
		a.metrics.ProfileBuild("insufficient")
		a.log.Debug("profile skipped: insufficient interactions", "user_id", userID.String(), "total", total)
		return nil, nil
	}

	events, err := a.loadEvents(dbc, userID, types.PatternTypes, a.cfg.InteractionLimit)
	if err != nil {
		return nil, err
	}

	genres := AnalyzeGenrePatterns(a.cfg, events, now)
	categories := AnalyzeCategoryPatterns(a.cfg, events, now)
	developers := AnalyzeDeveloperPatterns(events, a.cfg.TopAffinityLimit)
	publishers := AnalyzePublisherPatterns(events, a.cfg.TopAffinityLimit)

	p := &types.BehaviorProfile{UserID: userID}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}
	p.TotalInteractions = int(total)
	p.LikedGenres = datatypes.NewJSONType(genres.Liked)
	p.DislikedGenres = datatypes.NewJSONType(genres.Disliked)
	p.LikedCategories = datatypes.NewJSONType(categories.Liked)
	p.DislikedCategories = datatypes.NewJSONType(categories.Disliked)
	p.TopDevelopers = datatypes.NewJSONType(developers)
	p.TopPublishers = datatypes.NewJSONType(publishers)
	p.FreeToPlayPreference = AnalyzeFreeToPlayPreference(events)
	p.MatureContentTolerance = AnalyzeMatureContentTolerance(events, a.cfg.MatureRequiredAge)
	for metric, v := range AnalyzeCommunityTolerances(events) {
		p.SetTolerance(string(metric), v)
	}
	p.AdaptiveWeights = datatypes.NewJSONType(CalculateAdaptiveWeights(int(total), genres.Liked, categories.Liked, len(developers) > 0))
	p.InteractionsSinceUpdate = 0
	analyzedAt := now
	p.LastAnalyzedAt = &analyzedAt
	p.LastInteractionAt = lastAt

	if err := a.profiles.Upsert(dbc, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	a.metrics.ProfileBuild("built")
	a.log.Info("behavior profile built",
		"user_id", userID.String(),
		"total_interactions", total,
		"level", string(DetermineExperienceLevel(int(total))),
	)

	if a.cache != nil {
		a.cache.Put(ctx, key, p)
	}
	return p, nil
}

// loadEvents joins the newest interactions of the given kinds with their games.
func (a *behaviorAnalyzer) loadEvents(dbc dbctx.Context, userID uuid.UUID, kinds []types.InteractionType, limit int) ([]AnalyzedInteraction, error) {
	rows, err := a.interactions.ListRecent(dbc, userID, kinds, limit)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(rows))
	seen := map[int64]bool{}
	for _, r := range rows {
		if !seen[r.GameID] {
			seen[r.GameID] = true
			ids = append(ids, r.GameID)
		}
	}
	games, err := a.games.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	byID := make(map[int64]*types.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}
	out := make([]AnalyzedInteraction, 0, len(rows))
	for _, r := range rows {
		g := byID[r.GameID]
		if g == nil {
			continue
		}
		out = append(out, AnalyzedInteraction{Interaction: r, Game: g})
	}
	return out, nil
}

func (a *behaviorAnalyzer) IncrementInteractionCounter(ctx context.Context, userID uuid.UUID, at time.Time) error {
	if err := a.profiles.IncrementInteractionCounter(dbctx.New(ctx), userID, at); err != nil {
		return fmt.Errorf("increment profile counter: %w", err)
	}
	return nil
}

func (a *behaviorAnalyzer) AnalyzeGenrePatterns(ctx context.Context, userID uuid.UUID) (PatternResult, error) {
	events, err := a.loadEvents(dbctx.New(ctx), userID, types.PatternTypes, a.cfg.InteractionLimit)
	if err != nil {
		return PatternResult{}, err
	}
	return AnalyzeGenrePatterns(a.cfg, events, a.now()), nil
}

func (a *behaviorAnalyzer) AnalyzeCategoryPatterns(ctx context.Context, userID uuid.UUID) (PatternResult, error) {
	events, err := a.loadEvents(dbctx.New(ctx), userID, types.PatternTypes, a.cfg.InteractionLimit)
	if err != nil {
		return PatternResult{}, err
	}
	return AnalyzeCategoryPatterns(a.cfg, events, a.now()), nil
}

func (a *behaviorAnalyzer) GetRejectedDevelopers(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	events, err := a.loadEvents(dbctx.New(ctx), userID, []types.InteractionType{types.InteractionDislike}, a.cfg.RejectionLookback)
	if err != nil {
		return nil, err
	}
	return RejectedIDs(events, a.cfg.RejectionMinCount, (*types.Game).DeveloperIDs), nil
}

func (a *behaviorAnalyzer) GetRejectedPublishers(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	events, err := a.loadEvents(dbctx.New(ctx), userID, []types.InteractionType{types.InteractionDislike}, a.cfg.RejectionLookback)
	if err != nil {
		return nil, err
	}
	return RejectedIDs(events, a.cfg.RejectionMinCount, (*types.Game).PublisherIDs), nil
}
