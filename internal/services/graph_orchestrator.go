package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/gamerec-backend/internal/cache"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// GraphRecommendation is one merged candidate across strategies.
type GraphRecommendation struct {
	GameID         int64              `json:"game_id"`
	Score          float64            `json:"score"`
	Strategies     []string           `json:"strategies"`
	StrategyScores map[string]float64 `json:"strategy_scores"`
}

type GraphOrchestrator interface {
	// Recommend never fails because a strategy failed; failed strategies
	// contribute nothing.
	Recommend(ctx context.Context, userID uuid.UUID, totalInteractions, limit int) ([]GraphRecommendation, error)
	Enabled() bool
}

var tierWeights = map[string]map[string]float64{
	"new": {
		StrategyCollaborative: 0.10,
		StrategyPath:          0.15,
		StrategyDeveloper:     0.30,
		StrategyCommunity:     0.30,
		StrategyDeepWalk:      0.15,
	},
	"growing": {
		StrategyCollaborative: 0.25,
		StrategyPath:          0.20,
		StrategyDeveloper:     0.20,
		StrategyCommunity:     0.20,
		StrategyDeepWalk:      0.15,
	},
	"established": {
		StrategyCollaborative: 0.35,
		StrategyPath:          0.15,
		StrategyDeveloper:     0.10,
		StrategyCommunity:     0.10,
		StrategyDeepWalk:      0.30,
	},
}

func InteractionTier(totalInteractions int) string {
	switch {
	case totalInteractions < 10:
		return "new"
	case totalInteractions < 50:
		return "growing"
	default:
		return "established"
	}
}

// StrategyWeights returns a copy of the tier's strategy weights.
func StrategyWeights(totalInteractions int) map[string]float64 {
	return copyWeights(tierWeights[InteractionTier(totalInteractions)])
}

type graphOrchestrator struct {
	cfg        GraphConfig
	log        *logger.Logger
	metrics    *observability.Metrics
	strategies []GraphStrategy
	cache      cache.Cache
}

func NewGraphOrchestrator(cfg GraphConfig, baseLog *logger.Logger, metrics *observability.Metrics, strategies []GraphStrategy, store cache.Cache) GraphOrchestrator {
	return &graphOrchestrator{
		cfg:        cfg,
		log:        baseLog.With("service", "GraphOrchestrator"),
		metrics:    metrics,
		strategies: strategies,
		cache:      store,
	}
}

func (o *graphOrchestrator) Enabled() bool {
	return o != nil && o.cfg.Enabled && len(o.strategies) > 0
}

func GraphCacheKey(userID uuid.UUID, limit int) string {
	return fmt.Sprintf("graph_recs:%s:%d", userID, limit)
}

func (o *graphOrchestrator) Recommend(ctx context.Context, userID uuid.UUID, totalInteractions, limit int) ([]GraphRecommendation, error) {
	if !o.Enabled() || limit <= 0 {
		return nil, nil
	}
	key := GraphCacheKey(userID, limit)
	if o.cache != nil {
		cached, ok, err := cache.GetJSON[[]GraphRecommendation](ctx, o.cache, key)
		if err != nil {
			o.log.Warn("graph cache read failed", "user_id", userID.String(), "error", err)
			o.metrics.DependencyFailure("cache")
		} else if ok {
			return cached, nil
		}
	}

	perStrategy := make([][]StrategyResult, len(o.strategies))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range o.strategies {
		i, s := i, s
		g.Go(func() error {
			perStrategy[i] = o.runStrategy(gctx, s, userID)
			return nil
		})
	}
	_ = g.Wait()

	merged := CombineStrategyResults(perStrategy, StrategyWeights(totalInteractions), o.cfg.MultiStrategyBonus, limit)

	if o.cache != nil && len(merged) > 0 {
		if err := cache.SetJSON(ctx, o.cache, key, merged, o.cfg.CacheTTL); err != nil {
			o.log.Warn("graph cache write failed", "user_id", userID.String(), "error", err)
			o.metrics.DependencyFailure("cache")
		}
	}
	return merged, nil
}

// runStrategy bounds one strategy by the configured timeout and turns any
// failure into an empty result.
func (o *graphOrchestrator) runStrategy(ctx context.Context, s GraphStrategy, userID uuid.UUID) []StrategyResult {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.StrategyTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "graph.strategy", "strategy", s.Name())
	defer span.End()

	start := time.Now()
	out, err := s.Run(ctx, userID, o.cfg.StrategyLimit)
	o.metrics.StrategyObserved(s.Name(), time.Since(start), len(out), err != nil)
	if err != nil {
		span.RecordError(err)
		o.log.Warn("graph strategy failed", "strategy", s.Name(), "user_id", userID.String(), "error", err)
		o.metrics.DependencyFailure("graph")
		return nil
	}
	return out
}

// CombineStrategyResults weights each strategy's normalized score, sums per
// game, applies the multi-strategy bonus and ranks by score then game id.
func CombineStrategyResults(perStrategy [][]StrategyResult, weights map[string]float64, bonus float64, limit int) []GraphRecommendation {
	byGame := map[int64]*GraphRecommendation{}
	for _, results := range perStrategy {
		for _, r := range results {
			rec := byGame[r.GameID]
			if rec == nil {
				rec = &GraphRecommendation{GameID: r.GameID, StrategyScores: map[string]float64{}}
				byGame[r.GameID] = rec
			}
			if prev, ok := rec.StrategyScores[r.Strategy]; ok && prev >= r.Score {
				continue
			}
			rec.StrategyScores[r.Strategy] = r.Score
		}
	}

	out := make([]GraphRecommendation, 0, len(byGame))
	for _, rec := range byGame {
		total := 0.0
		for _, name := range StrategyNames {
			score, ok := rec.StrategyScores[name]
			if !ok {
				continue
			}
			rec.Strategies = append(rec.Strategies, name)
			total += score * weights[name]
		}
		if n := len(rec.Strategies); n > 1 {
			total *= 1 + bonus*float64(n-1)
		}
		rec.Score = clampScore(total)
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].GameID < out[j].GameID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
