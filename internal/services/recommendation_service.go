package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/data/repos"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/apierr"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

const (
	DefaultRecommendationLimit = 20
	MaxRecommendationLimit     = 100

	FallbackInsufficientInteractions = "insufficient_interactions"
)

type RecommendationRequest struct {
	UserID uuid.UUID
	Limit  int
	// Boost narrows candidates to declared genres and categories.
	Boost bool
}

type Recommendation struct {
	GameID          int64        `json:"game_id"`
	Name            string       `json:"name"`
	Score           float64      `json:"score"`
	RelationalScore float64      `json:"relational_score"`
	GraphScore      *float64     `json:"graph_score,omitempty"`
	Strategies      []string     `json:"strategies,omitempty"`
	Explanation     *Explanation `json:"explanation,omitempty"`
}

type RecommendationResult struct {
	UserID          uuid.UUID        `json:"user_id"`
	Items           []Recommendation `json:"items"`
	Personalized    bool             `json:"personalized"`
	FallbackReason  string           `json:"fallback_reason,omitempty"`
	ExperienceLevel ExperienceLevel  `json:"experience_level,omitempty"`
	LimitReached    bool             `json:"limit_reached"`
	RemainingToday  int              `json:"remaining_today"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

type RecommendationService interface {
	GetRecommendations(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error)
}

type recommendationService struct {
	log          *logger.Logger
	metrics      *observability.Metrics
	graphCfg     GraphConfig
	repos        repos.Set
	analyzer     BehaviorAnalyzer
	filter       GameFilter
	scorer       ScoreCalculator
	orchestrator GraphOrchestrator
	limiter      DailySeenLimiter
	now          func() time.Time
}

func NewRecommendationService(
	baseLog *logger.Logger,
	metrics *observability.Metrics,
	graphCfg GraphConfig,
	set repos.Set,
	analyzer BehaviorAnalyzer,
	filter GameFilter,
	scorer ScoreCalculator,
	orchestrator GraphOrchestrator,
	limiter DailySeenLimiter,
) RecommendationService {
	return &recommendationService{
		log:          baseLog.With("service", "RecommendationService"),
		metrics:      metrics,
		graphCfg:     graphCfg,
		repos:        set,
		analyzer:     analyzer,
		filter:       filter,
		scorer:       scorer,
		orchestrator: orchestrator,
		limiter:      limiter,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// scored is a candidate while it is being ranked.
type scored struct {
	game       *types.Game
	result     ScoreResult
	relational float64
	graph      *GraphRecommendation
	final      float64
}

func (s *recommendationService) GetRecommendations(ctx context.Context, req RecommendationRequest) (*RecommendationResult, error) {
	const op = "recommendation.get"
	start := time.Now()
	if req.UserID == uuid.Nil {
		return nil, apierr.Input(op, "user id is required")
	}
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = DefaultRecommendationLimit
	case limit > MaxRecommendationLimit:
		limit = MaxRecommendationLimit
	}

	dbc := dbctx.New(ctx)
	exists, err := s.repos.User.Exists(dbc, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, apierr.NotFound(op, "user %s not found", req.UserID)
	}

	res := &RecommendationResult{UserID: req.UserID, Items: []Recommendation{}, GeneratedAt: s.now()}

	remaining, err := s.limiter.GetRemainingToday(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	res.RemainingToday = remaining
	if remaining <= 0 {
		res.LimitReached = true
		s.metrics.DailyLimitRejected()
		s.metrics.RecommendationServed("limit_reached", time.Since(start))
		return res, nil
	}
	if limit > remaining {
		limit = remaining
	}
	seen, err := s.limiter.SeenToday(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	profile, err := s.analyzer.BuildOrUpdateProfile(ctx, req.UserID, false)
	if err != nil {
		return nil, err
	}
	res.Personalized = profile != nil
	if profile == nil {
		res.FallbackReason = FallbackInsufficientInteractions
	}

	prefs, err := s.repos.UserPreference.GetSet(dbc, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	in := FilterInput{
		UserID:        req.UserID,
		Preferences:   prefs,
		SeenToday:     seen,
		GenreBoost:    req.Boost,
		CategoryBoost: req.Boost,
	}
	candidates, criteria, err := s.filter.FilterGames(ctx, in)
	if err != nil {
		return nil, err
	}
	if req.Boost && len(candidates) == 0 {
		in.GenreBoost, in.CategoryBoost = false, false
		if candidates, criteria, err = s.filter.FilterGames(ctx, in); err != nil {
			return nil, err
		}
	}

	total := 0
	if profile != nil {
		total = profile.TotalInteractions
		res.ExperienceLevel = DetermineExperienceLevel(total)
	} else {
		n, err := s.repos.Interaction.CountByUser(dbc, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("count interactions: %w", err)
		}
		total = int(n)
	}

	graphRecs := map[int64]*GraphRecommendation{}
	if s.orchestrator != nil && s.orchestrator.Enabled() && total > 0 {
		recs, err := s.orchestrator.Recommend(ctx, req.UserID, total, limit)
		if err != nil {
			return nil, err
		}
		for i := range recs {
			graphRecs[recs[i].GameID] = &recs[i]
		}
		candidates, err = s.addGraphCandidates(dbc, candidates, graphRecs, criteria)
		if err != nil {
			return nil, err
		}
	}

	var rej Rejections
	if profile != nil {
		if rej.Developers, err = s.analyzer.GetRejectedDevelopers(ctx, req.UserID); err != nil {
			return nil, err
		}
		if rej.Publishers, err = s.analyzer.GetRejectedPublishers(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	ranked := make([]scored, 0, len(candidates))
	for _, g := range candidates {
		var sr ScoreResult
		if profile != nil {
			if sr, err = s.scorer.CalculateScoreWithProfile(req.UserID, prefs, g, profile, rej); err != nil {
				return nil, err
			}
		} else {
			sr = s.scorer.CalculateScore(prefs, g)
		}
		item := scored{game: g, result: sr, relational: sr.Score, final: sr.Score}
		if gr, ok := graphRecs[g.ID]; ok {
			item.graph = gr
			item.final = BlendGraphScore(sr.Score, gr.Score, s.graphCfg.BlendWeight)
		}
		ranked = append(ranked, item)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].final != ranked[j].final {
			return ranked[i].final > ranked[j].final
		}
		return ranked[i].game.ID < ranked[j].game.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	for _, it := range ranked {
		rec := Recommendation{
			GameID:          it.game.ID,
			Name:            it.game.Name,
			Score:           it.final,
			RelationalScore: it.relational,
		}
		if it.graph != nil {
			gs := it.graph.Score
			rec.GraphScore = &gs
			rec.Strategies = it.graph.Strategies
		}
		if profile != nil {
			ex := GenerateExplanation(it.result, it.game, profile)
			rec.Explanation = &ex
		}
		res.Items = append(res.Items, rec)
		if _, err := s.limiter.MarkAsSeen(ctx, req.UserID, it.game.ID); err != nil {
			return nil, err
		}
	}
	res.RemainingToday = remaining - len(res.Items)

	mode := "personalized"
	if profile == nil {
		mode = "fallback"
	}
	s.metrics.RecommendationServed(mode, time.Since(start))
	s.log.Info("recommendations served",
		"user_id", req.UserID.String(),
		"mode", mode,
		"items", len(res.Items),
		"graph_candidates", len(graphRecs),
	)
	return res, nil
}

// addGraphCandidates loads graph-only proposals and keeps those that pass
// the same hard criteria as relational candidates.
func (s *recommendationService) addGraphCandidates(dbc dbctx.Context, candidates []*types.Game, graphRecs map[int64]*GraphRecommendation, criteria types.CandidateCriteria) ([]*types.Game, error) {
	have := make(map[int64]bool, len(candidates))
	for _, g := range candidates {
		have[g.ID] = true
	}
	var missing []int64
	for id := range graphRecs {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return candidates, nil
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	loaded, err := s.repos.Game.GetByIDs(dbc, missing)
	if err != nil {
		return nil, fmt.Errorf("load graph candidates: %w", err)
	}
	for _, g := range loaded {
		if criteria.Matches(g) {
			candidates = append(candidates, g)
		}
	}
	return candidates, nil
}

// BlendGraphScore mixes relational and graph scores with weight w on the graph side.
func BlendGraphScore(relational, graphScore, w float64) float64 {
	return clampScore((1-w)*relational + w*graphScore)
}
