package services

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/data/graph"
)

const (
	StrategyCollaborative = "collaborative"
	StrategyPath          = "path"
	StrategyDeveloper     = "developer"
	StrategyCommunity     = "community"
	StrategyDeepWalk      = "deep_walk"
)

// StrategyNames is the fixed strategy order used for fan-out and merging.
var StrategyNames = []string{
	StrategyCollaborative,
	StrategyPath,
	StrategyDeveloper,
	StrategyCommunity,
	StrategyDeepWalk,
}

// StrategyResult is one candidate proposed by one strategy. Score is the
// normalized [0,100] value; RawScore is the strategy's own formula.
type StrategyResult struct {
	Strategy string             `json:"strategy"`
	GameID   int64              `json:"game_id"`
	RawScore float64            `json:"raw_score"`
	Score    float64            `json:"score"`
	Metadata map[string]float64 `json:"metadata,omitempty"`
}

type GraphStrategy interface {
	Name() string
	Run(ctx context.Context, userID uuid.UUID, limit int) ([]StrategyResult, error)
}

// NewGraphStrategies builds the five strategies over one querier.
func NewGraphStrategies(q graph.Querier, cfg GraphConfig) []GraphStrategy {
	return []GraphStrategy{
		&collaborativeStrategy{q: q, cfg: cfg},
		&pathStrategy{q: q},
		&developerStrategy{q: q},
		&communityStrategy{q: q, cfg: cfg},
		&deepWalkStrategy{q: q},
	}
}

// Jaccard is |A∩B| / |A∪B| given both set sizes and the intersection size.
func Jaccard(common, sizeA, sizeB int) float64 {
	union := sizeA + sizeB - common
	if union <= 0 || common <= 0 {
		return 0
	}
	return float64(common) / float64(union)
}

type collaborativeStrategy struct {
	q   graph.Querier
	cfg GraphConfig
}

func (s *collaborativeStrategy) Name() string { return StrategyCollaborative }

func (s *collaborativeStrategy) Run(ctx context.Context, userID uuid.UUID, limit int) ([]StrategyResult, error) {
	mine, err := graph.LikedGameIDs(ctx, s.q, userID)
	if err != nil {
		return nil, err
	}
	if len(mine) < s.cfg.MinCommonGames {
		return nil, nil
	}
	neighbors, err := graph.Neighbors(ctx, s.q, userID, s.cfg.MinCommonGames, limit)
	if err != nil {
		return nil, err
	}
	sims := map[string]float64{}
	var ids []string
	for _, n := range neighbors {
		sim := Jaccard(n.CommonLikes, len(mine), n.LikedTotal)
		if sim < s.cfg.SimilarityThreshold {
			continue
		}
		sims[n.UserID] = sim
		ids = append(ids, n.UserID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	likes, err := graph.NeighborLikes(ctx, s.q, userID, ids)
	if err != nil {
		return nil, err
	}
	return CollaborativeScores(likes, sims, limit), nil
}

type collabAgg struct {
	weighted float64
	simSum   float64
	count    int
	rating   float64
}

// CollaborativeScores blends Σ(similarity × neighbor score) 40%, recommender
// count 30%, average similarity 20% and rating 10%, each scaled to [0,1].
func CollaborativeScores(likes []graph.NeighborLikeRow, sims map[string]float64, limit int) []StrategyResult {
	agg := map[int64]*collabAgg{}
	for _, l := range likes {
		sim, ok := sims[l.NeighborID]
		if !ok {
			continue
		}
		a := agg[l.GameID]
		if a == nil {
			a = &collabAgg{}
			agg[l.GameID] = a
		}
		a.weighted += sim * l.Score
		a.simSum += sim
		a.count++
		a.rating = l.Rating
	}
	maxWeighted, maxCount := 0.0, 0
	for _, a := range agg {
		maxWeighted = math.Max(maxWeighted, a.weighted)
		if a.count > maxCount {
			maxCount = a.count
		}
	}
	out := make([]StrategyResult, 0, len(agg))
	for id, a := range agg {
		w := 0.0
		if maxWeighted > 0 {
			w = a.weighted / maxWeighted
		}
		avgSim := a.simSum / float64(a.count)
		raw := 0.4*w + 0.3*float64(a.count)/float64(maxCount) + 0.2*avgSim + 0.1*a.rating
		out = append(out, StrategyResult{
			Strategy: StrategyCollaborative,
			GameID:   id,
			RawScore: round(a.weighted, 4),
			Score:    clampScore(raw * 100),
			Metadata: map[string]float64{
				"recommenders":   float64(a.count),
				"avg_similarity": round(avgSim, 4),
				"rating":         a.rating,
			},
		})
	}
	return rankResults(out, limit)
}

type pathStrategy struct{ q graph.Querier }

func (s *pathStrategy) Name() string { return StrategyPath }

func (s *pathStrategy) Run(ctx context.Context, userID uuid.UUID, limit int) ([]StrategyResult, error) {
	rows, err := graph.PathCandidates(ctx, s.q, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]StrategyResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, StrategyResult{
			Strategy: StrategyPath,
			GameID:   r.GameID,
			RawScore: float64(r.Connections)*0.35 + r.LikedScore*0.25 + float64(r.GenreOverlap)*0.25 + r.Rating*0.15,
			Metadata: map[string]float64{
				"connections":   float64(r.Connections),
				"genre_overlap": float64(r.GenreOverlap),
				"rating":        r.Rating,
			},
		})
	}
	return rankResults(scaleToMax(out), limit), nil
}

type developerStrategy struct{ q graph.Querier }

const (
	developerMinLiked  = 2
	developerMinRating = 0.6
)

func (s *developerStrategy) Name() string { return StrategyDeveloper }

func (s *developerStrategy) Run(ctx context.Context, userID uuid.UUID, limit int) ([]StrategyResult, error) {
	rows, err := graph.DeveloperCandidates(ctx, s.q, userID, developerMinLiked, developerMinRating, limit)
	if err != nil {
		return nil, err
	}
	best := map[int64]StrategyResult{}
	for _, r := range rows {
		raw := math.Min(100, 60+float64(r.LikedCount)*8+r.Rating*20)
		if cur, ok := best[r.GameID]; ok && cur.RawScore >= raw {
			continue
		}
		best[r.GameID] = StrategyResult{
			Strategy: StrategyDeveloper,
			GameID:   r.GameID,
			RawScore: raw,
			Score:    clampScore(raw),
			Metadata: map[string]float64{
				"developer_id": float64(r.DeveloperID),
				"liked_count":  float64(r.LikedCount),
				"rating":       r.Rating,
			},
		}
	}
	out := make([]StrategyResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return rankResults(out, limit), nil
}

type communityStrategy struct {
	q   graph.Querier
	cfg GraphConfig
}

func (s *communityStrategy) Name() string { return StrategyCommunity }

func (s *communityStrategy) Run(ctx context.Context, userID uuid.UUID, limit int) ([]StrategyResult, error) {
	rows, err := graph.CommunityCandidates(ctx, s.q, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]StrategyResult, 0, len(rows))
	for _, r := range rows {
		raw := float64(r.GenreConnections)*0.5 + float64(r.DevConnections)*0.3 + r.Rating*0.2
		if raw <= s.cfg.CommunityThreshold {
			continue
		}
		out = append(out, StrategyResult{
			Strategy: StrategyCommunity,
			GameID:   r.GameID,
			RawScore: raw,
			Metadata: map[string]float64{
				"genre_connections": float64(r.GenreConnections),
				"dev_connections":   float64(r.DevConnections),
				"rating":            r.Rating,
			},
		})
	}
	return rankResults(scaleToMax(out), limit), nil
}

type deepWalkStrategy struct{ q graph.Querier }

func (s *deepWalkStrategy) Name() string { return StrategyDeepWalk }

func (s *deepWalkStrategy) Run(ctx context.Context, userID uuid.UUID, limit int) ([]StrategyResult, error) {
	rows, err := graph.DeepWalkCandidates(ctx, s.q, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]StrategyResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, StrategyResult{
			Strategy: StrategyDeepWalk,
			GameID:   r.GameID,
			RawScore: float64(r.PathCount)*0.4 + r.AvgMidRating*0.3 + r.EndRating*0.3,
			Metadata: map[string]float64{
				"path_count":     float64(r.PathCount),
				"avg_mid_rating": r.AvgMidRating,
				"end_rating":     r.EndRating,
			},
		})
	}
	return rankResults(scaleToMax(out), limit), nil
}

// scaleToMax maps raw scores onto [0,100] relative to the strongest candidate.
func scaleToMax(in []StrategyResult) []StrategyResult {
	top := 0.0
	for _, r := range in {
		top = math.Max(top, r.RawScore)
	}
	for i := range in {
		if top > 0 {
			in[i].Score = clampScore(in[i].RawScore / top * 100)
		}
	}
	return in
}

// rankResults sorts by score desc then game id asc, and truncates.
func rankResults(in []StrategyResult, limit int) []StrategyResult {
	sort.Slice(in, func(i, j int) bool {
		if in[i].Score != in[j].Score {
			return in[i].Score > in[j].Score
		}
		return in[i].GameID < in[j].GameID
	})
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
