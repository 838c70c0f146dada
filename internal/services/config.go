package services

import (
	"fmt"
	"time"
)

// Scoring signal names. Adaptive weight maps and explanations are keyed by these.
const (
	SignalGenre      = "genre_match"
	SignalCategory   = "category_match"
	SignalPlatform   = "platform_match"
	SignalDeveloper  = "developer_match"
	SignalCommunity  = "community_match"
	SignalPopularity = "popularity"
	SignalRating     = "rating"
	SignalMaturity   = "maturity_match"
)

// Signals is the canonical signal order used for deterministic iteration.
var Signals = []string{
	SignalGenre,
	SignalCategory,
	SignalPlatform,
	SignalDeveloper,
	SignalCommunity,
	SignalPopularity,
	SignalRating,
	SignalMaturity,
}

// NeutralScore and NeutralTolerance are the "no data" values used across
// scoring and analysis.
const (
	NeutralScore     = 50.0
	NeutralTolerance = 0.5
)

type AnalysisConfig struct {
	InteractionLimit          int
	MinInteractionsForProfile int
	UpdateThreshold           int
	DaysThreshold             int
	CacheEnabled              bool
	CacheTTL                  time.Duration
	TopAffinityLimit          int
	RejectionLookback         int
	RejectionMinCount         int
	DecayHorizonDays          float64
	DecayRate                 float64
	DecayFloor                float64
	MatureRequiredAge         int
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		InteractionLimit:          50,
		MinInteractionsForProfile: 3,
		UpdateThreshold:           5,
		DaysThreshold:             7,
		CacheEnabled:              true,
		CacheTTL:                  24 * time.Hour,
		TopAffinityLimit:          10,
		RejectionLookback:         30,
		RejectionMinCount:         2,
		DecayHorizonDays:          365,
		DecayRate:                 0.75,
		DecayFloor:                0.25,
		MatureRequiredAge:         17,
	}
}

func (c AnalysisConfig) Validate() error {
	switch {
	case c.InteractionLimit <= 0:
		return fmt.Errorf("analysis: interaction limit must be positive")
	case c.MinInteractionsForProfile < 1:
		return fmt.Errorf("analysis: min interactions must be at least 1")
	case c.UpdateThreshold < 1:
		return fmt.Errorf("analysis: update threshold must be at least 1")
	case c.DaysThreshold < 1:
		return fmt.Errorf("analysis: days threshold must be at least 1")
	case c.CacheEnabled && c.CacheTTL <= 0:
		return fmt.Errorf("analysis: cache ttl must be positive when caching is enabled")
	case c.TopAffinityLimit <= 0:
		return fmt.Errorf("analysis: top affinity limit must be positive")
	case c.RejectionLookback <= 0 || c.RejectionMinCount < 1:
		return fmt.Errorf("analysis: rejection lookback and min count must be positive")
	case c.DecayHorizonDays <= 0:
		return fmt.Errorf("analysis: decay horizon must be positive")
	case c.DecayFloor < 0 || c.DecayFloor > 1 || c.DecayRate < 0 || c.DecayRate > 1:
		return fmt.Errorf("analysis: decay rate and floor must be within [0,1]")
	}
	return nil
}

type ScoringConfig struct {
	DefaultWeights        map[string]float64
	PopularityReviewScale float64
	FreeToPlayAdjustment  float64
	RejectionPenalty      float64
	AffinityBoost         float64
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		DefaultWeights: map[string]float64{
			SignalGenre:      35,
			SignalCategory:   25,
			SignalPlatform:   15,
			SignalPopularity: 15,
			SignalRating:     10,
		},
		PopularityReviewScale: 1000,
		FreeToPlayAdjustment:  5,
		RejectionPenalty:      10,
		AffinityBoost:         5,
	}
}

func (c ScoringConfig) Validate() error {
	sum := 0.0
	for name, w := range c.DefaultWeights {
		if w < 0 {
			return fmt.Errorf("scoring: weight %s is negative", name)
		}
		sum += w
	}
	if sum < 99.9 || sum > 100.1 {
		return fmt.Errorf("scoring: default weights sum to %.1f, want 100", sum)
	}
	if c.PopularityReviewScale <= 0 {
		return fmt.Errorf("scoring: popularity review scale must be positive")
	}
	return nil
}

type GraphConfig struct {
	Enabled             bool
	CacheTTL            time.Duration
	StrategyTimeout     time.Duration
	BlendWeight         float64
	StrategyLimit       int
	MinCommonGames      int
	SimilarityThreshold float64
	CommunityThreshold  float64
	MultiStrategyBonus  float64
}

func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Enabled:             true,
		CacheTTL:            time.Hour,
		StrategyTimeout:     3 * time.Second,
		BlendWeight:         0.3,
		StrategyLimit:       50,
		MinCommonGames:      2,
		SimilarityThreshold: 0.15,
		CommunityThreshold:  0.5,
		MultiStrategyBonus:  0.15,
	}
}

func (c GraphConfig) Validate() error {
	switch {
	case c.BlendWeight < 0 || c.BlendWeight > 1:
		return fmt.Errorf("graph: blend weight must be within [0,1]")
	case c.StrategyTimeout <= 0:
		return fmt.Errorf("graph: strategy timeout must be positive")
	case c.StrategyLimit <= 0:
		return fmt.Errorf("graph: strategy limit must be positive")
	case c.MinCommonGames < 1:
		return fmt.Errorf("graph: min common games must be at least 1")
	case c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1:
		return fmt.Errorf("graph: similarity threshold must be within [0,1]")
	case c.MultiStrategyBonus < 0:
		return fmt.Errorf("graph: multi-strategy bonus must not be negative")
	}
	return nil
}

type DailySeenConfig struct {
	Limit         int
	RetentionDays int
	// Location defines the calendar day boundary; nil means time.Local.
	Location *time.Location
}

func DefaultDailySeenConfig() DailySeenConfig {
	return DailySeenConfig{Limit: 20, RetentionDays: 7}
}

func (c DailySeenConfig) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("daily seen: limit must be positive")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("daily seen: retention must be at least one day")
	}
	return nil
}

func (c DailySeenConfig) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}
