package interaction

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PatternStats aggregates interactions for one genre or category.
// RejectionRate is only populated on disliked stats.
type PatternStats struct {
	Count             int     `json:"count"`
	WeightedScore     float64 `json:"weighted_score"`
	AvgTemporalWeight float64 `json:"avg_temporal_weight"`
	RejectionRate     float64 `json:"rejection_rate,omitempty"`
}

type PatternMap map[int64]PatternStats

// AffinityCount is one entry of a ranked developer/publisher list.
type AffinityCount struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

type BehaviorProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	TotalInteractions int `gorm:"not null" json:"total_interactions"`

	LikedGenres        datatypes.JSONType[PatternMap]      `gorm:"column:liked_genres" json:"liked_genres"`
	DislikedGenres     datatypes.JSONType[PatternMap]      `gorm:"column:disliked_genres" json:"disliked_genres"`
	LikedCategories    datatypes.JSONType[PatternMap]      `gorm:"column:liked_categories" json:"liked_categories"`
	DislikedCategories datatypes.JSONType[PatternMap]      `gorm:"column:disliked_categories" json:"disliked_categories"`
	TopDevelopers      datatypes.JSONType[[]AffinityCount] `gorm:"column:top_developers" json:"top_developers"`
	TopPublishers      datatypes.JSONType[[]AffinityCount] `gorm:"column:top_publishers" json:"top_publishers"`

	FreeToPlayPreference   float64 `gorm:"not null" json:"free_to_play_preference"`
	MatureContentTolerance float64 `gorm:"not null" json:"mature_content_tolerance"`

	ToxicityTolerance         float64 `gorm:"not null" json:"toxicity_tolerance"`
	CheaterTolerance          float64 `gorm:"not null" json:"cheater_tolerance"`
	BugTolerance              float64 `gorm:"not null" json:"bug_tolerance"`
	MicrotransactionTolerance float64 `gorm:"not null" json:"microtransaction_tolerance"`
	OptimizationTolerance     float64 `gorm:"not null" json:"optimization_tolerance"`
	NotRecommendedTolerance   float64 `gorm:"not null" json:"not_recommended_tolerance"`

	AdaptiveWeights datatypes.JSONType[map[string]float64] `gorm:"column:adaptive_weights" json:"adaptive_weights"`

	InteractionsSinceUpdate int        `gorm:"not null" json:"interactions_since_update"`
	LastAnalyzedAt          *time.Time `json:"last_analyzed_at,omitempty"`
	LastInteractionAt       *time.Time `json:"last_interaction_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (BehaviorProfile) TableName() string { return "behavior_profile" }

// Tolerance returns the stored tolerance for a community metric name.
func (p *BehaviorProfile) Tolerance(metric string) float64 {
	switch metric {
	case "toxicity":
		return p.ToxicityTolerance
	case "cheater":
		return p.CheaterTolerance
	case "bug":
		return p.BugTolerance
	case "microtransaction":
		return p.MicrotransactionTolerance
	case "optimization":
		return p.OptimizationTolerance
	case "not_recommended":
		return p.NotRecommendedTolerance
	default:
		return 0
	}
}

func (p *BehaviorProfile) SetTolerance(metric string, v float64) {
	switch metric {
	case "toxicity":
		p.ToxicityTolerance = v
	case "cheater":
		p.CheaterTolerance = v
	case "bug":
		p.BugTolerance = v
	case "microtransaction":
		p.MicrotransactionTolerance = v
	case "optimization":
		p.OptimizationTolerance = v
	case "not_recommended":
		p.NotRecommendedTolerance = v
	}
}
