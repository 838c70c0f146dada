package game

import "time"

// Game is a catalog entry. IDs come from the upstream store catalog, so they
// are assigned by the importer rather than generated here.
type Game struct {
	ID            int64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name          string   `gorm:"not null;column:name" json:"name"`
	IsActive      bool     `gorm:"not null;index;column:is_active" json:"is_active"`
	IsFree        bool     `gorm:"not null;column:is_free" json:"is_free"`
	RequiredAge   int      `gorm:"not null;column:required_age" json:"required_age"`
	PositiveRatio *float64 `gorm:"column:positive_ratio" json:"positive_ratio,omitempty"`
	TotalReviews  int      `gorm:"not null;column:total_reviews" json:"total_reviews"`

	Genres             []Genre             `gorm:"many2many:game_genre;" json:"genres,omitempty"`
	Categories         []Category          `gorm:"many2many:game_category;" json:"categories,omitempty"`
	Developers         []Developer         `gorm:"many2many:game_developer;" json:"developers,omitempty"`
	Publishers         []Publisher         `gorm:"many2many:game_publisher;" json:"publishers,omitempty"`
	ContentDescriptors []ContentDescriptor `gorm:"many2many:game_content_descriptor;" json:"content_descriptors,omitempty"`
	Platforms          *GamePlatform       `gorm:"foreignKey:GameID" json:"platforms,omitempty"`
	CommunityRating    *CommunityRating    `gorm:"foreignKey:GameID" json:"community_rating,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Game) TableName() string { return "game" }

func (g *Game) GenreIDs() []int64 {
	out := make([]int64, 0, len(g.Genres))
	for _, x := range g.Genres {
		out = append(out, x.ID)
	}
	return out
}

func (g *Game) CategoryIDs() []int64 {
	out := make([]int64, 0, len(g.Categories))
	for _, x := range g.Categories {
		out = append(out, x.ID)
	}
	return out
}

func (g *Game) DeveloperIDs() []int64 {
	out := make([]int64, 0, len(g.Developers))
	for _, x := range g.Developers {
		out = append(out, x.ID)
	}
	return out
}

func (g *Game) PublisherIDs() []int64 {
	out := make([]int64, 0, len(g.Publishers))
	for _, x := range g.Publishers {
		out = append(out, x.ID)
	}
	return out
}

func (g *Game) ContentDescriptorIDs() []int64 {
	out := make([]int64, 0, len(g.ContentDescriptors))
	for _, x := range g.ContentDescriptors {
		out = append(out, x.ID)
	}
	return out
}

type Genre struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Genre) TableName() string { return "genre" }

type Category struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Category) TableName() string { return "category" }

type Developer struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Developer) TableName() string { return "developer" }

type Publisher struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (Publisher) TableName() string { return "publisher" }

// ContentDescriptor ids follow the store taxonomy: 1-2 violence, 3-4 nudity.
type ContentDescriptor struct {
	ID   int64  `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

func (ContentDescriptor) TableName() string { return "content_descriptor" }

var (
	ViolenceDescriptorIDs = []int64{1, 2}
	NudityDescriptorIDs   = []int64{3, 4}
)

// MatureRequiredAge is the required_age at which a game counts as mature content.
const MatureRequiredAge = 17

func (g *Game) IsMature() bool { return g.RequiredAge >= MatureRequiredAge }

type GamePlatform struct {
	GameID  int64 `gorm:"primaryKey;autoIncrement:false" json:"game_id"`
	Windows bool  `gorm:"not null" json:"windows"`
	Mac     bool  `gorm:"not null" json:"mac"`
	Linux   bool  `gorm:"not null" json:"linux"`
}

func (GamePlatform) TableName() string { return "game_platform" }

// CommunityRating holds per-game community-health rates in [0,1] (share of
// reviews that mention the problem).
type CommunityRating struct {
	GameID               int64   `gorm:"primaryKey;autoIncrement:false" json:"game_id"`
	ToxicityRate         float64 `gorm:"not null" json:"toxicity_rate"`
	CheaterRate          float64 `gorm:"not null" json:"cheater_rate"`
	BugRate              float64 `gorm:"not null" json:"bug_rate"`
	MicrotransactionRate float64 `gorm:"not null" json:"microtransaction_rate"`
	OptimizationRate     float64 `gorm:"not null" json:"optimization_rate"`
	NotRecommendedRate   float64 `gorm:"not null" json:"not_recommended_rate"`
}

func (CommunityRating) TableName() string { return "game_community_rating" }

// CommunityMetric names one of the six community-health signals.
type CommunityMetric string

const (
	MetricToxicity         CommunityMetric = "toxicity"
	MetricCheater          CommunityMetric = "cheater"
	MetricBug              CommunityMetric = "bug"
	MetricMicrotransaction CommunityMetric = "microtransaction"
	MetricOptimization     CommunityMetric = "optimization"
	MetricNotRecommended   CommunityMetric = "not_recommended"
)

var CommunityMetrics = []CommunityMetric{
	MetricToxicity,
	MetricCheater,
	MetricBug,
	MetricMicrotransaction,
	MetricOptimization,
	MetricNotRecommended,
}

func (c *CommunityRating) Rate(m CommunityMetric) float64 {
	switch m {
	case MetricToxicity:
		return c.ToxicityRate
	case MetricCheater:
		return c.CheaterRate
	case MetricBug:
		return c.BugRate
	case MetricMicrotransaction:
		return c.MicrotransactionRate
	case MetricOptimization:
		return c.OptimizationRate
	case MetricNotRecommended:
		return c.NotRecommendedRate
	default:
		return 0
	}
}
