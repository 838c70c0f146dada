package interaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeView     Type = "view"
	TypeLike     Type = "like"
	TypeDislike  Type = "dislike"
	TypeFavorite Type = "favorite"
	TypeSkip     Type = "skip"
)

var AllTypes = []Type{TypeView, TypeLike, TypeDislike, TypeFavorite, TypeSkip}

// PositiveTypes are the interactions that count as "liked".
var PositiveTypes = []Type{TypeLike, TypeFavorite}

// PatternTypes feed the behaviour analysis.
var PatternTypes = []Type{TypeLike, TypeDislike, TypeFavorite}

// ExcludedTypes are never re-surfaced as candidates.
var ExcludedTypes = []Type{TypeLike, TypeDislike, TypeSkip}

func ParseType(raw string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func (t Type) IsPositive() bool { return t == TypeLike || t == TypeFavorite }

// DefaultScore is the interaction_score recorded for each type.
func (t Type) DefaultScore() int {
	switch t {
	case TypeView:
		return 1
	case TypeLike:
		return 3
	case TypeFavorite:
		return 5
	case TypeSkip:
		return -1
	case TypeDislike:
		return -3
	default:
		return 0
	}
}

// Interaction is unique per (user, game, type); repeats update score and time.
type Interaction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_interaction_user_game_type,priority:1;index:idx_interaction_user_time,priority:1" json:"user_id"`
	GameID           int64     `gorm:"not null;index;uniqueIndex:idx_interaction_user_game_type,priority:2" json:"game_id"`
	Type             Type      `gorm:"type:varchar(16);not null;uniqueIndex:idx_interaction_user_game_type,priority:3" json:"type"`
	InteractionScore int       `gorm:"not null;column:interaction_score" json:"interaction_score"`
	InteractedAt     time.Time `gorm:"not null;index:idx_interaction_user_time,priority:2" json:"interacted_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Interaction) TableName() string { return "user_game_interaction" }
