package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/domain/game"
)

// UserPreference holds the hard constraints a user declared in settings.
// The recommendation core only reads these rows.
type UserPreference struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	PrefersWindows bool `gorm:"not null" json:"prefers_windows"`
	PrefersMac     bool `gorm:"not null" json:"prefers_mac"`
	PrefersLinux   bool `gorm:"not null" json:"prefers_linux"`

	PrefersFreeToPlay bool `gorm:"not null" json:"prefers_free_to_play"`

	// MinAgeRating caps required_age when > 0.
	MinAgeRating  int  `gorm:"not null" json:"min_age_rating"`
	AvoidViolence bool `gorm:"not null" json:"avoid_violence"`
	AvoidNudity   bool `gorm:"not null" json:"avoid_nudity"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserPreference) TableName() string { return "user_preference" }

// UserGenrePreference weights a declared genre from 1 (mild) to 10 (strong).
type UserGenrePreference struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_genre_pref,priority:1" json:"user_id"`
	GenreID int64     `gorm:"not null;uniqueIndex:idx_user_genre_pref,priority:2" json:"genre_id"`
	Weight  int       `gorm:"not null" json:"weight"`
}

func (UserGenrePreference) TableName() string { return "user_genre_preference" }

type UserCategoryPreference struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_category_pref,priority:1" json:"user_id"`
	CategoryID int64     `gorm:"not null;uniqueIndex:idx_user_category_pref,priority:2" json:"category_id"`
	Weight     int       `gorm:"not null" json:"weight"`
}

func (UserCategoryPreference) TableName() string { return "user_category_preference" }

// PreferenceSet is the read model the filter and calculator consume.
// A nil Settings means the user never saved preferences.
type PreferenceSet struct {
	UserID     uuid.UUID
	Settings   *UserPreference
	Genres     map[int64]int
	Categories map[int64]int
}

func (p *PreferenceSet) PreferredPlatforms() []game.Platform {
	if p == nil || p.Settings == nil {
		return nil
	}
	var out []game.Platform
	if p.Settings.PrefersWindows {
		out = append(out, game.PlatformWindows)
	}
	if p.Settings.PrefersMac {
		out = append(out, game.PlatformMac)
	}
	if p.Settings.PrefersLinux {
		out = append(out, game.PlatformLinux)
	}
	return out
}

func (p *PreferenceSet) GenreWeight(id int64) (int, bool) {
	if p == nil {
		return 0, false
	}
	w, ok := p.Genres[id]
	return w, ok
}

func (p *PreferenceSet) CategoryWeight(id int64) (int, bool) {
	if p == nil {
		return 0, false
	}
	w, ok := p.Categories[id]
	return w, ok
}

func (p *PreferenceSet) HasGenres() bool     { return p != nil && len(p.Genres) > 0 }
func (p *PreferenceSet) HasCategories() bool { return p != nil && len(p.Categories) > 0 }
