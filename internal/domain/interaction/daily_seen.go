package interaction

import (
	"time"

	"github.com/google/uuid"
)

// SeenDateLayout is the calendar-day key used by DailySeenRecord.SeenDate.
const SeenDateLayout = "2006-01-02"

// DailySeenRecord marks a game as shown to a user on one calendar day.
type DailySeenRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_seen_user_game_date,priority:1;index:idx_seen_user_date,priority:1" json:"user_id"`
	GameID   int64     `gorm:"not null;uniqueIndex:idx_seen_user_game_date,priority:2" json:"game_id"`
	SeenDate string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_seen_user_game_date,priority:3;index:idx_seen_user_date,priority:2;index:idx_seen_date" json:"seen_date"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (DailySeenRecord) TableName() string { return "daily_seen_game" }
