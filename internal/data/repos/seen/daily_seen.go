package seen

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/gamerec-backend/internal/data/db"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

type DailySeenRepo interface {
	// Insert records (user, game, date) and reports whether a new row was written.
	Insert(dbc dbctx.Context, userID uuid.UUID, gameID int64, date string) (bool, error)
	CountForDate(dbc dbctx.Context, userID uuid.UUID, date string) (int64, error)
	ListGameIDsForDate(dbc dbctx.Context, userID uuid.UUID, date string) ([]int64, error)
	DeleteOlderThan(dbc dbctx.Context, date string) (int64, error)
}

type dailySeenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailySeenRepo(db *gorm.DB, baseLog *logger.Logger) DailySeenRepo {
	return &dailySeenRepo{db: db, log: baseLog.With("repo", "DailySeenRepo")}
}

func (r *dailySeenRepo) Insert(dbc dbctx.Context, userID uuid.UUID, gameID int64, date string) (bool, error) {
	if userID == uuid.Nil || gameID <= 0 || date == "" {
		return false, nil
	}
	row := &types.DailySeenRecord{
		ID:        uuid.New(),
		UserID:    userID,
		GameID:    gameID,
		SeenDate:  date,
		CreatedAt: time.Now().UTC(),
	}
	res := dbc.DB(r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error) {
			return false, nil
		}
		return false, db.Classify("daily_seen.insert", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *dailySeenRepo) CountForDate(dbc dbctx.Context, userID uuid.UUID, date string) (int64, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.DailySeenRecord{}).
		Where("user_id = ? AND seen_date = ?", userID, date).
		Count(&n).Error; err != nil {
		return 0, db.Classify("daily_seen.count_for_date", err)
	}
	return n, nil
}

func (r *dailySeenRepo) ListGameIDsForDate(dbc dbctx.Context, userID uuid.UUID, date string) ([]int64, error) {
	var ids []int64
	if userID == uuid.Nil {
		return ids, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.DailySeenRecord{}).
		Where("user_id = ? AND seen_date = ?", userID, date).
		Order("game_id ASC").
		Pluck("game_id", &ids).Error; err != nil {
		return nil, db.Classify("daily_seen.list_game_ids_for_date", err)
	}
	return ids, nil
}

// DeleteOlderThan purges rows whose seen_date sorts before date
// (YYYY-MM-DD compares lexically).
func (r *dailySeenRepo) DeleteOlderThan(dbc dbctx.Context, date string) (int64, error) {
	if date == "" {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("seen_date < ?", date).Delete(&types.DailySeenRecord{})
	if res.Error != nil {
		return 0, db.Classify("daily_seen.delete_older_than", res.Error)
	}
	return res.RowsAffected, nil
}
