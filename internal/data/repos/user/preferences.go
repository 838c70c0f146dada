package user

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

type UserPreferenceRepo interface {
	GetSet(dbc dbctx.Context, userID uuid.UUID) (*types.PreferenceSet, error)
	UpsertSettings(dbc dbctx.Context, row *types.UserPreference) error
	UpsertGenreWeight(dbc dbctx.Context, userID uuid.UUID, genreID int64, weight int) error
	UpsertCategoryWeight(dbc dbctx.Context, userID uuid.UUID, categoryID int64, weight int) error
}

type userPreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) UserPreferenceRepo {
	return &userPreferenceRepo{db: db, log: baseLog.With("repo", "UserPreferenceRepo")}
}

// GetSet always returns a non-nil set; a user who never saved preferences
// gets nil Settings and empty weight maps.
func (r *userPreferenceRepo) GetSet(dbc dbctx.Context, userID uuid.UUID) (*types.PreferenceSet, error) {
	set := &types.PreferenceSet{
		UserID:     userID,
		Genres:     map[int64]int{},
		Categories: map[int64]int{},
	}
	if userID == uuid.Nil {
		return set, nil
	}
	t := dbc.DB(r.db)

	var settings types.UserPreference
	if err := t.Where("user_id = ?", userID).Limit(1).Find(&settings).Error; err != nil {
		return nil, db.Classify("user_preference.get_set", err)
	}
	if settings.ID != uuid.Nil {
		set.Settings = &settings
	}

	var genres []types.UserGenrePreference
	if err := t.Where("user_id = ?", userID).Find(&genres).Error; err != nil {
		return nil, db.Classify("user_preference.get_set", err)
	}
	for _, g := range genres {
		set.Genres[g.GenreID] = g.Weight
	}

	var cats []types.UserCategoryPreference
	if err := t.Where("user_id = ?", userID).Find(&cats).Error; err != nil {
		return nil, db.Classify("user_preference.get_set", err)
	}
	for _, c := range cats {
		set.Categories[c.CategoryID] = c.Weight
	}
	return set, nil
}

func (r *userPreferenceRepo) UpsertSettings(dbc dbctx.Context, row *types.UserPreference) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"prefers_windows",
				"prefers_mac",
				"prefers_linux",
				"prefers_free_to_play",
				"min_age_rating",
				"avoid_violence",
				"avoid_nudity",
				"updated_at",
			}),
		}).
		Create(row).Error
	return db.Classify("user_preference.upsert_settings", err)
}

func clampWeight(w int) int {
	if w < 1 {
		return 1
	}
	if w > 10 {
		return 10
	}
	return w
}

func (r *userPreferenceRepo) UpsertGenreWeight(dbc dbctx.Context, userID uuid.UUID, genreID int64, weight int) error {
	if userID == uuid.Nil || genreID <= 0 {
		return nil
	}
	row := &types.UserGenrePreference{ID: uuid.New(), UserID: userID, GenreID: genreID, Weight: clampWeight(weight)}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "genre_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"weight"}),
		}).
		Create(row).Error
	return db.Classify("user_preference.upsert_genre_weight", err)
}

func (r *userPreferenceRepo) UpsertCategoryWeight(dbc dbctx.Context, userID uuid.UUID, categoryID int64, weight int) error {
	if userID == uuid.Nil || categoryID <= 0 {
		return nil
	}
	row := &types.UserCategoryPreference{ID: uuid.New(), UserID: userID, CategoryID: categoryID, Weight: clampWeight(weight)}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"weight"}),
		}).
		Create(row).Error
	return db.Classify("user_preference.upsert_category_weight", err)
}
