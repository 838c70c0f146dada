package interaction

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

type InteractionRepo interface {
	Upsert(dbc dbctx.Context, row *types.Interaction) error
	ListRecent(dbc dbctx.Context, userID uuid.UUID, kinds []types.InteractionType, limit int) ([]*types.Interaction, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	LatestInteractedAt(dbc dbctx.Context, userID uuid.UUID) (*time.Time, error)
	ListGameIDsByTypes(dbc dbctx.Context, userID uuid.UUID, kinds []types.InteractionType) ([]int64, error)
}

type interactionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionRepo(db *gorm.DB, baseLog *logger.Logger) InteractionRepo {
	return &interactionRepo{db: db, log: baseLog.With("repo", "InteractionRepo")}
}

// Upsert writes one interaction; a repeat of (user, game, type) refreshes the
// score and timestamp of the existing row.
func (r *interactionRepo) Upsert(dbc dbctx.Context, row *types.Interaction) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.InteractedAt.IsZero() {
		row.InteractedAt = now
	}
	row.UpdatedAt = now
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"interaction_score", "interacted_at", "updated_at"}),
		}).
		Create(row).Error
	return db.Classify("interaction.upsert", err)
}

// ListRecent returns the newest interactions first. Empty kinds means all types.
func (r *interactionRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, kinds []types.InteractionType, limit int) ([]*types.Interaction, error) {
	var out []*types.Interaction
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if len(kinds) > 0 {
		q = q.Where("type IN ?", kinds)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("interacted_at DESC").Order("game_id ASC").Find(&out).Error; err != nil {
		return nil, db.Classify("interaction.list_recent", err)
	}
	return out, nil
}

func (r *interactionRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := dbc.DB(r.db).Model(&types.Interaction{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, db.Classify("interaction.count_by_user", err)
	}
	return n, nil
}

func (r *interactionRepo) LatestInteractedAt(dbc dbctx.Context, userID uuid.UUID) (*time.Time, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Interaction
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("interacted_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, db.Classify("interaction.latest_interacted_at", err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	at := row.InteractedAt
	return &at, nil
}

func (r *interactionRepo) ListGameIDsByTypes(dbc dbctx.Context, userID uuid.UUID, kinds []types.InteractionType) ([]int64, error) {
	var ids []int64
	if userID == uuid.Nil {
		return ids, nil
	}
	q := dbc.DB(r.db).Model(&types.Interaction{}).Where("user_id = ?", userID)
	if len(kinds) > 0 {
		q = q.Where("type IN ?", kinds)
	}
	if err := q.Distinct("game_id").Order("game_id ASC").Pluck("game_id", &ids).Error; err != nil {
		return nil, db.Classify("interaction.list_game_ids_by_types", err)
	}
	return ids, nil
}
