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

type BehaviorProfileRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.BehaviorProfile, error)
	Upsert(dbc dbctx.Context, row *types.BehaviorProfile) error
	IncrementInteractionCounter(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
}

type behaviorProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBehaviorProfileRepo(db *gorm.DB, baseLog *logger.Logger) BehaviorProfileRepo {
	return &behaviorProfileRepo{db: db, log: baseLog.With("repo", "BehaviorProfileRepo")}
}

func (r *behaviorProfileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.BehaviorProfile, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.BehaviorProfile
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Limit(1).Find(&row).Error; err != nil {
		return nil, db.Classify("behavior_profile.get_by_user_id", err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

var profileUpdateColumns = []string{
	"total_interactions",
	"liked_genres",
	"disliked_genres",
	"liked_categories",
	"disliked_categories",
	"top_developers",
	"top_publishers",
	"free_to_play_preference",
	"mature_content_tolerance",
	"toxicity_tolerance",
	"cheater_tolerance",
	"bug_tolerance",
	"microtransaction_tolerance",
	"optimization_tolerance",
	"not_recommended_tolerance",
	"adaptive_weights",
	"interactions_since_update",
	"last_analyzed_at",
	"last_interaction_at",
	"updated_at",
}

func (r *behaviorProfileRepo) Upsert(dbc dbctx.Context, row *types.BehaviorProfile) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(profileUpdateColumns),
		}).
		Create(row).Error
	return db.Classify("behavior_profile.upsert", err)
}

// IncrementInteractionCounter bumps both counters in a single statement so
// concurrent interactions from one user never lose an update. A missing
// profile is created with both counters at 1.
func (r *behaviorProfileRepo) IncrementInteractionCounter(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	if userID == uuid.Nil {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	now := time.Now().UTC()
	row := &types.BehaviorProfile{
		ID:                      uuid.New(),
		UserID:                  userID,
		TotalInteractions:       1,
		InteractionsSinceUpdate: 1,
		LastInteractionAt:       &at,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"total_interactions":        gorm.Expr("behavior_profile.total_interactions + 1"),
				"interactions_since_update": gorm.Expr("behavior_profile.interactions_since_update + 1"),
				"last_interaction_at":       at,
				"updated_at":                now,
			}),
		}).
		Create(row).Error
	return db.Classify("behavior_profile.increment_interaction_counter", err)
}
