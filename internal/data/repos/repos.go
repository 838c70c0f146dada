package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/gamerec-backend/internal/data/repos/game"
	"github.com/yungbote/gamerec-backend/internal/data/repos/interaction"
	"github.com/yungbote/gamerec-backend/internal/data/repos/seen"
	"github.com/yungbote/gamerec-backend/internal/data/repos/user"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

type GameRepo = game.GameRepo

type UserRepo = user.UserRepo
type UserPreferenceRepo = user.UserPreferenceRepo

type InteractionRepo = interaction.InteractionRepo
type BehaviorProfileRepo = interaction.BehaviorProfileRepo

type DailySeenRepo = seen.DailySeenRepo

// Set bundles every repository the recommendation core reads or writes.
type Set struct {
	Game            GameRepo
	User            UserRepo
	UserPreference  UserPreferenceRepo
	Interaction     InteractionRepo
	BehaviorProfile BehaviorProfileRepo
	DailySeen       DailySeenRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Game:            game.NewGameRepo(db, log),
		User:            user.NewUserRepo(db, log),
		UserPreference:  user.NewUserPreferenceRepo(db, log),
		Interaction:     interaction.NewInteractionRepo(db, log),
		BehaviorProfile: interaction.NewBehaviorProfileRepo(db, log),
		DailySeen:       seen.NewDailySeenRepo(db, log),
	}
}
