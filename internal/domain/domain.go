package domain

import (
	"github.com/yungbote/gamerec-backend/internal/domain/game"
	"github.com/yungbote/gamerec-backend/internal/domain/interaction"
	"github.com/yungbote/gamerec-backend/internal/domain/user"
)

type (
	Game              = game.Game
	Genre             = game.Genre
	Category          = game.Category
	Developer         = game.Developer
	Publisher         = game.Publisher
	ContentDescriptor = game.ContentDescriptor
	GamePlatform      = game.GamePlatform
	CommunityRating   = game.CommunityRating
	CommunityMetric   = game.CommunityMetric
	Platform          = game.Platform
	CandidateCriteria = game.CandidateCriteria

	User                   = user.User
	UserPreference         = user.UserPreference
	UserGenrePreference    = user.UserGenrePreference
	UserCategoryPreference = user.UserCategoryPreference
	PreferenceSet          = user.PreferenceSet

	Interaction     = interaction.Interaction
	InteractionType = interaction.Type
	BehaviorProfile = interaction.BehaviorProfile
	PatternStats    = interaction.PatternStats
	PatternMap      = interaction.PatternMap
	AffinityCount   = interaction.AffinityCount
	DailySeenRecord = interaction.DailySeenRecord
)

const (
	InteractionView     = interaction.TypeView
	InteractionLike     = interaction.TypeLike
	InteractionDislike  = interaction.TypeDislike
	InteractionFavorite = interaction.TypeFavorite
	InteractionSkip     = interaction.TypeSkip

	SeenDateLayout    = interaction.SeenDateLayout
	MatureRequiredAge = game.MatureRequiredAge

	PlatformWindows = game.PlatformWindows
	PlatformMac     = game.PlatformMac
	PlatformLinux   = game.PlatformLinux
)

var (
	PositiveTypes = interaction.PositiveTypes
	PatternTypes  = interaction.PatternTypes
	ExcludedTypes = interaction.ExcludedTypes

	ViolenceDescriptorIDs = game.ViolenceDescriptorIDs
	NudityDescriptorIDs   = game.NudityDescriptorIDs

	CommunityMetrics = game.CommunityMetrics

	ParseInteractionType = interaction.ParseType
)

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&game.Genre{},
		&game.Category{},
		&game.Developer{},
		&game.Publisher{},
		&game.ContentDescriptor{},
		&game.Game{},
		&game.GamePlatform{},
		&game.CommunityRating{},

		&user.User{},
		&user.UserPreference{},
		&user.UserGenrePreference{},
		&user.UserCategoryPreference{},

		&interaction.Interaction{},
		&interaction.BehaviorProfile{},
		&interaction.DailySeenRecord{},
	}
}
