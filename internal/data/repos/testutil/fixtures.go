package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gamerec-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: "user-" + uuid.NewString()[:8],
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// GameSpec describes a catalog row plus its joins for seeding.
type GameSpec struct {
	ID            int64
	Active        bool
	Free          bool
	RequiredAge   int
	PositiveRatio *float64
	TotalReviews  int
	Genres        []int64
	Categories    []int64
	Developers    []int64
	Publishers    []int64
	Descriptors   []int64
	Windows       bool
	Mac           bool
	Linux         bool
	Community     *types.CommunityRating
}

func SeedGame(tb testing.TB, ctx context.Context, tx *gorm.DB, in GameSpec) *types.Game {
	tb.Helper()
	g := &types.Game{
		ID:            in.ID,
		Name:          "game",
		IsActive:      in.Active,
		IsFree:        in.Free,
		RequiredAge:   in.RequiredAge,
		PositiveRatio: in.PositiveRatio,
		TotalReviews:  in.TotalReviews,
		Platforms:     &types.GamePlatform{GameID: in.ID, Windows: in.Windows, Mac: in.Mac, Linux: in.Linux},
	}
	for _, id := range in.Genres {
		g.Genres = append(g.Genres, types.Genre{ID: id, Name: "genre"})
	}
	for _, id := range in.Categories {
		g.Categories = append(g.Categories, types.Category{ID: id, Name: "category"})
	}
	for _, id := range in.Developers {
		g.Developers = append(g.Developers, types.Developer{ID: id, Name: "developer"})
	}
	for _, id := range in.Publishers {
		g.Publishers = append(g.Publishers, types.Publisher{ID: id, Name: "publisher"})
	}
	for _, id := range in.Descriptors {
		g.ContentDescriptors = append(g.ContentDescriptors, types.ContentDescriptor{ID: id, Name: "descriptor"})
	}
	if in.Community != nil {
		cr := *in.Community
		cr.GameID = in.ID
		g.CommunityRating = &cr
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed game %d: %v", in.ID, err)
	}
	return g
}

func SeedInteraction(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameID int64, kind types.InteractionType, at time.Time) *types.Interaction {
	tb.Helper()
	row := &types.Interaction{
		ID:               uuid.New(),
		UserID:           userID,
		GameID:           gameID,
		Type:             kind,
		InteractionScore: kind.DefaultScore(),
		InteractedAt:     at,
	}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed interaction: %v", err)
	}
	return row
}

func PtrFloat(v float64) *float64 { return &v }
