package services

import (
	"context"
	"reflect"
	"testing"

	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

func TestFilterGamesAppliesHardConstraints(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	userID := s.addUser()
	set := s.repoSet()

	if err := set.UserPreference.UpsertSettings(ctxDB(ctx), &types.UserPreference{
		UserID:            userID,
		PrefersMac:        true,
		PrefersLinux:      true,
		PrefersFreeToPlay: true,
		MinAgeRating:      16,
		AvoidViolence:     true,
	}); err != nil {
		t.Fatalf("settings: %v", err)
	}

	mk := func(id int64, free bool, age int, mac, linux bool, descriptors ...int64) {
		g := catalogGame(id)
		g.IsFree = free
		g.RequiredAge = age
		g.Platforms = &types.GamePlatform{GameID: id, Windows: true, Mac: mac, Linux: linux}
		for _, d := range descriptors {
			g.ContentDescriptors = append(g.ContentDescriptors, types.ContentDescriptor{ID: d})
		}
		s.addGame(g)
	}
	mk(1, true, 0, true, false)     // passes
	mk(2, true, 0, false, false)    // windows only
	mk(3, false, 0, true, true)     // paid
	mk(4, true, 18, false, true)    // too old
	mk(5, true, 12, false, true, 2) // violence
	mk(6, true, 12, false, true, 3) // nudity allowed
	mk(7, true, 0, true, true)      // liked already
	mk(8, true, 0, true, true)      // seen today
	mk(9, true, 0, true, true)      // viewed only, stays
	s.games[10] = &types.Game{ID: 10, IsFree: true, Platforms: &types.GamePlatform{GameID: 10, Mac: true}}

	s.interact(userID, 7, types.InteractionLike, analysisNow)
	s.interact(userID, 9, types.InteractionView, analysisNow)

	f := NewGameFilter(logger.Nop(), set.Game, set.UserPreference, set.Interaction)
	games, criteria, err := f.FilterGames(ctx, FilterInput{UserID: userID, SeenToday: []int64{8}})
	if err != nil {
		t.Fatalf("FilterGames: %v", err)
	}
	var ids []int64
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	if want := []int64{1, 6, 9}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("candidates: want=%v got=%v", want, ids)
	}
	if want := []int64{7, 8}; !reflect.DeepEqual(criteria.ExcludedGameIDs, want) {
		t.Fatalf("excluded: want=%v got=%v", want, criteria.ExcludedGameIDs)
	}
}

func TestFilterGamesWithoutPreferencesKeepsActiveCatalog(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	userID := s.addUser()
	set := s.repoSet()
	s.addGame(catalogGame(1))
	s.addGame(&types.Game{ID: 2, IsActive: true, Platforms: &types.GamePlatform{GameID: 2}})

	f := NewGameFilter(logger.Nop(), set.Game, set.UserPreference, set.Interaction)
	games, criteria, err := f.FilterGames(ctx, FilterInput{UserID: userID})
	if err != nil {
		t.Fatalf("FilterGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("candidates: want=2 got=%d", len(games))
	}
	if len(criteria.AnyPlatform) != 0 || criteria.FreeOnly || criteria.MaxRequiredAge != 0 {
		t.Fatalf("criteria should be unconstrained: %+v", criteria)
	}
}

func TestApplyBoosts(t *testing.T) {
	var c types.CandidateCriteria
	prefs := &types.PreferenceSet{Genres: map[int64]int{9: 3, 2: 5}, Categories: map[int64]int{}}
	ApplyGenreBoost(&c, prefs)
	ApplyCategoryBoost(&c, prefs)
	if !reflect.DeepEqual(c.GenreIDs, []int64{2, 9}) {
		t.Fatalf("genre boost: got=%v", c.GenreIDs)
	}
	if c.CategoryIDs != nil {
		t.Fatalf("category boost without preferences must be a no-op: %v", c.CategoryIDs)
	}

	s := newStore()
	s.addGame(catalogGame(1, 2))
	s.addGame(catalogGame(2, 4))
	games, _ := fakeGameRepo{s}.FindCandidates(ctxDB(context.Background()), c)
	if len(games) != 1 || games[0].ID != 1 {
		t.Fatalf("boosted candidates: got=%v", games)
	}
}
