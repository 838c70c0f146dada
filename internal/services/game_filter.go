package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/data/repos"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// FilterInput carries the per-request state the filter needs besides stored
// preferences. Nil Preferences are loaded from the store.
type FilterInput struct {
	UserID        uuid.UUID
	Preferences   *types.PreferenceSet
	SeenToday     []int64
	Limit         int
	GenreBoost    bool
	CategoryBoost bool
}

type GameFilter interface {
	// BuildCriteria translates a user's hard constraints into candidate criteria.
	BuildCriteria(ctx context.Context, in FilterInput) (types.CandidateCriteria, error)
	FilterGames(ctx context.Context, in FilterInput) ([]*types.Game, types.CandidateCriteria, error)
}

type gameFilter struct {
	log          *logger.Logger
	games        repos.GameRepo
	prefs        repos.UserPreferenceRepo
	interactions repos.InteractionRepo
}

func NewGameFilter(baseLog *logger.Logger, games repos.GameRepo, prefs repos.UserPreferenceRepo, interactions repos.InteractionRepo) GameFilter {
	return &gameFilter{
		log:          baseLog.With("service", "GameFilter"),
		games:        games,
		prefs:        prefs,
		interactions: interactions,
	}
}

func (f *gameFilter) BuildCriteria(ctx context.Context, in FilterInput) (types.CandidateCriteria, error) {
	dbc := dbctx.New(ctx)
	prefs := in.Preferences
	if prefs == nil {
		loaded, err := f.prefs.GetSet(dbc, in.UserID)
		if err != nil {
			return types.CandidateCriteria{}, fmt.Errorf("load preferences: %w", err)
		}
		prefs = loaded
	}

	c := types.CandidateCriteria{Limit: in.Limit}
	c.AnyPlatform = prefs.PreferredPlatforms()
	if s := prefs.Settings; s != nil {
		c.FreeOnly = s.PrefersFreeToPlay
		if s.MinAgeRating > 0 {
			c.MaxRequiredAge = s.MinAgeRating
		}
		if s.AvoidViolence {
			c.ExcludedDescriptorIDs = append(c.ExcludedDescriptorIDs, types.ViolenceDescriptorIDs...)
		}
		if s.AvoidNudity {
			c.ExcludedDescriptorIDs = append(c.ExcludedDescriptorIDs, types.NudityDescriptorIDs...)
		}
	}

	acted, err := f.interactions.ListGameIDsByTypes(dbc, in.UserID, types.ExcludedTypes)
	if err != nil {
		return types.CandidateCriteria{}, fmt.Errorf("list excluded games: %w", err)
	}
	c.ExcludedGameIDs = mergeIDs(acted, in.SeenToday)

	if in.GenreBoost {
		ApplyGenreBoost(&c, prefs)
	}
	if in.CategoryBoost {
		ApplyCategoryBoost(&c, prefs)
	}
	return c, nil
}

func (f *gameFilter) FilterGames(ctx context.Context, in FilterInput) ([]*types.Game, types.CandidateCriteria, error) {
	c, err := f.BuildCriteria(ctx, in)
	if err != nil {
		return nil, c, err
	}
	out, err := f.games.FindCandidates(dbctx.New(ctx), c)
	if err != nil {
		return nil, c, fmt.Errorf("find candidates: %w", err)
	}
	f.log.Debug("candidates filtered",
		"user_id", in.UserID.String(),
		"candidates", len(out),
		"excluded", len(c.ExcludedGameIDs),
	)
	return out, c, nil
}

// ApplyGenreBoost narrows c to the user's declared genres. No-op without any.
func ApplyGenreBoost(c *types.CandidateCriteria, prefs *types.PreferenceSet) {
	if !prefs.HasGenres() {
		return
	}
	c.GenreIDs = sortedKeys(prefs.Genres)
}

func ApplyCategoryBoost(c *types.CandidateCriteria, prefs *types.PreferenceSet) {
	if !prefs.HasCategories() {
		return
	}
	c.CategoryIDs = sortedKeys(prefs.Categories)
}

func sortedKeys(m map[int64]int) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func mergeIDs(lists ...[]int64) []int64 {
	seen := map[int64]bool{}
	var out []int64
	for _, l := range lists {
		for _, id := range l {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
