package services

import (
	"math"
	"reflect"
	"testing"
	"time"

	types "github.com/yungbote/gamerec-backend/internal/domain"
)

var analysisNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func event(kind types.InteractionType, ageDays int, g *types.Game) AnalyzedInteraction {
	return AnalyzedInteraction{
		Interaction: &types.Interaction{
			GameID:       g.ID,
			Type:         kind,
			InteractedAt: analysisNow.Add(-time.Duration(ageDays) * 24 * time.Hour),
		},
		Game: g,
	}
}

func withDevelopers(g *types.Game, ids ...int64) *types.Game {
	for _, id := range ids {
		g.Developers = append(g.Developers, types.Developer{ID: id})
	}
	return g
}

func TestTemporalWeight(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cases := []struct {
		days int
		want float64
	}{
		{0, 1.0},
		{365, 0.25},
		{487, 0.25},
		{2000, 0.25},
	}
	for _, tc := range cases {
		got := TemporalWeight(cfg, analysisNow.Add(-time.Duration(tc.days)*24*time.Hour), analysisNow)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("days=%d: want=%v got=%v", tc.days, tc.want, got)
		}
	}

	// Partial days do not count.
	if got := TemporalWeight(cfg, analysisNow.Add(-23*time.Hour), analysisNow); got != 1.0 {
		t.Fatalf("23h: want=1 got=%v", got)
	}
	// Future timestamps are treated as today.
	if got := TemporalWeight(cfg, analysisNow.Add(48*time.Hour), analysisNow); got != 1.0 {
		t.Fatalf("future: want=1 got=%v", got)
	}

	prev := 1.0
	for d := 0; d <= 600; d++ {
		w := TemporalWeight(cfg, analysisNow.Add(-time.Duration(d)*24*time.Hour), analysisNow)
		if w > prev || w < 0.25 || w > 1 {
			t.Fatalf("day %d: weight %v breaks monotonic bound (prev %v)", d, w, prev)
		}
		prev = w
	}
}

func TestDetermineExperienceLevel(t *testing.T) {
	cases := map[int]ExperienceLevel{
		0:   LevelNovice,
		19:  LevelNovice,
		20:  LevelIntermediate,
		99:  LevelIntermediate,
		100: LevelAdvanced,
		500: LevelAdvanced,
	}
	for n, want := range cases {
		if got := DetermineExperienceLevel(n); got != want {
			t.Fatalf("level(%d): want=%s got=%s", n, want, got)
		}
	}
}

func TestBaseWeightTablesSumTo100(t *testing.T) {
	for _, level := range []ExperienceLevel{LevelNovice, LevelIntermediate, LevelAdvanced} {
		sum := 0.0
		for _, w := range BaseWeights(level) {
			sum += w
		}
		if sum != 100 {
			t.Fatalf("%s: want=100 got=%v", level, sum)
		}
	}
}

func TestAnalyzeGenrePatternsSingleGenre(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	const rpg = int64(7)
	var events []AnalyzedInteraction
	for i := int64(1); i <= 10; i++ {
		events = append(events, event(types.InteractionLike, 0, catalogGame(i, rpg)))
	}

	res := AnalyzeGenrePatterns(cfg, events, analysisNow)
	stats := res.Liked[rpg]
	if stats.Count != 10 {
		t.Fatalf("count: want=10 got=%d", stats.Count)
	}
	if stats.WeightedScore != 100 {
		t.Fatalf("weighted_score: want=100 got=%v", stats.WeightedScore)
	}
	if stats.AvgTemporalWeight != 1 {
		t.Fatalf("avg_temporal_weight: want=1 got=%v", stats.AvgTemporalWeight)
	}
	if c := Consistency(res.Liked); c != 1.0 {
		t.Fatalf("consistency: want=1 got=%v", c)
	}

	weights := CalculateAdaptiveWeights(10, res.Liked, nil, false)
	if weights[SignalGenre] <= 40 {
		t.Fatalf("genre weight: want >40 got=%v", weights[SignalGenre])
	}
	if weights[SignalGenre] != 46.4 {
		t.Fatalf("genre weight: want=46.4 got=%v", weights[SignalGenre])
	}

	again := AnalyzeGenrePatterns(cfg, events, analysisNow)
	if !reflect.DeepEqual(res, again) {
		t.Fatalf("analysis is not deterministic: %+v vs %+v", res, again)
	}
}

func TestAnalyzeGenrePatternsRejectionRate(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	events := []AnalyzedInteraction{
		event(types.InteractionDislike, 1, catalogGame(1, 3, 4)),
		event(types.InteractionDislike, 2, catalogGame(2, 3)),
		event(types.InteractionFavorite, 3, catalogGame(3, 5)),
		event(types.InteractionView, 0, catalogGame(4, 5)),
	}
	res := AnalyzeGenrePatterns(cfg, events, analysisNow)
	if got := res.Disliked[3].RejectionRate; got != 1.0 {
		t.Fatalf("genre 3 rejection: want=1 got=%v", got)
	}
	if got := res.Disliked[4].RejectionRate; got != 0.5 {
		t.Fatalf("genre 4 rejection: want=0.5 got=%v", got)
	}
	if got := res.Liked[5].Count; got != 1 {
		t.Fatalf("views must not count: want=1 got=%d", got)
	}
	if got := res.Disliked[3].WeightedScore; got != 0 {
		t.Fatalf("disliked weighted score: want=0 got=%v", got)
	}
}

func TestAnalyzeDeveloperPatternsOrdering(t *testing.T) {
	events := []AnalyzedInteraction{
		event(types.InteractionLike, 0, withDevelopers(catalogGame(1), 5)),
		event(types.InteractionLike, 0, withDevelopers(catalogGame(2), 3)),
		event(types.InteractionLike, 0, withDevelopers(catalogGame(3), 9)),
		event(types.InteractionFavorite, 0, withDevelopers(catalogGame(4), 9)),
		event(types.InteractionDislike, 0, withDevelopers(catalogGame(5), 3)),
	}
	got := AnalyzeDeveloperPatterns(events, 10)
	want := []types.AffinityCount{{ID: 9, Count: 2}, {ID: 5, Count: 1}, {ID: 3, Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("developers: want=%v got=%v", want, got)
	}
	if got := AnalyzeDeveloperPatterns(events, 1); len(got) != 1 {
		t.Fatalf("limit: want=1 got=%d", len(got))
	}
}

func TestAnalyzeFreeToPlayPreference(t *testing.T) {
	if got := AnalyzeFreeToPlayPreference(nil); got != 0 {
		t.Fatalf("empty: want=0 got=%v", got)
	}
	free := func(id int64) *types.Game { g := catalogGame(id); g.IsFree = true; return g }
	events := []AnalyzedInteraction{
		event(types.InteractionLike, 0, free(1)),
		event(types.InteractionLike, 0, free(2)),
		event(types.InteractionDislike, 0, catalogGame(3)),
	}
	if got := AnalyzeFreeToPlayPreference(events); got != 1.0 {
		t.Fatalf("free leaning: want=1 got=%v", got)
	}
}

func TestAnalyzeMatureAndCommunityDefaults(t *testing.T) {
	if got := AnalyzeMatureContentTolerance(nil, types.MatureRequiredAge); got != NeutralTolerance {
		t.Fatalf("mature default: want=%v got=%v", NeutralTolerance, got)
	}
	mature := catalogGame(1)
	mature.RequiredAge = 18
	events := []AnalyzedInteraction{
		event(types.InteractionLike, 0, mature),
		event(types.InteractionLike, 0, catalogGame(2)),
		event(types.InteractionLike, 0, catalogGame(3)),
		event(types.InteractionLike, 0, catalogGame(4)),
	}
	if got := AnalyzeMatureContentTolerance(events, types.MatureRequiredAge); got != 0.25 {
		t.Fatalf("mature: want=0.25 got=%v", got)
	}

	for m, v := range AnalyzeCommunityTolerances(events) {
		if v != NeutralTolerance {
			t.Fatalf("community %s default: want=%v got=%v", m, NeutralTolerance, v)
		}
	}
	rated := catalogGame(5)
	rated.CommunityRating = &types.CommunityRating{ToxicityRate: 0.4, BugRate: 0.2}
	tol := AnalyzeCommunityTolerances([]AnalyzedInteraction{event(types.InteractionLike, 0, rated)})
	if tol[types.CommunityMetric("toxicity")] != 0.4 || tol[types.CommunityMetric("bug")] != 0.2 {
		t.Fatalf("community averages: got=%v", tol)
	}
}

func TestAdaptiveWeightsAlwaysSumTo100(t *testing.T) {
	liked := types.PatternMap{1: {Count: 3}, 2: {Count: 1}}
	for _, total := range []int{3, 19, 20, 57, 99, 100, 1000} {
		for _, dev := range []bool{true, false} {
			w := CalculateAdaptiveWeights(total, liked, liked, dev)
			sum := 0.0
			for _, v := range w {
				sum += v
				if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
					t.Fatalf("weight %v has more than one decimal", v)
				}
			}
			if math.Abs(sum-100) > 1e-6 {
				t.Fatalf("total=%d dev=%v: want=100 got=%v", total, dev, sum)
			}
		}
	}
}

func TestNormalizeWeightsResidual(t *testing.T) {
	got := NormalizeWeights(map[string]float64{"a": 1, "b": 1, "c": 1})
	if got["a"] != 33.4 || got["b"] != 33.3 || got["c"] != 33.3 {
		t.Fatalf("residual: got=%v", got)
	}
	if got := NormalizeWeights(map[string]float64{}); len(got) != 0 {
		t.Fatalf("empty: got=%v", got)
	}
}

func TestRejectedIDs(t *testing.T) {
	events := []AnalyzedInteraction{
		event(types.InteractionDislike, 0, withDevelopers(catalogGame(1), 9, 4)),
		event(types.InteractionDislike, 0, withDevelopers(catalogGame(2), 9)),
		event(types.InteractionLike, 0, withDevelopers(catalogGame(3), 4)),
	}
	got := RejectedIDs(events, 2, (*types.Game).DeveloperIDs)
	if !reflect.DeepEqual(got, []int64{9}) {
		t.Fatalf("rejected: want=[9] got=%v", got)
	}
}
