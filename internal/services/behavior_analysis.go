package services

import (
	"math"
	"sort"
	"time"

	types "github.com/yungbote/gamerec-backend/internal/domain"
)

// AnalyzedInteraction is one interaction joined with its catalog entry.
type AnalyzedInteraction struct {
	Interaction *types.Interaction
	Game        *types.Game
}

type PatternResult struct {
	Liked    types.PatternMap
	Disliked types.PatternMap
}

type ExperienceLevel string

const (
	LevelNovice       ExperienceLevel = "novice"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

var baseWeightTables = map[ExperienceLevel]map[string]float64{
	LevelNovice: {
		SignalGenre:      40,
		SignalCategory:   20,
		SignalPlatform:   10,
		SignalPopularity: 20,
		SignalRating:     10,
	},
	LevelIntermediate: {
		SignalGenre:      30,
		SignalCategory:   20,
		SignalPlatform:   10,
		SignalDeveloper:  15,
		SignalCommunity:  15,
		SignalPopularity: 10,
	},
	LevelAdvanced: {
		SignalGenre:     25,
		SignalCategory:  20,
		SignalPlatform:  5,
		SignalDeveloper: 20,
		SignalCommunity: 15,
		SignalRating:    5,
		SignalMaturity:  10,
	},
}

// BaseWeights returns a copy of the weight table for a level.
func BaseWeights(level ExperienceLevel) map[string]float64 {
	src := baseWeightTables[level]
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func DetermineExperienceLevel(totalInteractions int) ExperienceLevel {
	switch {
	case totalInteractions < 20:
		return LevelNovice
	case totalInteractions < 100:
		return LevelIntermediate
	default:
		return LevelAdvanced
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// TemporalWeight decays linearly with whole days of age and floors at
// cfg.DecayFloor. Same-day interactions weigh 1.0.
func TemporalWeight(cfg AnalysisConfig, interactedAt, now time.Time) float64 {
	days := math.Floor(now.Sub(interactedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	w := 1 - (days/cfg.DecayHorizonDays)*cfg.DecayRate
	if w > 1 {
		w = 1
	}
	return math.Max(cfg.DecayFloor, w)
}

func AnalyzeGenrePatterns(cfg AnalysisConfig, events []AnalyzedInteraction, now time.Time) PatternResult {
	return analyzePatterns(cfg, events, now, (*types.Game).GenreIDs)
}

func AnalyzeCategoryPatterns(cfg AnalysisConfig, events []AnalyzedInteraction, now time.Time) PatternResult {
	return analyzePatterns(cfg, events, now, (*types.Game).CategoryIDs)
}

func analyzePatterns(cfg AnalysisConfig, events []AnalyzedInteraction, now time.Time, idsOf func(*types.Game) []int64) PatternResult {
	liked := types.PatternMap{}
	disliked := types.PatternMap{}
	weights := map[int64][]float64{}
	dislikeTotal := 0

	for _, ev := range events {
		if ev.Interaction == nil || ev.Game == nil {
			continue
		}
		switch {
		case ev.Interaction.Type.IsPositive():
			w := TemporalWeight(cfg, ev.Interaction.InteractedAt, now)
			for _, id := range idsOf(ev.Game) {
				s := liked[id]
				s.Count++
				s.WeightedScore += w * 10
				liked[id] = s
				weights[id] = append(weights[id], w)
			}
		case ev.Interaction.Type == types.InteractionDislike:
			dislikeTotal++
			for _, id := range idsOf(ev.Game) {
				s := disliked[id]
				s.Count++
				disliked[id] = s
			}
		}
	}

	for id, s := range liked {
		sum := 0.0
		for _, w := range weights[id] {
			sum += w
		}
		s.WeightedScore = round(s.WeightedScore, 2)
		if n := len(weights[id]); n > 0 {
			s.AvgTemporalWeight = round(sum/float64(n), 2)
		}
		liked[id] = s
	}
	for id, s := range disliked {
		if dislikeTotal > 0 {
			s.RejectionRate = round(float64(s.Count)/float64(dislikeTotal), 2)
		}
		disliked[id] = s
	}
	return PatternResult{Liked: liked, Disliked: disliked}
}

func AnalyzeDeveloperPatterns(events []AnalyzedInteraction, limit int) []types.AffinityCount {
	return topAffinity(events, limit, (*types.Game).DeveloperIDs)
}

func AnalyzePublisherPatterns(events []AnalyzedInteraction, limit int) []types.AffinityCount {
	return topAffinity(events, limit, (*types.Game).PublisherIDs)
}

// topAffinity counts liked/favorited games per id; ties keep first-seen order.
func topAffinity(events []AnalyzedInteraction, limit int, idsOf func(*types.Game) []int64) []types.AffinityCount {
	index := map[int64]int{}
	var out []types.AffinityCount
	for _, ev := range events {
		if ev.Interaction == nil || ev.Game == nil || !ev.Interaction.Type.IsPositive() {
			continue
		}
		for _, id := range idsOf(ev.Game) {
			if i, ok := index[id]; ok {
				out[i].Count++
				continue
			}
			index[id] = len(out)
			out = append(out, types.AffinityCount{ID: id, Count: 1})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AnalyzeFreeToPlayPreference returns a value in about [-1,1]; positive leans free.
func AnalyzeFreeToPlayPreference(events []AnalyzedInteraction) float64 {
	var freeLiked, freeDisliked, paidLiked, paidDisliked int
	for _, ev := range events {
		if ev.Interaction == nil || ev.Game == nil {
			continue
		}
		liked := ev.Interaction.Type.IsPositive()
		disliked := ev.Interaction.Type == types.InteractionDislike
		switch {
		case ev.Game.IsFree && liked:
			freeLiked++
		case ev.Game.IsFree && disliked:
			freeDisliked++
		case liked:
			paidLiked++
		case disliked:
			paidDisliked++
		}
	}
	if freeLiked+freeDisliked+paidLiked+paidDisliked == 0 {
		return 0
	}
	freeScore := float64(freeLiked-freeDisliked) / math.Max(1, float64(freeLiked+freeDisliked))
	paidScore := float64(paidLiked-paidDisliked) / math.Max(1, float64(paidLiked+paidDisliked))
	return round((freeScore-paidScore)/2, 2)
}

func AnalyzeMatureContentTolerance(events []AnalyzedInteraction, matureAge int) float64 {
	liked, mature := 0, 0
	for _, ev := range events {
		if ev.Interaction == nil || ev.Game == nil || !ev.Interaction.Type.IsPositive() {
			continue
		}
		liked++
		if ev.Game.RequiredAge >= matureAge {
			mature++
		}
	}
	if liked == 0 {
		return NeutralTolerance
	}
	return round(float64(mature)/float64(liked), 2)
}

// AnalyzeCommunityTolerances averages each community rate over liked games
// that carry a community rating.
func AnalyzeCommunityTolerances(events []AnalyzedInteraction) map[types.CommunityMetric]float64 {
	sums := map[types.CommunityMetric]float64{}
	n := 0
	for _, ev := range events {
		if ev.Interaction == nil || ev.Game == nil || ev.Game.CommunityRating == nil || !ev.Interaction.Type.IsPositive() {
			continue
		}
		n++
		for _, m := range types.CommunityMetrics {
			sums[m] += ev.Game.CommunityRating.Rate(m)
		}
	}
	out := make(map[types.CommunityMetric]float64, len(types.CommunityMetrics))
	for _, m := range types.CommunityMetrics {
		if n == 0 {
			out[m] = NeutralTolerance
			continue
		}
		out[m] = round(sums[m]/float64(n), 2)
	}
	return out
}

// Consistency is the dominant item's share of all liked counts.
func Consistency(items types.PatternMap) float64 {
	maxCount, sum := 0, 0
	for _, s := range items {
		sum += s.Count
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	if sum == 0 {
		return 0
	}
	return float64(maxCount) / float64(sum)
}

// CalculateAdaptiveWeights adjusts the level's base table by preference
// consistency and developer affinity, then renormalizes to exactly 100.
func CalculateAdaptiveWeights(totalInteractions int, likedGenres, likedCategories types.PatternMap, hasDeveloperAffinity bool) map[string]float64 {
	w := BaseWeights(DetermineExperienceLevel(totalInteractions))
	w[SignalGenre] *= 1 + Consistency(likedGenres)*0.3
	w[SignalCategory] *= 1 + Consistency(likedCategories)*0.3
	if _, ok := w[SignalDeveloper]; ok {
		if hasDeveloperAffinity {
			w[SignalDeveloper] *= 1.2
		} else {
			w[SignalDeveloper] *= 0.8
		}
	}
	return NormalizeWeights(w)
}

// NormalizeWeights scales w to sum to 100.0 at one decimal. Rounding residue
// goes to the largest weight (earliest in Signals on ties).
func NormalizeWeights(w map[string]float64) map[string]float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	out := make(map[string]float64, len(w))
	if sum <= 0 {
		return out
	}
	tenths := make(map[string]int64, len(w))
	var total int64
	largest := ""
	for _, name := range orderedKeys(w) {
		t := int64(math.Round(w[name] / sum * 1000))
		tenths[name] = t
		total += t
		if largest == "" || t > tenths[largest] {
			largest = name
		}
	}
	tenths[largest] += 1000 - total
	for name, t := range tenths {
		out[name] = float64(t) / 10
	}
	return out
}

// orderedKeys lists known signals in canonical order, then any others sorted.
func orderedKeys(w map[string]float64) []string {
	out := make([]string, 0, len(w))
	seen := map[string]bool{}
	for _, s := range Signals {
		if _, ok := w[s]; ok {
			out = append(out, s)
			seen[s] = true
		}
	}
	var extra []string
	for k := range w {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// RejectedIDs returns ids present on at least minCount distinct disliked games.
func RejectedIDs(events []AnalyzedInteraction, minCount int, idsOf func(*types.Game) []int64) []int64 {
	counts := map[int64]map[int64]struct{}{}
	for _, ev := range events {
		if ev.Interaction == nil || ev.Game == nil || ev.Interaction.Type != types.InteractionDislike {
			continue
		}
		for _, id := range idsOf(ev.Game) {
			if counts[id] == nil {
				counts[id] = map[int64]struct{}{}
			}
			counts[id][ev.Game.ID] = struct{}{}
		}
	}
	var out []int64
	for id, games := range counts {
		if len(games) >= minCount {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
