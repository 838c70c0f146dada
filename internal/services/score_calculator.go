package services

import (
	"math"
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/apierr"
)

const (
	// developerMissScore is the developer sub-score when the user has
	// affinity data but none of it matches the game.
	developerMissScore = 40.0
	// freeToPlayLean is the |preference| above which the price adjustment applies.
	freeToPlayLean = 0.3
)

// Rejections are developer/publisher ids the user disliked repeatedly.
type Rejections struct {
	Developers []int64
	Publishers []int64
}

type Adjustment struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// ScoreResult is a final score plus every input that produced it.
type ScoreResult struct {
	GameID       int64              `json:"game_id"`
	Score        float64            `json:"score"`
	Personalized bool               `json:"personalized"`
	Components   map[string]float64 `json:"components"`
	Weights      map[string]float64 `json:"weights"`
	Adjustments  []Adjustment       `json:"adjustments,omitempty"`
}

type ScoreCalculator interface {
	CalculateScore(prefs *types.PreferenceSet, g *types.Game) ScoreResult
	// CalculateScoreWithProfile fails with a consistency error when the
	// profile belongs to someone other than userID.
	CalculateScoreWithProfile(userID uuid.UUID, prefs *types.PreferenceSet, g *types.Game, profile *types.BehaviorProfile, rej Rejections) (ScoreResult, error)
}

type scoreCalculator struct {
	cfg ScoringConfig
}

func NewScoreCalculator(cfg ScoringConfig) ScoreCalculator {
	return &scoreCalculator{cfg: cfg}
}

func (s *scoreCalculator) CalculateScore(prefs *types.PreferenceSet, g *types.Game) ScoreResult {
	components := map[string]float64{
		SignalGenre:      GenreScore(prefs, g),
		SignalCategory:   CategoryScore(prefs, g),
		SignalPlatform:   PlatformScore(prefs, g),
		SignalPopularity: PopularityScore(g, s.cfg.PopularityReviewScale),
		SignalRating:     RatingScore(g),
	}
	weights := copyWeights(s.cfg.DefaultWeights)
	return ScoreResult{
		GameID:     g.ID,
		Score:      clampScore(weightedSum(components, weights)),
		Components: components,
		Weights:    weights,
	}
}

func (s *scoreCalculator) CalculateScoreWithProfile(userID uuid.UUID, prefs *types.PreferenceSet, g *types.Game, profile *types.BehaviorProfile, rej Rejections) (ScoreResult, error) {
	const op = "score.with_profile"
	if profile == nil {
		return ScoreResult{}, apierr.Input(op, "profile is required")
	}
	if profile.UserID != userID {
		return ScoreResult{}, apierr.Consistency(op, "profile %s belongs to user %s, not %s", profile.ID, profile.UserID, userID)
	}

	weights := copyWeights(profile.AdaptiveWeights.Data())
	if len(weights) == 0 {
		weights = copyWeights(s.cfg.DefaultWeights)
	}

	components := make(map[string]float64, len(weights))
	for _, signal := range orderedKeys(weights) {
		switch signal {
		case SignalGenre:
			learned, ok := BehaviorPatternScore(profile.LikedGenres.Data(), profile.DislikedGenres.Data(), g.GenreIDs())
			components[signal] = blendBehavior(GenreScore(prefs, g), prefs.HasGenres(), learned, ok)
		case SignalCategory:
			learned, ok := BehaviorPatternScore(profile.LikedCategories.Data(), profile.DislikedCategories.Data(), g.CategoryIDs())
			components[signal] = blendBehavior(CategoryScore(prefs, g), prefs.HasCategories(), learned, ok)
		case SignalPlatform:
			components[signal] = PlatformScore(prefs, g)
		case SignalPopularity:
			components[signal] = PopularityScore(g, s.cfg.PopularityReviewScale)
		case SignalRating:
			components[signal] = RatingScore(g)
		case SignalDeveloper:
			components[signal] = DeveloperScore(profile.TopDevelopers.Data(), g)
		case SignalCommunity:
			components[signal] = CommunityScore(profile, g)
		case SignalMaturity:
			components[signal] = MaturityScore(profile.MatureContentTolerance, g)
		default:
			components[signal] = NeutralScore
		}
	}

	var adj []Adjustment
	switch {
	case g.IsFree && profile.FreeToPlayPreference > freeToPlayLean:
		adj = append(adj, Adjustment{Name: "free_to_play_preference", Delta: s.cfg.FreeToPlayAdjustment})
	case g.IsFree && profile.FreeToPlayPreference < -freeToPlayLean:
		adj = append(adj, Adjustment{Name: "free_to_play_preference", Delta: -s.cfg.FreeToPlayAdjustment})
	}
	if intersects(g.DeveloperIDs(), rej.Developers) {
		adj = append(adj, Adjustment{Name: "rejected_developer", Delta: -s.cfg.RejectionPenalty})
	}
	if intersects(g.PublisherIDs(), rej.Publishers) {
		adj = append(adj, Adjustment{Name: "rejected_publisher", Delta: -s.cfg.RejectionPenalty})
	}
	if affinityCount(profile.TopPublishers.Data(), g.PublisherIDs()) > 0 {
		adj = append(adj, Adjustment{Name: "publisher_affinity", Delta: s.cfg.AffinityBoost})
	}

	total := weightedSum(components, weights)
	for _, a := range adj {
		total += a.Delta
	}
	return ScoreResult{
		GameID:       g.ID,
		Score:        clampScore(total),
		Personalized: true,
		Components:   components,
		Weights:      weights,
		Adjustments:  adj,
	}, nil
}

// GenreScore averages the declared weights (1-10) of matching genres, x10.
func GenreScore(prefs *types.PreferenceSet, g *types.Game) float64 {
	if !prefs.HasGenres() {
		return NeutralScore
	}
	return declaredScore(g.GenreIDs(), prefs.GenreWeight)
}

func CategoryScore(prefs *types.PreferenceSet, g *types.Game) float64 {
	if !prefs.HasCategories() {
		return NeutralScore
	}
	return declaredScore(g.CategoryIDs(), prefs.CategoryWeight)
}

func declaredScore(ids []int64, weightOf func(int64) (int, bool)) float64 {
	if len(ids) == 0 {
		return NeutralScore
	}
	sum, matches := 0, 0
	for _, id := range ids {
		if w, ok := weightOf(id); ok {
			sum += w
			matches++
		}
	}
	if matches == 0 {
		return 0
	}
	return math.Min(100, float64(sum)/float64(matches)*10)
}

func PlatformScore(prefs *types.PreferenceSet, g *types.Game) float64 {
	wanted := prefs.PreferredPlatforms()
	if len(wanted) == 0 || g.Platforms == nil {
		return NeutralScore
	}
	hit := 0
	for _, pl := range wanted {
		if g.Platforms.Supports(pl) {
			hit++
		}
	}
	return float64(hit*100) / float64(len(wanted))
}

func PopularityScore(g *types.Game, reviewScale float64) float64 {
	if g.TotalReviews <= 0 || reviewScale <= 0 {
		return NeutralScore
	}
	return math.Min(100, float64(g.TotalReviews)/reviewScale*100)
}

func RatingScore(g *types.Game) float64 {
	if g.PositiveRatio == nil {
		return NeutralScore
	}
	return clampScore(*g.PositiveRatio * 100)
}

// BehaviorPatternScore rates ids against learned likes: the strongest liked
// match relative to the user's top weighted score, minus disliked rejection.
func BehaviorPatternScore(liked, disliked types.PatternMap, ids []int64) (float64, bool) {
	if len(liked) == 0 && len(disliked) == 0 {
		return 0, false
	}
	if len(ids) == 0 {
		return NeutralScore, true
	}
	top := 0.0
	for _, s := range liked {
		top = math.Max(top, s.WeightedScore)
	}
	best, rejection := 0.0, 0.0
	for _, id := range ids {
		if s, ok := liked[id]; ok && top > 0 {
			best = math.Max(best, s.WeightedScore/top*100)
		}
		if s, ok := disliked[id]; ok {
			rejection = math.Max(rejection, s.RejectionRate)
		}
	}
	if best == 0 {
		best = NeutralScore * 0.5
	}
	return clampScore(best - rejection*50), true
}

// blendBehavior averages declared and learned sub-scores, using whichever exists.
func blendBehavior(declared float64, hasDeclared bool, learned float64, hasLearned bool) float64 {
	switch {
	case hasDeclared && hasLearned:
		return (declared + learned) / 2
	case hasLearned:
		return learned
	default:
		return declared
	}
}

func DeveloperScore(top []types.AffinityCount, g *types.Game) float64 {
	if len(top) == 0 {
		return NeutralScore
	}
	n := affinityCount(top, g.DeveloperIDs())
	if n == 0 {
		return developerMissScore
	}
	return math.Min(100, 60+float64(n)*10)
}

// CommunityScore penalizes each metric by how far the game's rate exceeds
// what the user has tolerated in games they liked.
func CommunityScore(p *types.BehaviorProfile, g *types.Game) float64 {
	if g.CommunityRating == nil {
		return NeutralScore
	}
	sum := 0.0
	for _, m := range types.CommunityMetrics {
		over := g.CommunityRating.Rate(m) - p.Tolerance(string(m))
		sum += 1 - math.Max(0, math.Min(1, over))
	}
	return clampScore(sum / float64(len(types.CommunityMetrics)) * 100)
}

func MaturityScore(tolerance float64, g *types.Game) float64 {
	if !g.IsMature() {
		return NeutralScore
	}
	return clampScore(tolerance * 100)
}

// affinityCount returns the highest affinity count among ids.
func affinityCount(top []types.AffinityCount, ids []int64) int {
	best := 0
	for _, a := range top {
		for _, id := range ids {
			if a.ID == id && a.Count > best {
				best = a.Count
			}
		}
	}
	return best
}

func weightedSum(components, weights map[string]float64) float64 {
	total := 0.0
	for signal, w := range weights {
		v, ok := components[signal]
		if !ok {
			v = NeutralScore
		}
		total += v * w / 100
	}
	return total
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return round(math.Max(0, math.Min(100, v)), 2)
}

func copyWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func intersects(a, b []int64) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// SignalContribution is one signal's share of a final score.
type SignalContribution struct {
	Signal       string  `json:"signal"`
	SubScore     float64 `json:"sub_score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

type Explanation struct {
	GameID      int64                `json:"game_id"`
	Score       float64              `json:"score"`
	Signals     []SignalContribution `json:"signals"`
	Adjustments []Adjustment         `json:"adjustments,omitempty"`
	Highlights  []string             `json:"highlights,omitempty"`
}

// GenerateExplanation breaks a score down by contribution, largest first.
func GenerateExplanation(res ScoreResult, g *types.Game, profile *types.BehaviorProfile) Explanation {
	ex := Explanation{GameID: res.GameID, Score: res.Score, Adjustments: res.Adjustments}
	for _, signal := range orderedKeys(res.Weights) {
		sub := res.Components[signal]
		w := res.Weights[signal]
		ex.Signals = append(ex.Signals, SignalContribution{
			Signal:       signal,
			SubScore:     round(sub, 2),
			Weight:       w,
			Contribution: round(sub*w/100, 2),
		})
	}
	sort.SliceStable(ex.Signals, func(i, j int) bool { return ex.Signals[i].Contribution > ex.Signals[j].Contribution })

	if res.Components[SignalGenre] >= 70 {
		ex.Highlights = append(ex.Highlights, "matches genres you enjoy")
	}
	if res.Components[SignalCategory] >= 70 {
		ex.Highlights = append(ex.Highlights, "has features you like")
	}
	if profile != nil && g != nil && affinityCount(profile.TopDevelopers.Data(), g.DeveloperIDs()) > 0 {
		ex.Highlights = append(ex.Highlights, "from a developer you like")
	}
	if g != nil && g.PositiveRatio != nil && *g.PositiveRatio >= 0.8 {
		ex.Highlights = append(ex.Highlights, "highly rated by players")
	}
	if g != nil && g.IsFree {
		ex.Highlights = append(ex.Highlights, "free to play")
	}
	return ex
}
