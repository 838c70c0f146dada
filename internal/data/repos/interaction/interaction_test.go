package interaction

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/gamerec-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
)

func TestInteractionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)

	repo := NewInteractionRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []*types.Interaction{
		{UserID: u.ID, GameID: 1, Type: types.InteractionLike, InteractionScore: 3, InteractedAt: base},
		{UserID: u.ID, GameID: 2, Type: types.InteractionDislike, InteractionScore: -3, InteractedAt: base.Add(time.Hour)},
		{UserID: u.ID, GameID: 3, Type: types.InteractionView, InteractionScore: 1, InteractedAt: base.Add(2 * time.Hour)},
	}
	for _, row := range rows {
		if err := repo.Upsert(dbc, row); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	// Repeat of (user, game, type) updates in place.
	again := &types.Interaction{UserID: u.ID, GameID: 1, Type: types.InteractionLike, InteractionScore: 4, InteractedAt: base.Add(3 * time.Hour)}
	if err := repo.Upsert(dbc, again); err != nil {
		t.Fatalf("Upsert repeat: %v", err)
	}

	n, err := repo.CountByUser(dbc, u.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if n != 3 {
		t.Fatalf("CountByUser: want=3 got=%d", n)
	}

	recent, err := repo.ListRecent(dbc, u.ID, types.PatternTypes, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("ListRecent: want=2 got=%d", len(recent))
	}
	if recent[0].GameID != 1 || recent[0].InteractionScore != 4 {
		t.Fatalf("ListRecent: want newest game 1 with score 4, got game=%d score=%d", recent[0].GameID, recent[0].InteractionScore)
	}

	limited, err := repo.ListRecent(dbc, u.ID, nil, 1)
	if err != nil {
		t.Fatalf("ListRecent limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("ListRecent limit: want=1 got=%d", len(limited))
	}

	latest, err := repo.LatestInteractedAt(dbc, u.ID)
	if err != nil {
		t.Fatalf("LatestInteractedAt: %v", err)
	}
	if latest == nil || !latest.Equal(base.Add(3*time.Hour)) {
		t.Fatalf("LatestInteractedAt: want=%v got=%v", base.Add(3*time.Hour), latest)
	}

	ids, err := repo.ListGameIDsByTypes(dbc, u.ID, types.ExcludedTypes)
	if err != nil {
		t.Fatalf("ListGameIDsByTypes: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("ListGameIDsByTypes: want=[1 2] got=%v", ids)
	}
}

func TestBehaviorProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.WithTx(ctx, tx)

	repo := NewBehaviorProfileRepo(db, testutil.Logger(t))
	u := testutil.SeedUser(t, ctx, tx)

	got, err := repo.GetByUserID(dbc, u.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if got != nil {
		t.Fatalf("GetByUserID: want nil before first write")
	}

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := repo.IncrementInteractionCounter(dbc, u.ID, at); err != nil {
			t.Fatalf("IncrementInteractionCounter: %v", err)
		}
	}
	got, err = repo.GetByUserID(dbc, u.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserID after increment: err=%v row=%v", err, got)
	}
	if got.TotalInteractions != 2 || got.InteractionsSinceUpdate != 2 {
		t.Fatalf("counters: want=2/2 got=%d/%d", got.TotalInteractions, got.InteractionsSinceUpdate)
	}
	if got.LastAnalyzedAt != nil {
		t.Fatalf("LastAnalyzedAt: want nil for a placeholder profile")
	}

	analyzed := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	got.TotalInteractions = 12
	got.InteractionsSinceUpdate = 0
	got.LastAnalyzedAt = &analyzed
	got.FreeToPlayPreference = -0.25
	got.MatureContentTolerance = 0.67
	got.ToxicityTolerance = 0.12
	got.LikedGenres = datatypes.NewJSONType(types.PatternMap{
		7: {Count: 3, WeightedScore: 27.5, AvgTemporalWeight: 0.92},
	})
	got.DislikedGenres = datatypes.NewJSONType(types.PatternMap{
		9: {Count: 1, RejectionRate: 0.5},
	})
	got.TopDevelopers = datatypes.NewJSONType([]types.AffinityCount{{ID: 11, Count: 4}, {ID: 12, Count: 1}})
	got.AdaptiveWeights = datatypes.NewJSONType(map[string]float64{"genre_match": 47.4, "rating": 52.6})
	if err := repo.Upsert(dbc, got); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	reloaded, err := repo.GetByUserID(dbc, u.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("GetByUserID reload: err=%v row=%v", err, reloaded)
	}
	if reloaded.TotalInteractions != 12 || reloaded.InteractionsSinceUpdate != 0 {
		t.Fatalf("reload counters: want=12/0 got=%d/%d", reloaded.TotalInteractions, reloaded.InteractionsSinceUpdate)
	}
	if reloaded.FreeToPlayPreference != -0.25 || reloaded.MatureContentTolerance != 0.67 || reloaded.ToxicityTolerance != 0.12 {
		t.Fatalf("reload tolerances: got f2p=%v mature=%v tox=%v", reloaded.FreeToPlayPreference, reloaded.MatureContentTolerance, reloaded.ToxicityTolerance)
	}
	liked := reloaded.LikedGenres.Data()
	if s, ok := liked[7]; !ok || s.Count != 3 || s.WeightedScore != 27.5 || s.AvgTemporalWeight != 0.92 {
		t.Fatalf("reload liked genres: got %+v", liked)
	}
	if s := reloaded.DislikedGenres.Data()[9]; s.RejectionRate != 0.5 {
		t.Fatalf("reload rejection rate: want=0.5 got=%v", s.RejectionRate)
	}
	devs := reloaded.TopDevelopers.Data()
	if len(devs) != 2 || devs[0].ID != 11 || devs[0].Count != 4 {
		t.Fatalf("reload top developers: got %+v", devs)
	}
	if w := reloaded.AdaptiveWeights.Data()["genre_match"]; w != 47.4 {
		t.Fatalf("reload adaptive weight: want=47.4 got=%v", w)
	}

	// A later interaction bumps counters without touching the analysis.
	if err := repo.IncrementInteractionCounter(dbc, u.ID, analyzed.Add(time.Hour)); err != nil {
		t.Fatalf("IncrementInteractionCounter after upsert: %v", err)
	}
	bumped, _ := repo.GetByUserID(dbc, u.ID)
	if bumped.TotalInteractions != 13 || bumped.InteractionsSinceUpdate != 1 {
		t.Fatalf("bumped counters: want=13/1 got=%d/%d", bumped.TotalInteractions, bumped.InteractionsSinceUpdate)
	}
	if len(bumped.LikedGenres.Data()) != 1 {
		t.Fatalf("bumped liked genres: want preserved, got %+v", bumped.LikedGenres.Data())
	}
}
