package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gamerec-backend/internal/data/repos"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
)

var errFake = errors.New("fake failure")

// store is an in-memory backing for every fake repository.
type store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*types.User
	games         map[int64]*types.Game
	prefs         map[uuid.UUID]*types.PreferenceSet
	interactions  []*types.Interaction
	profiles      map[uuid.UUID]*types.BehaviorProfile
	seen          map[string]map[int64]bool
	profileWrites int
}

func newStore() *store {
	return &store{
		users:    map[uuid.UUID]*types.User{},
		games:    map[int64]*types.Game{},
		prefs:    map[uuid.UUID]*types.PreferenceSet{},
		profiles: map[uuid.UUID]*types.BehaviorProfile{},
		seen:     map[string]map[int64]bool{},
	}
}

func (s *store) repoSet() repos.Set {
	return repos.Set{
		Game:            fakeGameRepo{s},
		User:            fakeUserRepo{s},
		UserPreference:  fakePrefRepo{s},
		Interaction:     fakeInteractionRepo{s},
		BehaviorProfile: fakeProfileRepo{s},
		DailySeen:       fakeSeenRepo{s},
	}
}

func (s *store) addUser() uuid.UUID {
	id := uuid.New()
	s.users[id] = &types.User{ID: id, Username: id.String()[:8]}
	return id
}

func (s *store) addGame(g *types.Game) *types.Game {
	if g.Platforms == nil {
		g.Platforms = &types.GamePlatform{GameID: g.ID, Windows: true}
	}
	s.games[g.ID] = g
	return g
}

func (s *store) interact(userID uuid.UUID, gameID int64, kind types.InteractionType, at time.Time) {
	s.interactions = append(s.interactions, &types.Interaction{
		ID:               uuid.New(),
		UserID:           userID,
		GameID:           gameID,
		Type:             kind,
		InteractionScore: kind.DefaultScore(),
		InteractedAt:     at,
	})
}

func catalogGame(id int64, genres ...int64) *types.Game {
	g := &types.Game{ID: id, Name: "game", IsActive: true}
	for _, gid := range genres {
		g.Genres = append(g.Genres, types.Genre{ID: gid})
	}
	return g
}

type fakeUserRepo struct{ s *store }

func (r fakeUserRepo) Create(_ dbctx.Context, users []*types.User) ([]*types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range users {
		r.s.users[u.ID] = u
	}
	return users, nil
}

func (r fakeUserRepo) GetByID(_ dbctx.Context, id uuid.UUID) (*types.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[id], nil
}

func (r fakeUserRepo) Exists(_ dbctx.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.users[id]
	return ok, nil
}

type fakeGameRepo struct{ s *store }

func (r fakeGameRepo) GetByID(_ dbctx.Context, id int64) (*types.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.games[id], nil
}

func (r fakeGameRepo) GetByIDs(_ dbctx.Context, ids []int64) ([]*types.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Game
	for _, id := range ids {
		if g, ok := r.s.games[id]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeGameRepo) FindCandidates(_ dbctx.Context, c types.CandidateCriteria) ([]*types.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Game
	for _, g := range r.s.games {
		if c.Matches(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out, nil
}

func (r fakeGameRepo) ListActiveAfter(_ dbctx.Context, afterID int64, limit int) ([]*types.Game, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Game
	for _, g := range r.s.games {
		if g.IsActive && g.ID > afterID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePrefRepo struct{ s *store }

func (r fakePrefRepo) GetSet(_ dbctx.Context, userID uuid.UUID) (*types.PreferenceSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.prefs[userID]; ok {
		return p, nil
	}
	return &types.PreferenceSet{UserID: userID, Genres: map[int64]int{}, Categories: map[int64]int{}}, nil
}

func (r fakePrefRepo) set(userID uuid.UUID) *types.PreferenceSet {
	p := r.s.prefs[userID]
	if p == nil {
		p = &types.PreferenceSet{UserID: userID, Genres: map[int64]int{}, Categories: map[int64]int{}}
		r.s.prefs[userID] = p
	}
	return p
}

func (r fakePrefRepo) UpsertSettings(_ dbctx.Context, row *types.UserPreference) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.set(row.UserID).Settings = row
	return nil
}

func (r fakePrefRepo) UpsertGenreWeight(_ dbctx.Context, userID uuid.UUID, genreID int64, weight int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.set(userID).Genres[genreID] = weight
	return nil
}

func (r fakePrefRepo) UpsertCategoryWeight(_ dbctx.Context, userID uuid.UUID, categoryID int64, weight int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.set(userID).Categories[categoryID] = weight
	return nil
}

type fakeInteractionRepo struct{ s *store }

func (r fakeInteractionRepo) Upsert(_ dbctx.Context, row *types.Interaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, it := range r.s.interactions {
		if it.UserID == row.UserID && it.GameID == row.GameID && it.Type == row.Type {
			it.InteractionScore = row.InteractionScore
			it.InteractedAt = row.InteractedAt
			return nil
		}
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	cp := *row
	r.s.interactions = append(r.s.interactions, &cp)
	return nil
}

func (r fakeInteractionRepo) ListRecent(_ dbctx.Context, userID uuid.UUID, kinds []types.InteractionType, limit int) ([]*types.Interaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*types.Interaction
	for _, it := range r.s.interactions {
		if it.UserID == userID && hasKind(kinds, it.Type) {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].InteractedAt.Equal(out[j].InteractedAt) {
			return out[i].InteractedAt.After(out[j].InteractedAt)
		}
		return out[i].GameID < out[j].GameID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r fakeInteractionRepo) CountByUser(_ dbctx.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, it := range r.s.interactions {
		if it.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r fakeInteractionRepo) LatestInteractedAt(_ dbctx.Context, userID uuid.UUID) (*time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *time.Time
	for _, it := range r.s.interactions {
		if it.UserID == userID && (latest == nil || it.InteractedAt.After(*latest)) {
			at := it.InteractedAt
			latest = &at
		}
	}
	return latest, nil
}

func (r fakeInteractionRepo) ListGameIDsByTypes(_ dbctx.Context, userID uuid.UUID, kinds []types.InteractionType) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := map[int64]bool{}
	var out []int64
	for _, it := range r.s.interactions {
		if it.UserID == userID && hasKind(kinds, it.Type) && !seen[it.GameID] {
			seen[it.GameID] = true
			out = append(out, it.GameID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func hasKind(kinds []types.InteractionType, k types.InteractionType) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

type fakeProfileRepo struct{ s *store }

func (r fakeProfileRepo) GetByUserID(_ dbctx.Context, userID uuid.UUID) (*types.BehaviorProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r fakeProfileRepo) Upsert(_ dbctx.Context, row *types.BehaviorProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	cp := *row
	r.s.profiles[row.UserID] = &cp
	r.s.profileWrites++
	return nil
}

func (r fakeProfileRepo) IncrementInteractionCounter(_ dbctx.Context, userID uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		p = &types.BehaviorProfile{ID: uuid.New(), UserID: userID}
		r.s.profiles[userID] = p
	}
	p.TotalInteractions++
	p.InteractionsSinceUpdate++
	p.LastInteractionAt = &at
	return nil
}

type fakeSeenRepo struct{ s *store }

func (r fakeSeenRepo) Insert(_ dbctx.Context, userID uuid.UUID, gameID int64, date string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := userID.String() + "|" + date
	if r.s.seen[key] == nil {
		r.s.seen[key] = map[int64]bool{}
	}
	if r.s.seen[key][gameID] {
		return false, nil
	}
	r.s.seen[key][gameID] = true
	return true, nil
}

func (r fakeSeenRepo) CountForDate(_ dbctx.Context, userID uuid.UUID, date string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.seen[userID.String()+"|"+date])), nil
}

func (r fakeSeenRepo) ListGameIDsForDate(_ dbctx.Context, userID uuid.UUID, date string) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []int64
	for id := range r.s.seen[userID.String()+"|"+date] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r fakeSeenRepo) DeleteOlderThan(_ dbctx.Context, date string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for key, ids := range r.s.seen {
		if key[strings.Index(key, "|")+1:] < date {
			n += int64(len(ids))
			delete(r.s.seen, key)
		}
	}
	return n, nil
}

// fakeQuerier answers reads by the first registered fragment contained in
// the statement.
type fakeQuerier struct {
	mu      sync.Mutex
	answers []fakeAnswer
	writes  []string
	delay   time.Duration
}

type fakeAnswer struct {
	fragment string
	rows     []map[string]any
	err      error
}

func (q *fakeQuerier) on(fragment string, rows []map[string]any, err error) *fakeQuerier {
	q.answers = append(q.answers, fakeAnswer{fragment: fragment, rows: rows, err: err})
	return q
}

func (q *fakeQuerier) Read(ctx context.Context, cypher string, _ map[string]any) ([]map[string]any, error) {
	if q.delay > 0 {
		select {
		case <-time.After(q.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, a := range q.answers {
		if strings.Contains(cypher, a.fragment) {
			return a.rows, a.err
		}
	}
	return nil, nil
}

func (q *fakeQuerier) Write(_ context.Context, cypher string, _ map[string]any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.writes = append(q.writes, cypher)
	return nil
}

func ctxDB(ctx context.Context) dbctx.Context { return dbctx.New(ctx) }
