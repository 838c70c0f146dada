package graph

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

type recordingQuerier struct {
	writes []string
	params []map[string]any
	err    error
	reads  int
}

func (r *recordingQuerier) Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return []map[string]any{{"ok": true}}, nil
}

func (r *recordingQuerier) Write(ctx context.Context, cypher string, params map[string]any) error {
	r.writes = append(r.writes, cypher)
	r.params = append(r.params, params)
	return r.err
}

func TestUpsertUserInteractionEdges(t *testing.T) {
	cases := []struct {
		kind      types.InteractionType
		edge      string
		clearsOld string
	}{
		{types.InteractionLike, "[e:LIKED]", "stale:DISLIKED"},
		{types.InteractionFavorite, "[e:LIKED]", "stale:DISLIKED"},
		{types.InteractionDislike, "[e:DISLIKED]", "stale:LIKED"},
		{types.InteractionSkip, "[e:SKIPPED]", ""},
		{types.InteractionView, "[e:VIEWED]", ""},
	}
	for _, tc := range cases {
		q := &recordingQuerier{}
		row := &types.Interaction{UserID: uuid.New(), GameID: 5, Type: tc.kind, InteractionScore: tc.kind.DefaultScore(), InteractedAt: time.Now()}
		if err := UpsertUserInteraction(context.Background(), q, logger.Nop(), row); err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if len(q.writes) != 1 {
			t.Fatalf("%s: want=1 write got=%d", tc.kind, len(q.writes))
		}
		if !strings.Contains(q.writes[0], tc.edge) {
			t.Fatalf("%s: want edge %s in %q", tc.kind, tc.edge, q.writes[0])
		}
		if tc.clearsOld != "" && !strings.Contains(q.writes[0], tc.clearsOld) {
			t.Fatalf("%s: want %s cleared", tc.kind, tc.clearsOld)
		}
		if tc.clearsOld == "" && strings.Contains(q.writes[0], "stale") {
			t.Fatalf("%s: unexpected stale-edge cleanup", tc.kind)
		}
		if got := q.params[0]["score"]; got != int64(tc.kind.DefaultScore()) {
			t.Fatalf("%s: score want=%d got=%v", tc.kind, tc.kind.DefaultScore(), got)
		}
	}
}

func TestUpsertGameCatalog(t *testing.T) {
	if err := UpsertGameCatalog(context.Background(), nil, logger.Nop(), []*types.Game{{ID: 1}}); err != nil {
		t.Fatalf("nil querier: want nil, got %v", err)
	}

	q := &recordingQuerier{}
	ratio := 0.9
	games := []*types.Game{
		{ID: 1, Name: "a", IsActive: true, PositiveRatio: &ratio, Genres: []types.Genre{{ID: 3}}, Developers: []types.Developer{{ID: 4}}},
		{ID: 2, Name: "b", IsActive: true},
		nil,
	}
	if err := UpsertGameCatalog(context.Background(), q, logger.Nop(), games); err != nil {
		t.Fatalf("UpsertGameCatalog: %v", err)
	}
	rows, _ := q.params[0]["rows"].([]map[string]any)
	if len(rows) != 2 {
		t.Fatalf("rows: want=2 got=%d", len(rows))
	}
	if rows[0]["rating"] != 0.9 || rows[1]["rating"] != 0.0 {
		t.Fatalf("ratings: got %v / %v", rows[0]["rating"], rows[1]["rating"])
	}
}

func TestEnsureSchemaContinuesOnFailure(t *testing.T) {
	q := &recordingQuerier{err: errors.New("no permission")}
	EnsureSchema(context.Background(), q, logger.Nop())
	if len(q.writes) != len(schemaStatements) {
		t.Fatalf("EnsureSchema: want=%d attempts got=%d", len(schemaStatements), len(q.writes))
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &recordingQuerier{err: errors.New("connection refused")}
	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	b := NewBreaker(inner, cfg, logger.Nop())

	for i := 0; i < 2; i++ {
		if _, err := b.Read(context.Background(), "RETURN 1", nil); err == nil {
			t.Fatalf("read %d: want error", i)
		}
	}
	_, err := b.Read(context.Background(), "RETURN 1", nil)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("open breaker: want ErrOpenState got %v", err)
	}
	if inner.reads != 2 {
		t.Fatalf("inner reads: want=2 got=%d", inner.reads)
	}
	if b.ReadState() != gobreaker.StateOpen.String() {
		t.Fatalf("state: want=open got=%s", b.ReadState())
	}
}
