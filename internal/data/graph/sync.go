package graph

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

var schemaStatements = []string{
	`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE CONSTRAINT game_id_unique IF NOT EXISTS FOR (g:Game) REQUIRE g.id IS UNIQUE`,
	`CREATE CONSTRAINT genre_id_unique IF NOT EXISTS FOR (g:Genre) REQUIRE g.id IS UNIQUE`,
	`CREATE CONSTRAINT category_id_unique IF NOT EXISTS FOR (c:Category) REQUIRE c.id IS UNIQUE`,
	`CREATE CONSTRAINT developer_id_unique IF NOT EXISTS FOR (d:Developer) REQUIRE d.id IS UNIQUE`,
}

// EnsureSchema creates uniqueness constraints. Failures are logged and ignored.
func EnsureSchema(ctx context.Context, q Querier, log *logger.Logger) {
	if q == nil {
		return
	}
	for _, stmt := range schemaStatements {
		if err := q.Write(ctx, stmt, nil); err != nil && log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	}
}

// GameRating is the graph-side rating in [0,1]; unrated games sit at 0.
func GameRating(g *types.Game) float64 {
	if g == nil || g.PositiveRatio == nil {
		return 0
	}
	return *g.PositiveRatio
}

// UpsertGameCatalog mirrors games and their genre/category/developer edges.
func UpsertGameCatalog(ctx context.Context, q Querier, log *logger.Logger, games []*types.Game) error {
	if q == nil || len(games) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	rows := make([]map[string]any, 0, len(games))
	for _, g := range games {
		if g == nil || g.ID <= 0 {
			continue
		}
		rows = append(rows, map[string]any{
			"id":            g.ID,
			"name":          g.Name,
			"rating":        GameRating(g),
			"active":        g.IsActive,
			"genre_ids":     g.GenreIDs(),
			"category_ids":  g.CategoryIDs(),
			"developer_ids": g.DeveloperIDs(),
			"synced_at":     now,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	err := q.Write(ctx, `
UNWIND $rows AS r
MERGE (g:Game {id: r.id})
SET g.name = r.name, g.rating = r.rating, g.active = r.active, g.synced_at = r.synced_at
WITH g, r
OPTIONAL MATCH (g)-[old:HAS_GENRE|HAS_CATEGORY|DEVELOPED_BY]->()
DELETE old
WITH DISTINCT g, r
FOREACH (gid IN r.genre_ids |
  MERGE (ge:Genre {id: gid})
  MERGE (g)-[:HAS_GENRE]->(ge))
FOREACH (cid IN r.category_ids |
  MERGE (c:Category {id: cid})
  MERGE (g)-[:HAS_CATEGORY]->(c))
FOREACH (did IN r.developer_ids |
  MERGE (d:Developer {id: did})
  MERGE (g)-[:DEVELOPED_BY]->(d))
`, map[string]any{"rows": rows})
	if err != nil && log != nil {
		log.Warn("graph catalog upsert failed", "games", len(rows), "error", err)
	}
	return err
}

// interactionEdge maps an interaction type onto its relationship type.
// Relationship types cannot be parameters in Cypher, so the statement is
// picked from this fixed set.
func interactionEdge(kind types.InteractionType) string {
	switch kind {
	case types.InteractionLike, types.InteractionFavorite:
		return "LIKED"
	case types.InteractionDislike:
		return "DISLIKED"
	case types.InteractionSkip:
		return "SKIPPED"
	default:
		return "VIEWED"
	}
}

// UpsertUserInteraction mirrors one interaction as a user->game edge. A like
// or favorite clears an earlier dislike on the same game and vice versa.
func UpsertUserInteraction(ctx context.Context, q Querier, log *logger.Logger, row *types.Interaction) error {
	if q == nil || row == nil || row.UserID == uuid.Nil || row.GameID <= 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	edge := interactionEdge(row.Type)
	clear := ""
	switch edge {
	case "LIKED":
		clear = "OPTIONAL MATCH (u)-[stale:DISLIKED]->(g) DELETE stale WITH u, g"
	case "DISLIKED":
		clear = "OPTIONAL MATCH (u)-[stale:LIKED]->(g) DELETE stale WITH u, g"
	}
	cypher := `
MERGE (u:User {id: $user_id})
MERGE (g:Game {id: $game_id})
WITH u, g
` + clear + `
MERGE (u)-[e:` + edge + `]->(g)
SET e.score = $score, e.kind = $kind, e.at = $at
`
	err := q.Write(ctx, cypher, map[string]any{
		"user_id": row.UserID.String(),
		"game_id": row.GameID,
		"score":   int64(row.InteractionScore),
		"kind":    string(row.Type),
		"at":      row.InteractedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil && log != nil {
		log.Warn("graph interaction upsert failed", "user_id", row.UserID.String(), "game_id", row.GameID, "error", err)
	}
	return err
}
