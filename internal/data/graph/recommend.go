package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Interaction edges that take a game out of the candidate pool.
const excludedEdges = "LIKED|DISLIKED|SKIPPED"

type NeighborRow struct {
	UserID      string
	CommonLikes int
	LikedTotal  int
}

type NeighborLikeRow struct {
	NeighborID string
	GameID     int64
	Score      float64
	Rating     float64
}

type PathRow struct {
	GameID       int64
	Connections  int
	LikedScore   float64
	GenreOverlap int
	Rating       float64
}

type DeveloperRow struct {
	GameID      int64
	DeveloperID int64
	LikedCount  int
	Rating      float64
}

type CommunityRow struct {
	GameID           int64
	GenreConnections int
	DevConnections   int
	Rating           float64
}

type DeepWalkRow struct {
	GameID       int64
	PathCount    int
	AvgMidRating float64
	EndRating    float64
}

func LikedGameIDs(ctx context.Context, q Querier, userID uuid.UUID) ([]int64, error) {
	rows, err := q.Read(ctx, `
MATCH (:User {id: $user_id})-[:LIKED]->(g:Game)
RETURN g.id AS game_id
ORDER BY game_id
`, map[string]any{"user_id": userID.String()})
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, asInt64(r["game_id"]))
	}
	return out, nil
}

// Neighbors lists users sharing at least minCommon liked games with userID.
func Neighbors(ctx context.Context, q Querier, userID uuid.UUID, minCommon, limit int) ([]NeighborRow, error) {
	rows, err := q.Read(ctx, `
MATCH (u:User {id: $user_id})-[:LIKED]->(g:Game)<-[:LIKED]-(other:User)
WHERE other <> u
WITH other, count(DISTINCT g) AS common
WHERE common >= $min_common
MATCH (other)-[:LIKED]->(og:Game)
WITH other, common, count(DISTINCT og) AS other_liked
RETURN other.id AS user_id, common, other_liked
ORDER BY common DESC, user_id ASC
LIMIT $limit
`, map[string]any{
		"user_id":    userID.String(),
		"min_common": int64(minCommon),
		"limit":      int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]NeighborRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, NeighborRow{
			UserID:      asString(r["user_id"]),
			CommonLikes: int(asInt64(r["common"])),
			LikedTotal:  int(asInt64(r["other_liked"])),
		})
	}
	return out, nil
}

// NeighborLikes returns games the neighbors liked that userID has not acted on.
func NeighborLikes(ctx context.Context, q Querier, userID uuid.UUID, neighborIDs []string) ([]NeighborLikeRow, error) {
	if len(neighborIDs) == 0 {
		return nil, nil
	}
	rows, err := q.Read(ctx, `
MATCH (u:User {id: $user_id})
MATCH (other:User)-[e:LIKED]->(rec:Game)
WHERE other.id IN $neighbor_ids
  AND coalesce(rec.active, true)
  AND NOT (u)-[:`+excludedEdges+`]->(rec)
RETURN other.id AS user_id, rec.id AS game_id, coalesce(e.score, 1) AS score, coalesce(rec.rating, 0.0) AS rating
ORDER BY game_id, user_id
`, map[string]any{
		"user_id":      userID.String(),
		"neighbor_ids": neighborIDs,
	})
	if err != nil {
		return nil, err
	}
	out := make([]NeighborLikeRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, NeighborLikeRow{
			NeighborID: asString(r["user_id"]),
			GameID:     asInt64(r["game_id"]),
			Score:      asFloat(r["score"]),
			Rating:     asFloat(r["rating"]),
		})
	}
	return out, nil
}

// PathCandidates walks liked game -> shared genre/category/developer -> game.
func PathCandidates(ctx context.Context, q Querier, userID uuid.UUID, limit int) ([]PathRow, error) {
	rows, err := q.Read(ctx, `
MATCH (u:User {id: $user_id})-[l:LIKED]->(liked:Game)-[:HAS_GENRE|HAS_CATEGORY|DEVELOPED_BY]->(hub)<-[:HAS_GENRE|HAS_CATEGORY|DEVELOPED_BY]-(rec:Game)
WHERE rec <> liked
  AND coalesce(rec.active, true)
  AND NOT (u)-[:`+excludedEdges+`]->(rec)
WITH rec,
     count(*) AS connections,
     sum(coalesce(l.score, 1)) AS liked_score,
     count(DISTINCT CASE WHEN hub:Genre THEN hub END) AS genre_overlap
RETURN rec.id AS game_id, connections, liked_score, genre_overlap, coalesce(rec.rating, 0.0) AS rating
ORDER BY connections DESC, game_id ASC
LIMIT $limit
`, map[string]any{"user_id": userID.String(), "limit": int64(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]PathRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, PathRow{
			GameID:       asInt64(r["game_id"]),
			Connections:  int(asInt64(r["connections"])),
			LikedScore:   asFloat(r["liked_score"]),
			GenreOverlap: int(asInt64(r["genre_overlap"])),
			Rating:       asFloat(r["rating"]),
		})
	}
	return out, nil
}

// DeveloperCandidates returns rated games by developers the user liked at
// least minLiked games from.
func DeveloperCandidates(ctx context.Context, q Querier, userID uuid.UUID, minLiked int, minRating float64, limit int) ([]DeveloperRow, error) {
	rows, err := q.Read(ctx, `
MATCH (u:User {id: $user_id})-[:LIKED]->(lg:Game)-[:DEVELOPED_BY]->(d:Developer)
WITH u, d, count(DISTINCT lg) AS liked_count
WHERE liked_count >= $min_liked
MATCH (rec:Game)-[:DEVELOPED_BY]->(d)
WHERE coalesce(rec.rating, 0.0) > $min_rating
  AND coalesce(rec.active, true)
  AND NOT (u)-[:`+excludedEdges+`]->(rec)
RETURN rec.id AS game_id, d.id AS developer_id, liked_count, rec.rating AS rating
ORDER BY liked_count DESC, game_id ASC
LIMIT $limit
`, map[string]any{
		"user_id":    userID.String(),
		"min_liked":  int64(minLiked),
		"min_rating": minRating,
		"limit":      int64(limit),
	})
	if err != nil {
		return nil, err
	}
	out := make([]DeveloperRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DeveloperRow{
			GameID:      asInt64(r["game_id"]),
			DeveloperID: asInt64(r["developer_id"]),
			LikedCount:  int(asInt64(r["liked_count"])),
			Rating:      asFloat(r["rating"]),
		})
	}
	return out, nil
}

// CommunityCandidates counts genre and developer edges shared with the liked set.
func CommunityCandidates(ctx context.Context, q Querier, userID uuid.UUID, limit int) ([]CommunityRow, error) {
	rows, err := q.Read(ctx, `
MATCH (u:User {id: $user_id})-[:LIKED]->(lg:Game)
WITH u, collect(DISTINCT lg) AS liked
UNWIND liked AS lg
MATCH (lg)-[r1:HAS_GENRE|DEVELOPED_BY]->(hub)<-[r2:HAS_GENRE|DEVELOPED_BY]-(rec:Game)
WHERE type(r1) = type(r2)
  AND NOT rec IN liked
  AND coalesce(rec.active, true)
  AND NOT (u)-[:`+excludedEdges+`]->(rec)
WITH rec,
     sum(CASE WHEN hub:Genre THEN 1 ELSE 0 END) AS genre_connections,
     sum(CASE WHEN hub:Developer THEN 1 ELSE 0 END) AS dev_connections
RETURN rec.id AS game_id, genre_connections, dev_connections, coalesce(rec.rating, 0.0) AS rating
ORDER BY genre_connections + dev_connections DESC, game_id ASC
LIMIT $limit
`, map[string]any{"user_id": userID.String(), "limit": int64(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]CommunityRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, CommunityRow{
			GameID:           asInt64(r["game_id"]),
			GenreConnections: int(asInt64(r["genre_connections"])),
			DevConnections:   int(asInt64(r["dev_connections"])),
			Rating:           asFloat(r["rating"]),
		})
	}
	return out, nil
}

// DeepWalkCandidates follows liked game -> genre -> game -> developer -> game.
func DeepWalkCandidates(ctx context.Context, q Querier, userID uuid.UUID, limit int) ([]DeepWalkRow, error) {
	rows, err := q.Read(ctx, `
MATCH (u:User {id: $user_id})-[:LIKED]->(start:Game)-[:HAS_GENRE]->(:Genre)<-[:HAS_GENRE]-(mid:Game)-[:DEVELOPED_BY]->(:Developer)<-[:DEVELOPED_BY]-(rec:Game)
WHERE mid <> start AND rec <> start AND rec <> mid
  AND coalesce(rec.active, true)
  AND NOT (u)-[:`+excludedEdges+`]->(rec)
WITH rec, count(*) AS path_count, avg(coalesce(mid.rating, 0.0)) AS avg_mid_rating
RETURN rec.id AS game_id, path_count, avg_mid_rating, coalesce(rec.rating, 0.0) AS end_rating
ORDER BY path_count DESC, game_id ASC
LIMIT $limit
`, map[string]any{"user_id": userID.String(), "limit": int64(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]DeepWalkRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, DeepWalkRow{
			GameID:       asInt64(r["game_id"]),
			PathCount:    int(asInt64(r["path_count"])),
			AvgMidRating: asFloat(r["avg_mid_rating"]),
			EndRating:    asFloat(r["end_rating"]),
		})
	}
	return out, nil
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	default:
		return 0
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
