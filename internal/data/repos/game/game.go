package game

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/gamerec-backend/internal/data/db"
	types "github.com/yungbote/gamerec-backend/internal/domain"
	"github.com/yungbote/gamerec-backend/internal/platform/dbctx"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// candidatePageSize is the keyset page used to read an unbounded candidate pool.
const candidatePageSize = 500

type GameRepo interface {
	GetByID(dbc dbctx.Context, id int64) (*types.Game, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Game, error)
	FindCandidates(dbc dbctx.Context, c types.CandidateCriteria) ([]*types.Game, error)
	ListActiveAfter(dbc dbctx.Context, afterID int64, limit int) ([]*types.Game, error)
}

type gameRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameRepo(db *gorm.DB, baseLog *logger.Logger) GameRepo {
	return &gameRepo{db: db, log: baseLog.With("repo", "GameRepo")}
}

func withCatalog(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Genres").
		Preload("Categories").
		Preload("Developers").
		Preload("Publishers").
		Preload("ContentDescriptors").
		Preload("Platforms").
		Preload("CommunityRating")
}

func (r *gameRepo) GetByID(dbc dbctx.Context, id int64) (*types.Game, error) {
	if id <= 0 {
		return nil, nil
	}
	var rows []*types.Game
	if err := withCatalog(dbc.DB(r.db)).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, db.Classify("game.get_by_id", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// GetByIDs loads games with their full catalog joins, ordered by id.
func (r *gameRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Game, error) {
	var out []*types.Game
	if len(ids) == 0 {
		return out, nil
	}
	if err := withCatalog(dbc.DB(r.db)).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, db.Classify("game.get_by_ids", err)
	}
	return out, nil
}

// FindCandidates applies the hard filter in SQL. The rules mirror
// CandidateCriteria.Matches.
func (r *gameRepo) FindCandidates(dbc dbctx.Context, c types.CandidateCriteria) ([]*types.Game, error) {
	q := dbc.DB(r.db).Model(&types.Game{}).Where("game.is_active = ?", true)

	if len(c.AnyPlatform) > 0 {
		var conds []string
		var args []any
		for _, pl := range c.AnyPlatform {
			switch pl {
			case types.PlatformWindows:
				conds = append(conds, "gp.windows = ?")
			case types.PlatformMac:
				conds = append(conds, "gp.mac = ?")
			case types.PlatformLinux:
				conds = append(conds, "gp.linux = ?")
			default:
				continue
			}
			args = append(args, true)
		}
		if len(conds) > 0 {
			q = q.Where(
				"EXISTS (SELECT 1 FROM game_platform gp WHERE gp.game_id = game.id AND ("+strings.Join(conds, " OR ")+"))",
				args...,
			)
		}
	}
	if c.FreeOnly {
		q = q.Where("game.is_free = ?", true)
	}
	if c.MaxRequiredAge > 0 {
		q = q.Where("game.required_age <= ?", c.MaxRequiredAge)
	}
	if len(c.ExcludedDescriptorIDs) > 0 {
		q = q.Where(
			"NOT EXISTS (SELECT 1 FROM game_content_descriptor gcd WHERE gcd.game_id = game.id AND gcd.content_descriptor_id IN ?)",
			c.ExcludedDescriptorIDs,
		)
	}
	if len(c.ExcludedGameIDs) > 0 {
		q = q.Where("game.id NOT IN ?", c.ExcludedGameIDs)
	}
	if len(c.GenreIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM game_genre gg WHERE gg.game_id = game.id AND gg.genre_id IN ?)", c.GenreIDs)
	}
	if len(c.CategoryIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM game_category gc WHERE gc.game_id = game.id AND gc.category_id IN ?)", c.CategoryIDs)
	}

	if c.Limit > 0 {
		// A bounded pool keeps the most reviewed, best rated games.
		var out []*types.Game
		err := withCatalog(q).
			Order("game.total_reviews DESC").
			Order("COALESCE(game.positive_ratio, 0) DESC").
			Order("game.id ASC").
			Limit(c.Limit).
			Find(&out).Error
		if err != nil {
			return nil, db.Classify("game.find_candidates", err)
		}
		return out, nil
	}

	base := q.Session(&gorm.Session{})
	var (
		out   []*types.Game
		after int64
	)
	for {
		var page []*types.Game
		err := withCatalog(base.Where("game.id > ?", after)).
			Order("game.id ASC").
			Limit(candidatePageSize).
			Find(&page).Error
		if err != nil {
			return nil, db.Classify("game.find_candidates", err)
		}
		out = append(out, page...)
		if len(page) < candidatePageSize {
			return out, nil
		}
		after = page[len(page)-1].ID
	}
}

// ListActiveAfter pages through the active catalog by id (keyset pagination).
func (r *gameRepo) ListActiveAfter(dbc dbctx.Context, afterID int64, limit int) ([]*types.Game, error) {
	if limit <= 0 {
		limit = 200
	}
	var out []*types.Game
	if err := withCatalog(dbc.DB(r.db)).
		Where("is_active = ? AND id > ?", true, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, db.Classify("game.list_active_after", err)
	}
	return out, nil
}
