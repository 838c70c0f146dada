package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/gamerec-backend/internal/cache"
	"github.com/yungbote/gamerec-backend/internal/data/graph"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
	"github.com/yungbote/gamerec-backend/internal/platform/neo4jdb"
	"github.com/yungbote/gamerec-backend/internal/platform/redisdb"
)

type Clients struct {
	Redis *goredis.Client
	Neo4j *neo4jdb.Client
	Cache cache.Cache
	// Graph is nil when no graph store is configured.
	Graph graph.Querier
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	rdb, err := redisdb.New(log, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	if rdb != nil {
		out.Redis = rdb
		out.Cache = cache.NewRedisCache(rdb, cfg.CachePrefix, log)
	} else {
		log.Warn("REDIS_ADDR not set; using in-process cache")
		out.Cache = cache.NewMemoryCache()
	}

	nc, err := neo4jdb.Open(log, cfg.Neo4j)
	switch {
	case err != nil:
		log.Warn("neo4j driver init failed; graph recommendations disabled", "error", err)
		metrics.DependencyFailure("graph")
	case nc == nil:
		log.Warn("NEO4J_URI not set; graph recommendations disabled")
	default:
		// An unreachable store stays wired: the breaker fails strategies fast
		// and the driver reconnects once the store is back.
		if err := nc.Verify(context.Background()); err != nil {
			log.Warn("neo4j unreachable at startup; graph strategies will degrade", "error", err)
			metrics.DependencyFailure("graph")
		}
		breaker := graph.NewBreaker(nc, graph.DefaultBreakerConfig(), log)
		metrics.RegisterHealth("graph_read", breaker.ReadState)
		metrics.RegisterHealth("graph_write", breaker.WriteState)
		out.Neo4j = nc
		out.Graph = breaker
	}
	return out, nil
}

func (c *Clients) Close() {
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(context.Background())
		c.Neo4j = nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
		c.Redis = nil
	}
}
