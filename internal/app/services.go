package app

import (
	"github.com/yungbote/gamerec-backend/internal/data/repos"
	"github.com/yungbote/gamerec-backend/internal/jobs/retention"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
	"github.com/yungbote/gamerec-backend/internal/services"
)

type Services struct {
	Analyzer        services.BehaviorAnalyzer
	Filter          services.GameFilter
	Scorer          services.ScoreCalculator
	Orchestrator    services.GraphOrchestrator
	Limiter         services.DailySeenLimiter
	Interactions    services.InteractionService
	Recommendations services.RecommendationService
	Sweeper         *retention.Sweeper
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet repos.Set, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	profileCache := services.NewProfileCache(clients.Cache, cfg.Analysis.CacheTTL, log, metrics)
	analyzer := services.NewBehaviorAnalyzer(
		cfg.Analysis,
		log,
		metrics,
		reposet.Interaction,
		reposet.BehaviorProfile,
		reposet.Game,
		profileCache,
	)
	filter := services.NewGameFilter(log, reposet.Game, reposet.UserPreference, reposet.Interaction)
	scorer := services.NewScoreCalculator(cfg.Scoring)

	var strategies []services.GraphStrategy
	if clients.Graph != nil {
		strategies = services.NewGraphStrategies(clients.Graph, cfg.Graph)
	}
	orchestrator := services.NewGraphOrchestrator(cfg.Graph, log, metrics, strategies, clients.Cache)

	limiter := services.NewDailySeenLimiter(cfg.DailySeen, log, metrics, reposet.DailySeen, clients.Cache)

	interactions := services.NewInteractionService(
		log,
		metrics,
		reposet.User,
		reposet.Game,
		reposet.Interaction,
		analyzer,
		limiter,
		clients.Graph,
	)
	recommendations := services.NewRecommendationService(
		log,
		metrics,
		cfg.Graph,
		reposet,
		analyzer,
		filter,
		scorer,
		orchestrator,
		limiter,
	)

	return Services{
		Analyzer:        analyzer,
		Filter:          filter,
		Scorer:          scorer,
		Orchestrator:    orchestrator,
		Limiter:         limiter,
		Interactions:    interactions,
		Recommendations: recommendations,
		Sweeper:         retention.NewSweeper(log, reposet.DailySeen, cfg.DailySeen, metrics),
	}
}
