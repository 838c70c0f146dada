package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/gamerec-backend/internal/data/db"
	"github.com/yungbote/gamerec-backend/internal/observability"
	"github.com/yungbote/gamerec-backend/internal/platform/envutil"
	"github.com/yungbote/gamerec-backend/internal/platform/logger"
	"github.com/yungbote/gamerec-backend/internal/platform/neo4jdb"
	"github.com/yungbote/gamerec-backend/internal/platform/redisdb"
	"github.com/yungbote/gamerec-backend/internal/services"
)

type Config struct {
	Postgres    db.PostgresConfig
	Redis       redisdb.Config
	Neo4j       neo4jdb.Config
	Analysis    services.AnalysisConfig
	Scoring     services.ScoringConfig
	Graph       services.GraphConfig
	DailySeen   services.DailySeenConfig
	CachePrefix string
	MetricsAddr string
	Otel        observability.OtelConfig
}

// tuningFile is the optional YAML overlay. Unset fields keep their defaults.
type tuningFile struct {
	Profile struct {
		InteractionLimit *int    `yaml:"interaction_limit"`
		MinInteractions  *int    `yaml:"min_interactions"`
		UpdateThreshold  *int    `yaml:"update_threshold"`
		DaysThreshold    *int    `yaml:"days_threshold"`
		CacheEnabled     *bool   `yaml:"cache_enabled"`
		CacheTTL         *string `yaml:"cache_ttl"`
	} `yaml:"profile"`
	Scoring struct {
		DefaultWeights        map[string]float64 `yaml:"default_weights"`
		PopularityReviewScale *float64           `yaml:"popularity_review_scale"`
	} `yaml:"scoring"`
	Graph struct {
		Enabled             *bool    `yaml:"enabled"`
		CacheTTL            *string  `yaml:"cache_ttl"`
		StrategyTimeout     *string  `yaml:"strategy_timeout"`
		BlendWeight         *float64 `yaml:"blend_weight"`
		StrategyLimit       *int     `yaml:"strategy_limit"`
		MinCommonGames      *int     `yaml:"min_common_games"`
		SimilarityThreshold *float64 `yaml:"similarity_threshold"`
		CommunityThreshold  *float64 `yaml:"community_threshold"`
		MultiStrategyBonus  *float64 `yaml:"multi_strategy_bonus"`
	} `yaml:"graph"`
	DailySeen struct {
		Limit         *int    `yaml:"limit"`
		RetentionDays *int    `yaml:"retention_days"`
		Timezone      *string `yaml:"timezone"`
	} `yaml:"daily_seen"`
}

// LoadConfig layers defaults, the optional RECOMMENDER_CONFIG_FILE overlay and
// environment variables, in that order, then validates the result.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Postgres:  db.PostgresConfigFromEnv(),
		Redis:     redisdb.ConfigFromEnv(),
		Neo4j:     neo4jdb.ConfigFromEnv(),
		Analysis:  services.DefaultAnalysisConfig(),
		Scoring:   services.DefaultScoringConfig(),
		Graph:     services.DefaultGraphConfig(),
		DailySeen: services.DefaultDailySeenConfig(),
	}
	timezone := ""

	if path := envutil.String("RECOMMENDER_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		tz, err := applyTuningFile(&cfg, raw)
		if err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		timezone = tz
		log.Info("Loaded recommender config overlay", "path", path)
	}

	a := &cfg.Analysis
	a.InteractionLimit = envutil.Int("PROFILE_INTERACTION_LIMIT", a.InteractionLimit)
	a.MinInteractionsForProfile = envutil.Int("PROFILE_MIN_INTERACTIONS", a.MinInteractionsForProfile)
	a.UpdateThreshold = envutil.Int("PROFILE_UPDATE_THRESHOLD", a.UpdateThreshold)
	a.DaysThreshold = envutil.Int("PROFILE_DAYS_THRESHOLD", a.DaysThreshold)
	a.CacheEnabled = envutil.Bool("PROFILE_CACHE_ENABLED", a.CacheEnabled)
	a.CacheTTL = envutil.Duration("PROFILE_CACHE_TTL", a.CacheTTL)

	g := &cfg.Graph
	g.Enabled = envutil.Bool("GRAPH_RECOMMENDATIONS_ENABLED", g.Enabled)
	g.CacheTTL = envutil.Duration("GRAPH_CACHE_TTL", g.CacheTTL)
	g.StrategyTimeout = envutil.Duration("GRAPH_STRATEGY_TIMEOUT", g.StrategyTimeout)
	g.BlendWeight = envutil.Float("GRAPH_BLEND_WEIGHT", g.BlendWeight)

	d := &cfg.DailySeen
	d.Limit = envutil.Int("DAILY_SEEN_LIMIT", d.Limit)
	d.RetentionDays = envutil.Int("DAILY_SEEN_RETENTION_DAYS", d.RetentionDays)
	timezone = envutil.String("DAILY_SEEN_TIMEZONE", timezone)
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return Config{}, fmt.Errorf("daily seen timezone %q: %w", timezone, err)
		}
		d.Location = loc
	}

	cfg.CachePrefix = envutil.String("CACHE_KEY_PREFIX", "gamerec:")
	cfg.MetricsAddr = envutil.String("METRICS_ADDR", ":9090")
	cfg.Otel = observability.OtelConfigFromEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	return c.DailySeen.Validate()
}

// applyTuningFile overlays YAML values onto cfg and returns the timezone name, if any.
func applyTuningFile(cfg *Config, raw []byte) (string, error) {
	var f tuningFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return "", fmt.Errorf("parse yaml: %w", err)
	}

	p := f.Profile
	setInt(&cfg.Analysis.InteractionLimit, p.InteractionLimit)
	setInt(&cfg.Analysis.MinInteractionsForProfile, p.MinInteractions)
	setInt(&cfg.Analysis.UpdateThreshold, p.UpdateThreshold)
	setInt(&cfg.Analysis.DaysThreshold, p.DaysThreshold)
	if p.CacheEnabled != nil {
		cfg.Analysis.CacheEnabled = *p.CacheEnabled
	}
	if err := setDuration(&cfg.Analysis.CacheTTL, p.CacheTTL, "profile.cache_ttl"); err != nil {
		return "", err
	}

	if len(f.Scoring.DefaultWeights) > 0 {
		cfg.Scoring.DefaultWeights = f.Scoring.DefaultWeights
	}
	setFloat(&cfg.Scoring.PopularityReviewScale, f.Scoring.PopularityReviewScale)

	g := f.Graph
	if g.Enabled != nil {
		cfg.Graph.Enabled = *g.Enabled
	}
	if err := setDuration(&cfg.Graph.CacheTTL, g.CacheTTL, "graph.cache_ttl"); err != nil {
		return "", err
	}
	if err := setDuration(&cfg.Graph.StrategyTimeout, g.StrategyTimeout, "graph.strategy_timeout"); err != nil {
		return "", err
	}
	setFloat(&cfg.Graph.BlendWeight, g.BlendWeight)
	setInt(&cfg.Graph.StrategyLimit, g.StrategyLimit)
	setInt(&cfg.Graph.MinCommonGames, g.MinCommonGames)
	setFloat(&cfg.Graph.SimilarityThreshold, g.SimilarityThreshold)
	setFloat(&cfg.Graph.CommunityThreshold, g.CommunityThreshold)
	setFloat(&cfg.Graph.MultiStrategyBonus, g.MultiStrategyBonus)

	setInt(&cfg.DailySeen.Limit, f.DailySeen.Limit)
	setInt(&cfg.DailySeen.RetentionDays, f.DailySeen.RetentionDays)
	tz := ""
	if f.DailySeen.Timezone != nil {
		tz = strings.TrimSpace(*f.DailySeen.Timezone)
	}
	return tz, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, field string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*v))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
