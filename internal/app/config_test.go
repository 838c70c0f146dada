package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RECOMMENDER_CONFIG_FILE", "")
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Analysis.InteractionLimit != 50 || cfg.Analysis.MinInteractionsForProfile != 3 {
		t.Fatalf("analysis defaults: got=%+v", cfg.Analysis)
	}
	if cfg.DailySeen.Limit != 20 || cfg.DailySeen.RetentionDays != 7 {
		t.Fatalf("daily seen defaults: got=%+v", cfg.DailySeen)
	}
	if cfg.Graph.BlendWeight != 0.3 || cfg.Graph.StrategyTimeout != 3*time.Second {
		t.Fatalf("graph defaults: got=%+v", cfg.Graph)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Fatalf("metrics addr: want=:9090 got=%s", cfg.MetricsAddr)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recommender.yaml")
	body := `
profile:
  min_interactions: 5
  cache_ttl: 2h
graph:
  blend_weight: 0.5
  strategy_timeout: 750ms
daily_seen:
  limit: 10
  timezone: UTC
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RECOMMENDER_CONFIG_FILE", path)
	t.Setenv("DAILY_SEEN_LIMIT", "12")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Analysis.MinInteractionsForProfile != 5 {
		t.Fatalf("min interactions: want=5 got=%d", cfg.Analysis.MinInteractionsForProfile)
	}
	if cfg.Analysis.CacheTTL != 2*time.Hour {
		t.Fatalf("cache ttl: want=2h got=%s", cfg.Analysis.CacheTTL)
	}
	if cfg.Graph.BlendWeight != 0.5 || cfg.Graph.StrategyTimeout != 750*time.Millisecond {
		t.Fatalf("graph overlay: got=%+v", cfg.Graph)
	}
	if cfg.DailySeen.Limit != 12 {
		t.Fatalf("env overrides file: want=12 got=%d", cfg.DailySeen.Limit)
	}
	if cfg.DailySeen.Location == nil || cfg.DailySeen.Location.String() != "UTC" {
		t.Fatalf("timezone: want=UTC got=%v", cfg.DailySeen.Location)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("RECOMMENDER_CONFIG_FILE", "")
	t.Setenv("GRAPH_BLEND_WEIGHT", "1.5")
	if _, err := LoadConfig(logger.Nop()); err == nil {
		t.Fatalf("LoadConfig: want validation error got nil")
	}
}

func TestApplyTuningFileBadDuration(t *testing.T) {
	cfg := Config{}
	if _, err := applyTuningFile(&cfg, []byte("graph:\n  cache_ttl: soon\n")); err == nil {
		t.Fatalf("applyTuningFile: want error got nil")
	}
}
