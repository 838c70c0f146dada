package observability

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// Metrics is the recommender's Prometheus instrumentation. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	recommendationsServed   *prometheus.CounterVec
	recommendationLatency   prometheus.Histogram
	strategyDuration        *prometheus.HistogramVec
	strategyFailures        *prometheus.CounterVec
	strategyCandidates      *prometheus.CounterVec
	profileCacheLookups     *prometheus.CounterVec
	profileBuilds           *prometheus.CounterVec
	dailyLimitRejections    prometheus.Counter
	interactionsRecorded    *prometheus.CounterVec
	retentionDeleted        prometheus.Counter
	graphSyncGames          prometheus.Counter
	externalDependencyFails *prometheus.CounterVec

	healthMu sync.Mutex
	health   map[string]func() string
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		recommendationsServed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Recommendation responses by mode",
		}, []string{"mode"}), // personalized, fallback, limit_reached
		recommendationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		}),
		strategyDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graph_strategy_duration_seconds",
			Help:    "Graph strategy execution time",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"strategy"}),
		strategyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_strategy_failures_total",
			Help: "Graph strategies that degraded to an empty result",
		}, []string{"strategy"}),
		strategyCandidates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_strategy_candidates_total",
			Help: "Candidates proposed per strategy",
		}, []string{"strategy"}),
		profileCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_cache_lookups_total",
			Help: "Behavior profile cache lookups by outcome",
		}, []string{"result"}), // hit, miss, stale, error
		profileBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "profile_builds_total",
			Help: "Behavior profile analysis runs by outcome",
		}, []string{"result"}), // built, insufficient, error
		dailyLimitRejections: f.NewCounter(prometheus.CounterOpts{
			Name: "daily_limit_rejections_total",
			Help: "Recommendation requests refused by the daily exposure cap",
		}),
		interactionsRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Interactions written by type",
		}, []string{"type"}),
		retentionDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "daily_seen_rows_purged_total",
			Help: "Daily-seen rows removed by the retention sweeper",
		}),
		graphSyncGames: f.NewCounter(prometheus.CounterOpts{
			Name: "graph_catalog_games_synced_total",
			Help: "Games pushed to the graph store",
		}),
		externalDependencyFails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "external_dependency_failures_total",
			Help: "Degraded calls to optional dependencies",
		}, []string{"dependency"}), // cache, graph
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) RecommendationServed(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.recommendationsServed.WithLabelValues(mode).Inc()
	m.recommendationLatency.Observe(d.Seconds())
}

func (m *Metrics) StrategyObserved(strategy string, d time.Duration, candidates int, failed bool) {
	if m == nil {
		return
	}
	m.strategyDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if failed {
		m.strategyFailures.WithLabelValues(strategy).Inc()
		return
	}
	m.strategyCandidates.WithLabelValues(strategy).Add(float64(candidates))
}

func (m *Metrics) ProfileCacheLookup(result string) {
	if m == nil {
		return
	}
	m.profileCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ProfileBuild(result string) {
	if m == nil {
		return
	}
	m.profileBuilds.WithLabelValues(result).Inc()
}

func (m *Metrics) DailyLimitRejected() {
	if m == nil {
		return
	}
	m.dailyLimitRejections.Inc()
}

func (m *Metrics) InteractionRecorded(kind string) {
	if m == nil {
		return
	}
	m.interactionsRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) RetentionPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.retentionDeleted.Add(float64(n))
}

func (m *Metrics) GraphGamesSynced(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.graphSyncGames.Add(float64(n))
}

func (m *Metrics) DependencyFailure(dependency string) {
	if m == nil {
		return
	}
	m.externalDependencyFails.WithLabelValues(dependency).Inc()
}

// RegisterHealth adds a named state reported by /healthz. A state of "open"
// marks the process degraded.
func (m *Metrics) RegisterHealth(name string, state func() string) {
	if m == nil || state == nil {
		return
	}
	m.healthMu.Lock()
	defer m.healthMu.Unlock()
	if m.health == nil {
		m.health = map[string]func() string{}
	}
	m.health[name] = state
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (m *Metrics) healthReport() healthReport {
	out := healthReport{Status: "ok"}
	if m == nil {
		return out
	}
	m.healthMu.Lock()
	defer m.healthMu.Unlock()
	for name, state := range m.health {
		if out.Checks == nil {
			out.Checks = make(map[string]string, len(m.health))
		}
		s := state()
		out.Checks[name] = s
		if s == "open" {
			out.Status = "degraded"
		}
	}
	return out
}

// HealthHandler serves the registered states as JSON. It answers 200 while
// degraded since the core keeps serving fallbacks.
func (m *Metrics) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		body, err := json.Marshal(m.healthReport())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})
}

// Serve exposes /metrics and /healthz on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logger.Logger) error {
	if m == nil || addr == "" {
		<-ctx.Done()
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", m.HealthHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if log != nil {
			log.Info("metrics endpoint listening", "addr", addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
