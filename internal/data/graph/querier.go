package graph

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/yungbote/gamerec-backend/internal/platform/logger"
)

// Querier runs parameterized Cypher. *neo4jdb.Client implements it.
type Querier interface {
	Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
	Write(ctx context.Context, cypher string, params map[string]any) error
}

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "graph",
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker guards a Querier with separate read and write circuit breakers.
type Breaker struct {
	inner Querier
	read  *gobreaker.CircuitBreaker[[]map[string]any]
	write *gobreaker.CircuitBreaker[struct{}]
}

func NewBreaker(inner Querier, cfg BreakerConfig, baseLog *logger.Logger) *Breaker {
	log := baseLog.With("component", "GraphBreaker")
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			},
			// Cancelled requests say nothing about the store's health.
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("graph circuit state change", "breaker", name, "from", from.String(), "to", to.String())
			},
		}
	}
	return &Breaker{
		inner: inner,
		read:  gobreaker.NewCircuitBreaker[[]map[string]any](settings(cfg.Name + "-read")),
		write: gobreaker.NewCircuitBreaker[struct{}](settings(cfg.Name + "-write")),
	}
}

func (b *Breaker) Read(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	return b.read.Execute(func() ([]map[string]any, error) {
		return b.inner.Read(ctx, cypher, params)
	})
}

func (b *Breaker) Write(ctx context.Context, cypher string, params map[string]any) error {
	_, err := b.write.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.Write(ctx, cypher, params)
	})
	return err
}

// ReadState reports the read breaker state for health output.
func (b *Breaker) ReadState() string { return b.read.State().String() }

func (b *Breaker) WriteState() string { return b.write.State().String() }
