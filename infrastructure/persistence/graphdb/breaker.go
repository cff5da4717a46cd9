package graphdb

import (
	"context"
	"errors"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "github.com/mark-henry/mhnodalnetwork/pkg/errors"
)

// BreakerSettings configures the circuit breaker placed in front of the database.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns the settings used when none are configured.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "neo4j",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerExecutor fails fast with UNAVAILABLE once the database keeps failing.
// Not-found and validation outcomes raised inside a transaction are not failures.
type BreakerExecutor struct {
	inner Executor
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerExecutor(inner Executor, s BreakerSettings, logger *zap.Logger) *BreakerExecutor {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || pkgerrors.IsNotFound(err) || pkgerrors.IsValidation(err)
		},
	})
	return &BreakerExecutor{inner: inner, cb: cb}
}

// State exposes the breaker state for readiness reporting.
func (b *BreakerExecutor) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerExecutor) Run(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	return b.records(func() ([]*neo4j.Record, error) { return b.inner.Run(ctx, query, params) })
}

func (b *BreakerExecutor) Read(ctx context.Context, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	return b.records(func() ([]*neo4j.Record, error) { return b.inner.Read(ctx, query, params) })
}

func (b *BreakerExecutor) ExecuteWrite(ctx context.Context, work func(tx Runner) error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.ExecuteWrite(ctx, work)
	})
	return translateBreakerErr(err)
}

// VerifyConnectivity bypasses the breaker so readiness probes see the real state.
func (b *BreakerExecutor) VerifyConnectivity(ctx context.Context) error {
	return b.inner.VerifyConnectivity(ctx)
}

func (b *BreakerExecutor) Close(ctx context.Context) error {
	return b.inner.Close(ctx)
}

func (b *BreakerExecutor) records(fn func() ([]*neo4j.Record, error)) ([]*neo4j.Record, error) {
	out, err := b.cb.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		return nil, translateBreakerErr(err)
	}
	records, _ := out.([]*neo4j.Record)
	return records, nil
}

func translateBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError("graph database").WithCause(err)
	}
	return err
}
