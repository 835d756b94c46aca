package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrSchedulerUnavailable is returned while the breaker is open.
var ErrSchedulerUnavailable = errors.New("notification scheduler unavailable")

// BreakerConfig tunes a BreakerScheduler.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that open the breaker.
	MaxFailures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultBreakerConfig returns 3 failures / 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxFailures: 3, Timeout: 30 * time.Second}
}

// BreakerScheduler fails fast when the wrapped scheduler keeps erroring,
// so adding memories is not slowed down by a broken notification service.
// Permission refusals are successful calls and never trip it.
type BreakerScheduler struct {
	next    Scheduler
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerScheduler wraps next.
func NewBreakerScheduler(next Scheduler, cfg BreakerConfig, logger zerolog.Logger) *BreakerScheduler {
	if cfg.MaxFailures == 0 {
		cfg = DefaultBreakerConfig()
	}
	return &BreakerScheduler{
		next: next,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "notification-scheduler",
			MaxRequests: 1,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.MaxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("scheduler breaker state changed")
			},
		}),
	}
}

// NewDefaultBreakerScheduler wraps next with the default config and global logger.
func NewDefaultBreakerScheduler(next Scheduler) *BreakerScheduler {
	return NewBreakerScheduler(next, DefaultBreakerConfig(), log.Logger)
}

// ScheduleYearly implements Scheduler.
func (b *BreakerScheduler) ScheduleYearly(ctx context.Context, r Reminder) (string, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.ScheduleYearly(ctx, r)
	})
	if err != nil {
		return "", translate(err)
	}
	return v.(string), nil
}

// Cancel implements Scheduler.
func (b *BreakerScheduler) Cancel(ctx context.Context, handle string) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.next.Cancel(ctx, handle)
	})
	return translate(err)
}

// ListScheduled implements Scheduler.
func (b *BreakerScheduler) ListScheduled(ctx context.Context) ([]Scheduled, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.ListScheduled(ctx)
	})
	if err != nil {
		return nil, translate(err)
	}
	return v.([]Scheduled), nil
}

// State reports "closed", "half-open" or "open".
func (b *BreakerScheduler) State() string {
	return b.breaker.State().String()
}

func translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrSchedulerUnavailable
	}
	return err
}
