package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/sony/gobreaker"
)

// Breaker stops calling a failing vendor for a while. A call counts as a
// failure when it errors outright or every token comes back transient.
// While the breaker is open every token is reported transient without a
// vendor round trip.
type Breaker struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Gateway, maxFailures int, openTimeout time.Duration, log *slog.Logger) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	log = log.With("component", "push_breaker", "breaker", name)
	return &Breaker{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: openTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(maxFailures)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("push breaker state changed", "from", from.String(), "to", to.String())
			},
		}),
	}
}

var errAllTransient = errors.New("every token failed transiently")

func (b *Breaker) SendMulticast(ctx context.Context, tokens []domain.DeviceToken, msg domain.PushMessage) ([]domain.TokenResult, error) {
	var results []domain.TokenResult
	var callErr error
	_, err := b.cb.Execute(func() (interface{}, error) {
		results, callErr = b.next.SendMulticast(ctx, tokens, msg)
		if callErr != nil {
			return nil, callErr
		}
		if len(results) > 0 && everyTransient(results) {
			return nil, errAllTransient
		}
		return nil, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		err = fmt.Errorf("push vendor circuit open: %w", err)
		return allTransient(tokens, err), err
	case results == nil && callErr != nil:
		return allTransient(tokens, callErr), callErr
	}
	return results, callErr
}

func everyTransient(rs []domain.TokenResult) bool {
	for _, r := range rs {
		if r.Outcome != domain.OutcomeTransientError {
			return false
		}
	}
	return true
}
