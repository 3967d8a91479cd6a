// Package push delivers multicast messages to device tokens through a
// vendor gateway and classifies the per-token response.
package push

import (
	"context"
	"fmt"

	"github.com/go-band-notify/internal/domain"
)

// Gateway sends one message to every token of a recipient. It returns one
// result per token in input order. A non-nil error reports a failure of the
// whole call; the results then mark every token as a transient error.
type Gateway interface {
	SendMulticast(ctx context.Context, tokens []domain.DeviceToken, msg domain.PushMessage) ([]domain.TokenResult, error)
}

func delivered(token string) domain.TokenResult {
	return domain.TokenResult{Token: token, Outcome: domain.OutcomeDelivered}
}

func invalid(token string, err error) domain.TokenResult {
	return domain.TokenResult{
		Token:   token,
		Outcome: domain.OutcomeInvalidToken,
		Err:     fmt.Errorf("%w: %w", domain.ErrPermanentToken, err),
	}
}

func transient(token string, err error) domain.TokenResult {
	return domain.TokenResult{
		Token:   token,
		Outcome: domain.OutcomeTransientError,
		Err:     fmt.Errorf("%w: %w", domain.ErrTransientGateway, err),
	}
}

// allTransient marks every token as a transient failure caused by err.
func allTransient(tokens []domain.DeviceToken, err error) []domain.TokenResult {
	out := make([]domain.TokenResult, len(tokens))
	for i, t := range tokens {
		out[i] = transient(t.Token, err)
	}
	return out
}
