package push

import (
	"context"
	"fmt"

	"github.com/go-band-notify/internal/domain"
)

// Unconfigured stands in for a provider whose credentials are missing.
// Every token fails transiently, so tokens survive and the queue keeps
// moving while the pending gauge makes the problem visible.
type Unconfigured struct {
	reason string
}

func NewUnconfigured(reason string) *Unconfigured {
	return &Unconfigured{reason: reason}
}

func (u *Unconfigured) SendMulticast(_ context.Context, tokens []domain.DeviceToken, _ domain.PushMessage) ([]domain.TokenResult, error) {
	err := fmt.Errorf("push provider unconfigured (%s): %w", u.reason, domain.ErrConfiguration)
	return allTransient(tokens, err), err
}
