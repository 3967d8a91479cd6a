package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/validate"
)

type Service interface {
	Register(ctx context.Context, recipientID string, req domain.RegisterTokenRequest) (*domain.DeviceToken, error)
	// Unregister removes a token the caller owns. Unknown tokens are a no-op.
	Unregister(ctx context.Context, recipientID, token string) error
	List(ctx context.Context, recipientID string) ([]domain.DeviceToken, error)
}

type tokenStore interface {
	Register(ctx context.Context, recipientID, token string, platform domain.Platform) (*domain.DeviceToken, error)
	Get(ctx context.Context, token string) (*domain.DeviceToken, error)
	Unregister(ctx context.Context, token string) error
	TokensFor(ctx context.Context, recipientID string) ([]domain.DeviceToken, error)
}

type service struct {
	repo tokenStore
}

func NewService(repo tokenStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, recipientID string, req domain.RegisterTokenRequest) (*domain.DeviceToken, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("recipient required: %w", domain.ErrBadRequest)
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	return s.repo.Register(ctx, recipientID, req.Token, req.Platform)
}

func (s *service) Unregister(ctx context.Context, recipientID, token string) error {
	t, err := s.repo.Get(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if t.RecipientID != recipientID {
		return fmt.Errorf("token belongs to another recipient: %w", domain.ErrForbidden)
	}
	return s.repo.Unregister(ctx, token)
}

func (s *service) List(ctx context.Context, recipientID string) ([]domain.DeviceToken, error) {
	return s.repo.TokensFor(ctx, recipientID)
}
