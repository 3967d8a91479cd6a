package notification

import (
	"context"
	"fmt"

	"github.com/go-band-notify/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service is the feed read path: a recipient's own notifications.
type Service interface {
	List(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error)
	MarkAsRead(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error)
}

type notificationStore interface {
	ListForRecipient(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error)
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string) (*domain.Notification, error)
}

type service struct {
	repo notificationStore
}

func NewService(repo notificationStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListForRecipient(ctx, recipientID, cursor, limit)
}

func (s *service) MarkAsRead(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.RecipientID != recipientID {
		return nil, fmt.Errorf("forbidden: %w", domain.ErrForbidden)
	}
	if n.IsRead() {
		return n, nil
	}
	return s.repo.MarkRead(ctx, notificationID)
}
