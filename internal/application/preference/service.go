package preference

import (
	"context"
	"errors"
	"time"

	"github.com/go-band-notify/internal/domain"
)

type Service interface {
	// GetOrDefault never writes; a missing row reads as all-enabled.
	GetOrDefault(ctx context.Context, userID string) (*domain.NotificationPreference, error)
	Update(ctx context.Context, userID string, req domain.UpdatePreferenceRequest) (*domain.NotificationPreference, error)
}

type preferenceStore interface {
	Get(ctx context.Context, userID string) (*domain.NotificationPreference, error)
	Put(ctx context.Context, p *domain.NotificationPreference) error
}

type service struct {
	repo preferenceStore
	now  func() time.Time
}

func NewService(repo preferenceStore, now func() time.Time) Service {
	return &service{repo: repo, now: now}
}

func (s *service) GetOrDefault(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		d := domain.DefaultPreference(userID)
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdatePreferenceRequest) (*domain.NotificationPreference, error) {
	p, err := s.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.NotificationsEnabled != nil {
		p.NotificationsEnabled = *req.NotificationsEnabled
	}
	if req.Activities != nil {
		p.Activities = *req.Activities
	}
	if req.Availability != nil {
		p.Availability = *req.Availability
	}
	if req.Roster != nil {
		p.Roster = *req.Roster
	}
	if req.Members != nil {
		p.Members = *req.Members
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
