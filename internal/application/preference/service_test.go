package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPreferenceStore struct{ mock.Mock }

func (m *mockPreferenceStore) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NotificationPreference), args.Error(1)
}

func (m *mockPreferenceStore) Put(ctx context.Context, p *domain.NotificationPreference) error {
	return m.Called(ctx, p).Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newSvc(repo *mockPreferenceStore) Service {
	return NewService(repo, func() time.Time { return fixedNow })
}

func TestGetOrDefault_MissingRowDoesNotWrite(t *testing.T) {
	repo := &mockPreferenceStore{}
	repo.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)

	p, err := newSvc(repo).GetOrDefault(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPreference("u1"), *p)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestGetOrDefault_StoreError(t *testing.T) {
	repo := &mockPreferenceStore{}
	repo.On("Get", mock.Anything, "u1").Return(nil, errors.New("boom"))

	_, err := newSvc(repo).GetOrDefault(context.Background(), "u1")
	assert.Error(t, err)
}

func TestUpdate_MergesOntoDefaults(t *testing.T) {
	repo := &mockPreferenceStore{}
	repo.On("Get", mock.Anything, "u1").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.MatchedBy(func(p *domain.NotificationPreference) bool {
		return !p.Roster && p.Activities && p.NotificationsEnabled && p.UpdatedAt.Equal(fixedNow)
	})).Return(nil)

	off := false
	p, err := newSvc(repo).Update(context.Background(), "u1", domain.UpdatePreferenceRequest{Roster: &off})

	require.NoError(t, err)
	assert.False(t, p.Roster)
	repo.AssertExpectations(t)
}
