package handler

import (
	"context"
	"net/http"

	"github.com/go-band-notify/internal/application/delivery"
	"github.com/go-band-notify/internal/domain"
	jwtinfra "github.com/go-band-notify/internal/infrastructure/jwt"
	"github.com/go-band-notify/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

type mockDeviceSvc struct{ mock.Mock }

func (m *mockDeviceSvc) Register(ctx context.Context, recipientID string, req domain.RegisterTokenRequest) (*domain.DeviceToken, error) {
	args := m.Called(ctx, recipientID, req)
	t, _ := args.Get(0).(*domain.DeviceToken)
	return t, args.Error(1)
}

func (m *mockDeviceSvc) Unregister(ctx context.Context, recipientID, token string) error {
	return m.Called(ctx, recipientID, token).Error(0)
}

func (m *mockDeviceSvc) List(ctx context.Context, recipientID string) ([]domain.DeviceToken, error) {
	args := m.Called(ctx, recipientID)
	ts, _ := args.Get(0).([]domain.DeviceToken)
	return ts, args.Error(1)
}

type mockNotificationSvc struct{ mock.Mock }

func (m *mockNotificationSvc) List(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error) {
	args := m.Called(ctx, recipientID, cursor, limit)
	p, _ := args.Get(0).(*domain.NotificationPage)
	return p, args.Error(1)
}

func (m *mockNotificationSvc) MarkAsRead(ctx context.Context, notificationID, recipientID string) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID, recipientID)
	n, _ := args.Get(0).(*domain.Notification)
	return n, args.Error(1)
}

type mockPreferenceSvc struct{ mock.Mock }

func (m *mockPreferenceSvc) GetOrDefault(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*domain.NotificationPreference)
	return p, args.Error(1)
}

func (m *mockPreferenceSvc) Update(ctx context.Context, userID string, req domain.UpdatePreferenceRequest) (*domain.NotificationPreference, error) {
	args := m.Called(ctx, userID, req)
	p, _ := args.Get(0).(*domain.NotificationPreference)
	return p, args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, req domain.EventRequest) (*domain.BandEvent, int, error) {
	args := m.Called(ctx, req)
	e, _ := args.Get(0).(*domain.BandEvent)
	return e, args.Int(1), args.Error(2)
}

type stubRunner struct {
	calls  int
	report delivery.Report
}

func (s *stubRunner) RunCycle(context.Context) delivery.Report {
	s.calls++
	return s.report
}

// --- helpers ---

// asUser attaches claims for userID as the Auth middleware would.
func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{UserID: userID}))
}

// withParam injects a chi URL param into the request context.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
