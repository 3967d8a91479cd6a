package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-band-notify/internal/application/delivery"
	"github.com/go-band-notify/internal/config"
	"github.com/go-band-notify/internal/domain"
	jwtinfra "github.com/go-band-notify/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPrefs struct{}

func (staticPrefs) GetOrDefault(_ context.Context, userID string) (*domain.NotificationPreference, error) {
	p := domain.DefaultPreference(userID)
	return &p, nil
}

func (staticPrefs) Update(context.Context, string, domain.UpdatePreferenceRequest) (*domain.NotificationPreference, error) {
	return nil, domain.ErrBadRequest
}

type okRunner struct{}

func (okRunner) RunCycle(context.Context) delivery.Report {
	return delivery.Report{Status: delivery.StatusOK}
}

func newTestRouter(t *testing.T, verifier *jwtinfra.Verifier) *Router {
	t.Helper()
	cfg := &config.Config{AllowedOrigins: []string{"*"}, SchedulerToken: "tick"}
	r := NewRouter(cfg, &Deps{
		Preferences: staticPrefs{},
		Cycles:      okRunner{},
		Verifier:    verifier,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("notify_cycles_total 0\n"))
		}),
	})
	t.Cleanup(r.Close)
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)

	cycle := httptest.NewRequest(http.MethodPost, "/v1/delivery/cycles", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, cycle).Code)
	cycle = httptest.NewRequest(http.MethodPost, "/v1/delivery/cycles", nil)
	cycle.Header.Set("X-Scheduler-Token", "tick")
	assert.Equal(t, http.StatusOK, serve(r, cycle).Code)
}

func TestRouter_NoVerifierRejectsAuthenticatedRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/v1/preferences", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_BearerReachesHandler(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	r := newTestRouter(t, jwtinfra.NewVerifierFromKey(&key.PublicKey))

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, &jwtinfra.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(key)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := serve(r, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"user_id":"u1"`)

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/v1/preferences", nil)).Code)
}
