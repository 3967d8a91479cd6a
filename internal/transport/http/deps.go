package http

import (
	"net/http"

	"github.com/go-band-notify/internal/application/device"
	"github.com/go-band-notify/internal/application/notification"
	"github.com/go-band-notify/internal/application/preference"
	jwtinfra "github.com/go-band-notify/internal/infrastructure/jwt"
	"github.com/go-band-notify/internal/transport/http/handler"
)

// Deps holds the application services the router exposes. The command
// layer builds them for whichever store backend is configured.
type Deps struct {
	Devices       device.Service
	Notifications notification.Service
	Preferences   preference.Service
	Publisher     handler.EventPublisher
	Cycles        handler.CycleRunner
	// Verifier may be nil in development; authenticated routes then reject
	// every request.
	Verifier *jwtinfra.Verifier
	Metrics  http.Handler
}
