package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Delivery pipeline failures. None of these ever reach the scheduler; the
// worker absorbs them at the recipient or cycle boundary.
var (
	// ErrTransientGateway is a network or 5xx failure talking to the push vendor.
	ErrTransientGateway = errors.New("transient gateway error")
	// ErrPermanentToken means the vendor reported the token as dead.
	ErrPermanentToken = errors.New("permanent token error")
	// ErrQueueIO is a failure reading or writing the notification queue.
	ErrQueueIO = errors.New("queue io error")
	// ErrConfiguration covers missing credentials and invalid settings.
	ErrConfiguration = errors.New("configuration error")
)
