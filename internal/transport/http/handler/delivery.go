package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-band-notify/internal/application/delivery"
)

// CycleRunner runs one delivery cycle. delivery.Worker satisfies it.
type CycleRunner interface {
	RunCycle(ctx context.Context) delivery.Report
}

const schedulerTokenHeader = "X-Scheduler-Token"

// DeliveryHandler lets an external scheduler trigger a cycle.
type DeliveryHandler struct {
	runner CycleRunner
	token  string
}

// NewDeliveryHandler guards the trigger with token; an empty token leaves
// it open, which is only meant for local development.
func NewDeliveryHandler(runner CycleRunner, token string) *DeliveryHandler {
	return &DeliveryHandler{runner: runner, token: token}
}

// RunCycle always answers 200 with the cycle report once the caller is
// authorised. Failures inside the cycle are visible only in the counts.
func (h *DeliveryHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		got := r.Header.Get(schedulerTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
	}
	writeJSON(w, http.StatusOK, h.runner.RunCycle(r.Context()))
}
