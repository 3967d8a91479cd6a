package handler

import (
	"context"
	"net/http"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// EventPublisher records a band event together with its notifications.
// notification.Writer satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, req domain.EventRequest) (*domain.BandEvent, int, error)
}

// EventHandler is the producer hook: band features post their events here.
// A 400 is returned when the event is invalid or, on the DynamoDB backend,
// when it would fan out to more than 99 recipients in one commit.
type EventHandler struct {
	publisher EventPublisher
}

func NewEventHandler(p EventPublisher) *EventHandler { return &EventHandler{publisher: p} }

type publishEventBody struct {
	Type     domain.EventType  `json:"type"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata"`
}

func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body publishEventBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actor := claims.UserID
	event, n, err := h.publisher.Publish(r.Context(), domain.EventRequest{
		BandID:   chi.URLParam(r, "bandID"),
		ActorID:  &actor,
		Type:     body.Type,
		Title:    body.Title,
		Body:     body.Body,
		Metadata: body.Metadata,
	})
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, EventEnvelope{Event: event, Notifications: n})
}
