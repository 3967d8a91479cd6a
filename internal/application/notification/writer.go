package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-band-notify/internal/application/preference"
	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
	"github.com/go-band-notify/internal/pkg/id"
	"github.com/go-band-notify/internal/pkg/validate"
)

// Writer turns a band event into queued notifications inside the producer's
// own unit of work. It never talks to the push gateway.
type Writer struct {
	runner domain.TxRunner
	clock  clock.Clock
	log    *slog.Logger
}

func NewWriter(runner domain.TxRunner, clk clock.Clock, log *slog.Logger) *Writer {
	return &Writer{runner: runner, clock: clk, log: log.With("component", "record_writer")}
}

// CreateNotifications inserts one pending row per eligible recipient through
// tx and returns how many were written. The caller commits.
func (w *Writer) CreateNotifications(ctx context.Context, tx domain.RecordTx, req domain.EventRequest) (int, error) {
	if err := validateEvent(req); err != nil {
		return 0, err
	}
	members, err := tx.ListBandMembers(ctx, req.BandID)
	if err != nil {
		return 0, fmt.Errorf("list band members: %w", err)
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.Active {
			ids = append(ids, m.UserID)
		}
	}
	prefs, err := tx.GetPreferences(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("get preferences: %w", err)
	}
	recipients := preference.EligibleRecipients(members, prefs, req.ActorID, req.Type)
	if len(recipients) == 0 {
		return 0, nil
	}

	now := w.clock.Now()
	rows := make([]domain.Notification, 0, len(recipients))
	for _, r := range recipients {
		if req.ActorID != nil && r == *req.ActorID {
			continue
		}
		rows = append(rows, domain.Notification{
			NotificationID: id.NewAt(now),
			BandID:         req.BandID,
			RecipientID:    r,
			ActorID:        req.ActorID,
			Type:           req.Type,
			Title:          req.Title,
			Body:           req.Body,
			Metadata:       copyMetadata(req.Metadata),
			CreatedAt:      now,
		})
	}
	if err := tx.InsertNotifications(ctx, rows); err != nil {
		return 0, fmt.Errorf("insert notifications: %w", err)
	}
	return len(rows), nil
}

// Publish records the band event and its notifications as one commit.
// The backend may bound the commit: on DynamoDB the event row plus its
// notifications must fit one TransactWriteItems call (100 items), so an
// event with more than 99 eligible recipients fails with ErrBadRequest and
// nothing is written.
func (w *Writer) Publish(ctx context.Context, req domain.EventRequest) (*domain.BandEvent, int, error) {
	if err := validateEvent(req); err != nil {
		return nil, 0, err
	}
	event := &domain.BandEvent{
		EventID:   id.NewAt(w.clock.Now()),
		BandID:    req.BandID,
		ActorID:   req.ActorID,
		Type:      req.Type,
		Payload:   map[string]string{"title": req.Title, "body": req.Body},
		CreatedAt: w.clock.Now(),
	}
	withEvent := req
	withEvent.Metadata = copyMetadata(req.Metadata)
	if withEvent.Metadata == nil {
		withEvent.Metadata = map[string]string{}
	}
	withEvent.Metadata["event_id"] = event.EventID

	var count int
	err := w.runner.WithinTx(ctx, func(ctx context.Context, tx domain.RecordTx) error {
		if err := tx.InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		n, err := w.CreateNotifications(ctx, tx, withEvent)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	w.log.Info("event published", "event_id", event.EventID, "band_id", event.BandID, "type", event.Type, "notifications", count)
	return event, count, nil
}

func validateEvent(req domain.EventRequest) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if !req.Type.Valid() {
		return fmt.Errorf("unknown event type %q: %w", req.Type, domain.ErrBadRequest)
	}
	return nil
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
