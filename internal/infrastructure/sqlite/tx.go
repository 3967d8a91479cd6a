package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-band-notify/internal/domain"
)

// Store runs producer units of work as SQLite transactions.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.RecordTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(ctx, &recordTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type recordTx struct {
	tx *sql.Tx
}

func (r *recordTx) ListBandMembers(ctx context.Context, bandID string) ([]domain.BandMember, error) {
	return listMembers(ctx, r.tx, bandID)
}

func (r *recordTx) GetPreferences(ctx context.Context, userIDs []string) (map[string]domain.NotificationPreference, error) {
	return getPreferences(ctx, r.tx, userIDs)
}

func (r *recordTx) InsertNotifications(ctx context.Context, ns []domain.Notification) error {
	return insertNotifications(ctx, r.tx, ns)
}

func (r *recordTx) InsertEvent(ctx context.Context, e *domain.BandEvent) error {
	payload, err := encodeMap(e.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = r.tx.ExecContext(ctx,
		`INSERT INTO band_events (id, band_id, actor_id, type, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventID, e.BandID, nullString(e.ActorID), string(e.Type), payload, toMillis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert band event: %w", err)
	}
	return nil
}
