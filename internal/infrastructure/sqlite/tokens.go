package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
)

const tokenColumns = `token, recipient_id, platform, last_seen, created_at`

type TokenRepo struct {
	db    *sql.DB
	clock clock.Clock
}

func NewTokenRepo(db *sql.DB, clk clock.Clock) *TokenRepo {
	return &TokenRepo{db: db, clock: clk}
}

// Register upserts by token: a token seen again moves to the new recipient
// and its last_seen is refreshed.
func (r *TokenRepo) Register(ctx context.Context, recipientID, token string, platform domain.Platform) (*domain.DeviceToken, error) {
	now := toMillis(r.clock.Now())
	row := r.db.QueryRowContext(ctx, `
INSERT INTO device_tokens (token, recipient_id, platform, last_seen, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (token) DO UPDATE SET
	recipient_id = excluded.recipient_id,
	platform     = excluded.platform,
	last_seen    = excluded.last_seen
RETURNING `+tokenColumns, token, recipientID, string(platform), now, now)
	t, err := scanToken(row)
	if err != nil {
		return nil, fmt.Errorf("register token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*domain.DeviceToken, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM device_tokens WHERE token = ?`, token)
	t, err := scanToken(row)
	if err != nil {
		return nil, notFound(err, "device token")
	}
	return &t, nil
}

func (r *TokenRepo) TokensFor(ctx context.Context, recipientID string) ([]domain.DeviceToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tokenColumns+` FROM device_tokens WHERE recipient_id = ? ORDER BY last_seen DESC, token`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("tokens for recipient: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := []domain.DeviceToken{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TokenRepo) Unregister(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("unregister token: %w", err)
	}
	return nil
}

// Prune deletes a token the gateway reported dead. Deleting an absent token
// is not an error.
func (r *TokenRepo) Prune(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("prune token: %w", err)
	}
	return nil
}

func scanToken(s scanner) (domain.DeviceToken, error) {
	var (
		t                 domain.DeviceToken
		platform          string
		lastSeen, created int64
	)
	if err := s.Scan(&t.Token, &t.RecipientID, &platform, &lastSeen, &created); err != nil {
		return t, err
	}
	t.Platform = domain.Platform(platform)
	t.LastSeen = fromMillis(lastSeen)
	t.CreatedAt = fromMillis(created)
	return t, nil
}
