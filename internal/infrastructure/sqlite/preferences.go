package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-band-notify/internal/domain"
)

const preferenceColumns = `user_id, notifications_enabled, activities, availability, roster, members, updated_at`

type PreferenceRepo struct {
	db *sql.DB
}

func NewPreferenceRepo(db *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

func (r *PreferenceRepo) Get(ctx context.Context, userID string) (*domain.NotificationPreference, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id = ?`, userID)
	p, err := scanPreference(row)
	if err != nil {
		return nil, notFound(err, "preferences")
	}
	return &p, nil
}

func (r *PreferenceRepo) Put(ctx context.Context, p *domain.NotificationPreference) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO notification_preferences (`+preferenceColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
	notifications_enabled = excluded.notifications_enabled,
	activities            = excluded.activities,
	availability          = excluded.availability,
	roster                = excluded.roster,
	members               = excluded.members,
	updated_at            = excluded.updated_at`,
		p.UserID, p.NotificationsEnabled, p.Activities, p.Availability, p.Roster, p.Members, toMillis(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}
	return nil
}

// getPreferences returns the stored rows among userIDs; users without a row
// are absent from the map.
func getPreferences(ctx context.Context, q querier, userIDs []string) (map[string]domain.NotificationPreference, error) {
	out := make(map[string]domain.NotificationPreference, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		`SELECT `+preferenceColumns+` FROM notification_preferences WHERE user_id IN (`+placeholders(len(userIDs))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		p, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}

func scanPreference(s scanner) (domain.NotificationPreference, error) {
	var (
		p       domain.NotificationPreference
		updated int64
	)
	if err := s.Scan(&p.UserID, &p.NotificationsEnabled, &p.Activities, &p.Availability, &p.Roster, &p.Members, &updated); err != nil {
		return p, err
	}
	p.UpdatedAt = fromMillis(updated)
	return p, nil
}
