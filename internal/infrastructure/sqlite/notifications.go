package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
)

const notificationColumns = `id, band_id, recipient_id, actor_id, type, title, body, metadata, created_at, claimed_at, sent_at, read_at`

// The inner SELECT picks the oldest claimable rows and the UPDATE stamps
// exactly those, in one statement under the write lock.
const claimSQL = `
UPDATE notifications SET claimed_at = ?
WHERE id IN (
	SELECT id FROM notifications
	WHERE sent_at IS NULL AND (claimed_at IS NULL OR claimed_at < ?)
	ORDER BY created_at, id
	LIMIT ?
)
RETURNING ` + notificationColumns

type NotificationRepo struct {
	db    *sql.DB
	clock clock.Clock
}

func NewNotificationRepo(db *sql.DB, clk clock.Clock) *NotificationRepo {
	return &NotificationRepo{db: db, clock: clk}
}

// ClaimBatch claims up to limit pending rows whose previous claim, if any,
// is older than claimTTL. Concurrent callers get disjoint sets.
func (r *NotificationRepo) ClaimBatch(ctx context.Context, limit int, claimTTL time.Duration) ([]domain.Notification, error) {
	now := r.clock.Now()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, queueErr("begin claim", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, claimSQL, toMillis(now), toMillis(now.Add(-claimTTL)), limit)
	if err != nil {
		return nil, queueErr("claim batch", err)
	}
	claimed, err := scanNotifications(rows)
	if err != nil {
		return nil, queueErr("scan claimed", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, queueErr("commit claim", err)
	}
	// RETURNING order is unspecified.
	sort.Slice(claimed, func(i, j int) bool {
		a, b := claimed[i], claimed[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.NotificationID < b.NotificationID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return claimed, nil
}

// MarkSent stamps sent_at on every id in one statement. Rows already sent
// keep their original timestamp.
func (r *NotificationRepo) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, toMillis(r.clock.Now()))
	for _, id := range ids {
		args = append(args, id)
	}
	q := `UPDATE notifications SET sent_at = COALESCE(sent_at, ?) WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return queueErr("mark sent", err)
	}
	return nil
}

func (r *NotificationRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE sent_at IS NULL`).Scan(&n); err != nil {
		return 0, queueErr("count pending", err)
	}
	return n, nil
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, notificationID)
	n, err := scanNotification(row)
	if err != nil {
		return nil, notFound(err, "notification")
	}
	return &n, nil
}

// ListForRecipient pages through a recipient's feed, newest first.
func (r *NotificationRepo) ListForRecipient(ctx context.Context, recipientID, cursor string, limit int) (*domain.NotificationPage, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`
	args := []any{recipientID}
	if cursor != "" {
		c, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		q += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, c.createdAt, c.createdAt, c.id)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	items, err := scanNotifications(rows)
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	page := &domain.NotificationPage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextCursor = encodeCursor(feedCursor{createdAt: toMillis(last.CreatedAt), id: last.NotificationID})
	}
	if page.Items == nil {
		page.Items = []domain.Notification{}
	}
	return page, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? RETURNING `+notificationColumns,
		toMillis(r.clock.Now()), notificationID)
	n, err := scanNotification(row)
	if err != nil {
		return nil, notFound(err, "notification")
	}
	return &n, nil
}

func insertNotifications(ctx context.Context, q querier, ns []domain.Notification) error {
	const stmt = `INSERT INTO notifications (id, band_id, recipient_id, actor_id, type, title, body, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, n := range ns {
		meta, err := encodeMap(n.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		if _, err := q.ExecContext(ctx, stmt,
			n.NotificationID, n.BandID, n.RecipientID, nullString(n.ActorID), string(n.Type),
			n.Title, n.Body, meta, toMillis(n.CreatedAt),
		); err != nil {
			return queueErr("insert notification", err)
		}
	}
	return nil
}

func scanNotifications(rows *sql.Rows) ([]domain.Notification, error) {
	defer func() { _ = rows.Close() }()
	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n                     domain.Notification
		actor                 sql.NullString
		typ, meta             string
		created               int64
		claimed, sent, readAt sql.NullInt64
	)
	if err := s.Scan(&n.NotificationID, &n.BandID, &n.RecipientID, &actor, &typ, &n.Title, &n.Body,
		&meta, &created, &claimed, &sent, &readAt); err != nil {
		return n, err
	}
	md, err := decodeMap(meta)
	if err != nil {
		return n, fmt.Errorf("decode metadata: %w", err)
	}
	n.ActorID = stringPtr(actor)
	n.Type = domain.EventType(typ)
	n.Metadata = md
	n.CreatedAt = fromMillis(created)
	n.ClaimedAt = nullTime(claimed)
	n.SentAt = nullTime(sent)
	n.ReadAt = nullTime(readAt)
	return n, nil
}
