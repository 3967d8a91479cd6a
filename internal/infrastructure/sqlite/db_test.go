package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
	"github.com/go-band-notify/internal/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "notify.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seed writes rows through the same unit of work producers use.
func seed(t *testing.T, db *sql.DB, ns ...domain.Notification) {
	t.Helper()
	err := NewStore(db).WithinTx(context.Background(), func(ctx context.Context, tx domain.RecordTx) error {
		return tx.InsertNotifications(ctx, ns)
	})
	require.NoError(t, err)
}

func pending(id, recipient string, at time.Time) domain.Notification {
	return domain.Notification{
		NotificationID: id,
		BandID:         "band-1",
		RecipientID:    recipient,
		Type:           domain.EventActivityCreated,
		Title:          "Rehearsal " + id,
		CreatedAt:      at,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(context.Background(), db, logging.Discard()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestCursor_RoundTrip(t *testing.T) {
	c := feedCursor{createdAt: 1700000000123, id: "01HXYZ"}
	got, err := decodeCursor(encodeCursor(c))
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = decodeCursor("!!not-base64")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestStore_RollbackOnError(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx domain.RecordTx) error {
		if err := tx.InsertEvent(ctx, &domain.BandEvent{EventID: "e1", BandID: "band-1", Type: domain.EventRosterChanged, CreatedAt: t0}); err != nil {
			return err
		}
		// Duplicate primary key fails the second insert.
		return tx.InsertNotifications(ctx, []domain.Notification{pending("n1", "u1", t0), pending("n1", "u2", t0)})
	})
	require.Error(t, err)

	var events, rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM band_events`).Scan(&events))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&rows))
	assert.Zero(t, events)
	assert.Zero(t, rows)
}

func TestStore_ActorRecipientCheck(t *testing.T) {
	db := openTestDB(t)
	self := "u1"
	n := pending("n1", "u1", t0)
	n.ActorID = &self

	err := NewStore(db).WithinTx(context.Background(), func(ctx context.Context, tx domain.RecordTx) error {
		return tx.InsertNotifications(ctx, []domain.Notification{n})
	})
	assert.ErrorIs(t, err, domain.ErrQueueIO)
}

func TestMembersAndPreferences(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	members := NewMemberRepo(db)
	require.NoError(t, members.Put(ctx, &domain.BandMember{BandID: "band-1", UserID: "bob", Active: true, JoinedAt: t0}))
	require.NoError(t, members.Put(ctx, &domain.BandMember{BandID: "band-1", UserID: "amy", Active: false, JoinedAt: t0}))
	require.NoError(t, members.Put(ctx, &domain.BandMember{BandID: "band-2", UserID: "zed", Active: true, JoinedAt: t0}))

	got, err := members.ListByBand(ctx, "band-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "amy", got[0].UserID)
	assert.False(t, got[0].Active)

	prefs := NewPreferenceRepo(db)
	_, err = prefs.Get(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p := domain.DefaultPreference("bob")
	p.Roster = false
	p.UpdatedAt = t0
	require.NoError(t, prefs.Put(ctx, &p))
	stored, err := prefs.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, p, *stored)

	many, err := getPreferences(ctx, db, []string{"bob", "amy"})
	require.NoError(t, err)
	assert.Len(t, many, 1)
	assert.False(t, many["bob"].Roster)
}

func newClock() *clock.Fake { return clock.NewFake(t0) }
