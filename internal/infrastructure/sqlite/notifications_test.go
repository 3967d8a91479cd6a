package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimBatch_OldestFirstUpToLimit(t *testing.T) {
	db := openTestDB(t)
	seed(t, db,
		pending("n3", "u1", t0.Add(3*time.Second)),
		pending("n1", "u1", t0.Add(1*time.Second)),
		pending("n2", "u2", t0.Add(2*time.Second)),
	)
	clk := newClock()
	repo := NewNotificationRepo(db, clk)

	got, err := repo.ClaimBatch(context.Background(), 2, 5*time.Minute)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n1", got[0].NotificationID)
	assert.Equal(t, "n2", got[1].NotificationID)
	require.NotNil(t, got[0].ClaimedAt)
	assert.Equal(t, t0, *got[0].ClaimedAt)
}

func TestClaimBatch_ClaimedRowsSkippedUntilTTL(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, pending("n1", "u1", t0))
	clk := newClock()
	repo := NewNotificationRepo(db, clk)
	ctx := context.Background()

	first, err := repo.ClaimBatch(ctx, 10, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, first, 1)

	clk.Advance(4 * time.Minute)
	again, err := repo.ClaimBatch(ctx, 10, 5*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again)

	clk.Advance(2 * time.Minute)
	reclaimed, err := repo.ClaimBatch(ctx, 10, 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, t0.Add(6*time.Minute), *reclaimed[0].ClaimedAt)
}

func TestMarkSent_SentRowsNeverReclaimed(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, pending("n1", "u1", t0), pending("n2", "u1", t0))
	clk := newClock()
	repo := NewNotificationRepo(db, clk)
	ctx := context.Background()

	_, err := repo.ClaimBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, []string{"n1", "n2"}))

	clk.Advance(time.Hour)
	got, err := repo.ClaimBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, got)

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkSent_SetOnce(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, pending("n1", "u1", t0))
	clk := newClock()
	repo := NewNotificationRepo(db, clk)
	ctx := context.Background()

	require.NoError(t, repo.MarkSent(ctx, []string{"n1"}))
	clk.Advance(time.Minute)
	require.NoError(t, repo.MarkSent(ctx, []string{"n1"}))

	n, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, n.SentAt)
	assert.Equal(t, t0, *n.SentAt)
	assert.NoError(t, repo.MarkSent(ctx, nil))
}

func TestClaimBatch_ConcurrentClaimsDisjoint(t *testing.T) {
	db := openTestDB(t)
	var rows []domain.Notification
	for i := 0; i < 60; i++ {
		rows = append(rows, pending(fmt.Sprintf("n%03d", i), "u1", t0.Add(time.Duration(i)*time.Millisecond)))
	}
	seed(t, db, rows...)
	repo := NewNotificationRepo(db, newClock())

	var (
		mu   sync.Mutex
		seen = map[string]int{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.ClaimBatch(context.Background(), 20, 5*time.Minute)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			for _, n := range got {
				seen[n.NotificationID]++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 60)
	for id, c := range seen {
		assert.Equal(t, 1, c, id)
	}
}

func TestListForRecipient_Pages(t *testing.T) {
	db := openTestDB(t)
	seed(t, db,
		pending("a", "u1", t0.Add(1*time.Second)),
		pending("b", "u1", t0.Add(2*time.Second)),
		pending("c", "u1", t0.Add(3*time.Second)),
		pending("x", "u2", t0.Add(4*time.Second)),
	)
	repo := NewNotificationRepo(db, newClock())
	ctx := context.Background()

	page, err := repo.ListForRecipient(ctx, "u1", "", 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].NotificationID)
	assert.Equal(t, "b", page.Items[1].NotificationID)
	require.NotEmpty(t, page.NextCursor)

	next, err := repo.ListForRecipient(ctx, "u1", page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, "a", next.Items[0].NotificationID)
	assert.Empty(t, next.NextCursor)

	empty, err := repo.ListForRecipient(ctx, "nobody", "", 2)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
}

func TestMarkRead(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, pending("n1", "u1", t0))
	repo := NewNotificationRepo(db, newClock())
	ctx := context.Background()

	n, err := repo.MarkRead(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, n.IsRead())
	assert.Nil(t, n.SentAt)

	_, err = repo.MarkRead(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetadataRoundTrip(t *testing.T) {
	db := openTestDB(t)
	n := pending("n1", "u1", t0)
	n.Metadata = map[string]string{"activity_id": "a7"}
	seed(t, db, n)

	got, err := NewNotificationRepo(db, newClock()).Get(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, n.Metadata, got.Metadata)
	assert.Equal(t, t0, got.CreatedAt)
}
