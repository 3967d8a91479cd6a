package delivery

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/stretchr/testify/assert"
)

func note(id, band string, at time.Time) domain.Notification {
	return domain.Notification{
		NotificationID: id,
		BandID:         band,
		RecipientID:    "u1",
		Type:           domain.EventActivityCreated,
		Title:          "title " + id,
		Body:           "body " + id,
		CreatedAt:      at,
	}
}

func TestComposeMessage_Single(t *testing.T) {
	n := note("n1", "b1", time.Unix(100, 0))
	n.Metadata = map[string]string{"activity_id": "a9"}

	msg := composeMessage([]domain.Notification{n})

	assert.Equal(t, "title n1", msg.Title)
	assert.Equal(t, "body n1", msg.Body)
	assert.Equal(t, "a9", msg.Data["activity_id"])
	assert.Equal(t, "n1", msg.Data["notification_id"])
	assert.Equal(t, "b1", msg.Data["band_id"])
	assert.Equal(t, "activity_created", msg.Data["type"])
}

func TestComposeMessage_SummaryListsNewestThree(t *testing.T) {
	var ns []domain.Notification
	for i := 1; i <= 5; i++ {
		ns = append(ns, note(fmt.Sprintf("n%d", i), "b1", time.Unix(int64(i), 0)))
	}

	msg := composeMessage(ns)

	assert.Equal(t, "5 new notifications", msg.Title)
	assert.Equal(t, "title n5\ntitle n4\ntitle n3\nand 2 more", msg.Body)
	assert.Equal(t, "n1,n2,n3,n4,n5", msg.Data["notification_ids"])
	assert.Equal(t, "5", msg.Data["count"])
	assert.Equal(t, "b1", msg.Data["band_id"])
}

func TestComposeMessage_SummaryAcrossBands(t *testing.T) {
	msg := composeMessage([]domain.Notification{
		note("n1", "b1", time.Unix(1, 0)),
		note("n2", "b2", time.Unix(2, 0)),
	})

	assert.Equal(t, "2 new notifications", msg.Title)
	assert.Equal(t, "title n2\ntitle n1", msg.Body)
	_, hasBand := msg.Data["band_id"]
	assert.False(t, hasBand)
}
