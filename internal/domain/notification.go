package domain

import "time"

// Notification is one queued message for one recipient. ClaimedAt and SentAt
// are owned by the delivery worker, ReadAt by the feed.
type Notification struct {
	NotificationID string            `json:"id"`
	BandID         string            `json:"band_id"`
	RecipientID    string            `json:"recipient_id"`
	ActorID        *string           `json:"actor_id"`
	Type           EventType         `json:"type"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created"`
	ClaimedAt      *time.Time        `json:"-"`
	SentAt         *time.Time        `json:"sent_at"`
	ReadAt         *time.Time        `json:"read_at"`
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

func (n *Notification) IsSent() bool { return n.SentAt != nil }

// NotificationPage is one page of a recipient's feed, newest first.
type NotificationPage struct {
	Items      []Notification `json:"data"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
