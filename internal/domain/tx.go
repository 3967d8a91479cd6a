package domain

import "context"

// RecordTx is the write side of a producer's unit of work. Everything done
// through it commits or rolls back together.
type RecordTx interface {
	ListBandMembers(ctx context.Context, bandID string) ([]BandMember, error)
	GetPreferences(ctx context.Context, userIDs []string) (map[string]NotificationPreference, error)
	InsertEvent(ctx context.Context, e *BandEvent) error
	InsertNotifications(ctx context.Context, ns []Notification) error
}

// TxRunner opens a unit of work, runs fn in it and commits when fn returns nil.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx RecordTx) error) error
}
