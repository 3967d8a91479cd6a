package domain

import "time"

type EventType string

const (
	EventActivityCreated       EventType = "activity_created"
	EventActivityUpdated       EventType = "activity_updated"
	EventActivityCancelled     EventType = "activity_cancelled"
	EventActivityReminder      EventType = "activity_reminder"
	EventAvailabilityRequested EventType = "availability_requested"
	EventAvailabilityUpdated   EventType = "availability_updated"
	EventRosterPublished       EventType = "roster_published"
	EventRosterChanged         EventType = "roster_changed"
	EventMemberJoined          EventType = "member_joined"
	EventMemberLeft            EventType = "member_left"
)

// Category groups event types under one preference flag.
type Category string

const (
	CategoryActivities   Category = "activities"
	CategoryAvailability Category = "availability"
	CategoryRoster       Category = "roster"
	CategoryMembers      Category = "members"
)

var eventCategories = map[EventType]Category{
	EventActivityCreated:       CategoryActivities,
	EventActivityUpdated:       CategoryActivities,
	EventActivityCancelled:     CategoryActivities,
	EventActivityReminder:      CategoryActivities,
	EventAvailabilityRequested: CategoryAvailability,
	EventAvailabilityUpdated:   CategoryAvailability,
	EventRosterPublished:       CategoryRoster,
	EventRosterChanged:         CategoryRoster,
	EventMemberJoined:          CategoryMembers,
	EventMemberLeft:            CategoryMembers,
}

// Category reports the preference category of t. ok is false for unknown types.
func (t EventType) Category() (Category, bool) {
	c, ok := eventCategories[t]
	return c, ok
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	_, ok := eventCategories[t]
	return ok
}

// BandEvent is the source row a producer writes in the same unit of work as
// the notifications it fans out to.
type BandEvent struct {
	EventID   string            `json:"id" dynamodbav:"event_id"`
	BandID    string            `json:"band_id" dynamodbav:"band_id"`
	ActorID   *string           `json:"actor_id" dynamodbav:"actor_id,omitempty"`
	Type      EventType         `json:"type" dynamodbav:"type"`
	Payload   map[string]string `json:"payload,omitempty" dynamodbav:"payload,omitempty"`
	CreatedAt time.Time         `json:"created" dynamodbav:"created_at"`
}

// EventRequest is what a producer hands to the record writer.
type EventRequest struct {
	BandID   string            `json:"band_id" validate:"required"`
	ActorID  *string           `json:"actor_id"`
	Type     EventType         `json:"type" validate:"required"`
	Title    string            `json:"title" validate:"required,max=200"`
	Body     string            `json:"body" validate:"max=2000"`
	Metadata map[string]string `json:"metadata"`
}
