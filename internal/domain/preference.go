package domain

import "time"

// NotificationPreference is a user's opt-outs. A user without a stored row
// gets DefaultPreference.
type NotificationPreference struct {
	UserID               string    `json:"user_id" dynamodbav:"user_id"`
	NotificationsEnabled bool      `json:"notifications_enabled" dynamodbav:"notifications_enabled"`
	Activities           bool      `json:"activities" dynamodbav:"activities"`
	Availability         bool      `json:"availability" dynamodbav:"availability"`
	Roster               bool      `json:"roster" dynamodbav:"roster"`
	Members              bool      `json:"members" dynamodbav:"members"`
	UpdatedAt            time.Time `json:"updated" dynamodbav:"updated_at"`
}

func DefaultPreference(userID string) NotificationPreference {
	return NotificationPreference{
		UserID:               userID,
		NotificationsEnabled: true,
		Activities:           true,
		Availability:         true,
		Roster:               true,
		Members:              true,
	}
}

// Allows reports whether events of category c should reach this user.
func (p NotificationPreference) Allows(c Category) bool {
	if !p.NotificationsEnabled {
		return false
	}
	switch c {
	case CategoryActivities:
		return p.Activities
	case CategoryAvailability:
		return p.Availability
	case CategoryRoster:
		return p.Roster
	case CategoryMembers:
		return p.Members
	}
	return false
}

type UpdatePreferenceRequest struct {
	NotificationsEnabled *bool `json:"notifications_enabled"`
	Activities           *bool `json:"activities"`
	Availability         *bool `json:"availability"`
	Roster               *bool `json:"roster"`
	Members              *bool `json:"members"`
}
