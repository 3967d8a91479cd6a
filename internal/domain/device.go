package domain

import "time"

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// DeviceToken is a push address. Token is globally unique; the last
// recipient to register it owns it.
type DeviceToken struct {
	Token       string    `json:"token"`
	RecipientID string    `json:"recipient_id"`
	Platform    Platform  `json:"platform"`
	LastSeen    time.Time `json:"last_seen"`
	CreatedAt   time.Time `json:"created"`
}

type RegisterTokenRequest struct {
	Token    string   `json:"token" validate:"required,max=4096"`
	Platform Platform `json:"platform" validate:"required,oneof=ios android web"`
}
