package domain

import "time"

type BandMember struct {
	BandID   string    `json:"band_id" dynamodbav:"band_id"`
	UserID   string    `json:"user_id" dynamodbav:"user_id"`
	Active   bool      `json:"active" dynamodbav:"active"`
	JoinedAt time.Time `json:"joined" dynamodbav:"joined_at"`
}
