package models

import "time"

// Membership discount granted on the first successful login.
const MemberDiscount = 0.1

// User represents a member account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"useremail"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	IsMember     bool      `json:"isMember"`
	Discount     float64   `json:"discount"`
	AccessToken  string    `json:"accessToken"`
	CreatedAt    time.Time `json:"createdAt"`
}
