package domain

import "time"

// User is the domain model for account holders who submit simulations.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	PasswordSalt string
	IsAdmin      bool
	// SubscriptionExpiry of nil means the subscription never expires.
	SubscriptionExpiry *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubscriptionActive reports whether the user may access protected resources.
// Admins bypass the expiry check unconditionally.
func (u *User) SubscriptionActive(now time.Time) bool {
	if u.IsAdmin {
		return true
	}
	if u.SubscriptionExpiry == nil {
		return true
	}
	return now.Before(*u.SubscriptionExpiry)
}
