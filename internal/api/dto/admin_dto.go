package dto

import "time"

// UserSummary is the admin-facing account record.
type UserSummary struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	IsAdmin            bool       `json:"is_admin"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// CreateUserRequest payload for admin account provisioning.
type CreateUserRequest struct {
	Email              string     `json:"email"`
	Password           string     `json:"password"`
	IsAdmin            bool       `json:"is_admin"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`
}

// UpdateUserRequest payload for admin account mutation.
type UpdateUserRequest struct {
	IsAdmin            *bool      `json:"is_admin,omitempty"`
	SubscriptionExpiry *time.Time `json:"subscription_expiry,omitempty"`
	ClearExpiry        bool       `json:"clear_expiry,omitempty"`
}

// AccessRequestCreate is the public onboarding payload.
type AccessRequestCreate struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Company string `json:"company"`
}

// AccessRequestSummary is the admin-facing onboarding record.
type AccessRequestSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
