package domain

import "time"

// AccessRequestStatus enumerates onboarding request states.
type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "PENDING"
	AccessRequestApproved AccessRequestStatus = "APPROVED"
	AccessRequestRejected AccessRequestStatus = "REJECTED"
)

// AccessRequest represents a prospective user's request for onboarding.
// Once decided it is immutable.
type AccessRequest struct {
	ID        string
	Email     string
	Name      string
	Company   string
	Status    AccessRequestStatus
	CreatedAt time.Time
}
