package domain

import "time"

// Material is a named material definition with an opaque JSON property bag.
// Materials are immutable once created.
type Material struct {
	ID         string
	Name       string
	Properties string
	OwnerID    string
	CreatedAt  time.Time
}
