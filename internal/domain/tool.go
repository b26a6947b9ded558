package domain

import "time"

// Tool is a named cutting-tool definition backed by an uploaded geometry file.
type Tool struct {
	ID         string
	Name       string
	ToolType   string
	StorageKey string
	OwnerID    string
	CreatedAt  time.Time
}
