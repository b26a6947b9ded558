package domain

import "time"

// SimulationStatus enumerates lifecycle states for simulation jobs.
type SimulationStatus string

const (
	SimulationStatusPending   SimulationStatus = "PENDING"
	SimulationStatusRunning   SimulationStatus = "RUNNING"
	SimulationStatusCompleted SimulationStatus = "COMPLETED"
	SimulationStatusFailed    SimulationStatus = "FAILED"
)

// Terminal reports whether no further transitions are allowed.
func (s SimulationStatus) Terminal() bool {
	return s == SimulationStatusCompleted || s == SimulationStatusFailed
}

// Simulation is the aggregate for one submitted simulation job.
type Simulation struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	ToolID      *string
	// Parameter blobs are stored as JSON-encoded strings exactly as submitted.
	SimulationParams string
	PhysicsParams    string
	MaterialParams   string
	CFDParams        string
	Status           SimulationStatus
	Results          *string
	FailureDetail    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
