package dto

import "time"

// SimulationSummary is the client-facing job record.
type SimulationSummary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	OwnerID       string    `json:"owner_id"`
	ToolID        *string   `json:"tool_id,omitempty"`
	Status        string    `json:"status"`
	FailureDetail *string   `json:"failure_detail,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SimulationDetail adds the stored result payload.
type SimulationDetail struct {
	SimulationSummary
	Results *string `json:"results,omitempty"`
}

// AnalysisResponse wraps generated analysis text.
type AnalysisResponse struct {
	Analysis string `json:"analysis"`
}

// ToolSummary is the client-facing tool record.
type ToolSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ToolType  string    `json:"tool_type"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MaterialSummary is the client-facing material record.
type MaterialSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Properties string    `json:"properties"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateMaterialRequest payload.
type CreateMaterialRequest struct {
	Name       string `json:"name"`
	Properties string `json:"properties"`
}
