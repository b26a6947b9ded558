package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Progress mirrors the engine's incremental progress.json artifact.
type Progress struct {
	Status             string  `json:"status"`
	ProgressPercentage float64 `json:"progress_percentage"`
	Detail             string  `json:"detail,omitempty"`
}

// ReadProgress attempts to read the progress side-channel from a live
// workspace. It returns (nil, false) when the artifact is absent, which
// includes the workspace vanishing mid-read under a concurrent cleanup, and
// (nil, true) when the artifact exists but cannot be parsed. It never
// surfaces filesystem errors.
func (m *Manager) ReadProgress(jobID string) (*Progress, bool) {
	data, err := os.ReadFile(filepath.Join(m.Path(jobID), ProgressFileName))
	if err != nil {
		return nil, false
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, true
	}
	return &p, true
}
