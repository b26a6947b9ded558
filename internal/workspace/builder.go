package workspace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edgepredict/simulation-service/internal/config"
)

const (
	// GeometryFileName is the deterministic relative name of the tool geometry
	// inside a workspace. The engine reads it via the input descriptor.
	GeometryFileName = "tool.stl"
	// InputFileName is the structured descriptor consumed by the engine.
	InputFileName = "input.json"
	// OutputFileName is the artifact the engine must write before exiting 0.
	OutputFileName = "output.json"
	// ProgressFileName is the optional side-channel progress artifact.
	ProgressFileName = "progress.json"
)

// BuildInput carries the JSON-encoded parameter blobs for one job.
type BuildInput struct {
	SimulationParams string
	PhysicsParams    string
	MaterialParams   string
	CFDParams        string
}

// BuildError marks a filesystem failure during workspace preparation. The
// partial directory has already been rolled back when it is returned.
type BuildError struct {
	JobID string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build workspace for job %s: %v", e.JobID, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Manager materializes and reclaims isolated per-job run directories, keyed
// 1:1 by job id under a configured runs root.
type Manager struct {
	root           string
	forceEnableCFD bool
}

// NewManager builds a manager from configuration.
func NewManager(cfg config.WorkspaceConfig) *Manager {
	root := cfg.RunsRoot
	if root == "" {
		root = "runs"
	}
	return &Manager{root: root, forceEnableCFD: cfg.ForceEnableCFD}
}

// Path returns the deterministic workspace directory for a job id.
func (m *Manager) Path(jobID string) string {
	return filepath.Join(m.root, "sim_"+jobID)
}

// Build creates the workspace: the geometry copy under its deterministic name
// and the input descriptor. Any prior workspace for the same id is removed
// first, so rebuilds are idempotent. On failure the partial directory is
// rolled back and a *BuildError is returned.
func (m *Manager) Build(jobID string, geometry io.Reader, in BuildInput) (string, error) {
	dir := m.Path(jobID)
	if err := os.RemoveAll(dir); err != nil {
		return "", &BuildError{JobID: jobID, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &BuildError{JobID: jobID, Err: err}
	}

	if err := m.populate(dir, geometry, in); err != nil {
		_ = os.RemoveAll(dir)
		return "", &BuildError{JobID: jobID, Err: err}
	}
	return dir, nil
}

func (m *Manager) populate(dir string, geometry io.Reader, in BuildInput) error {
	dst, err := os.Create(filepath.Join(dir, GeometryFileName))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, geometry); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	descriptor, err := m.descriptor(in)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, InputFileName), descriptor, 0o644)
}

func (m *Manager) descriptor(in BuildInput) ([]byte, error) {
	doc := map[string]any{
		"simulation_parameters": rawOrEmpty(in.SimulationParams),
		"physics_parameters":    rawOrEmpty(in.PhysicsParams),
		"material_properties":   rawOrEmpty(in.MaterialParams),
		"cfd_parameters":        m.cfdParams(in.CFDParams),
		"file_paths": map[string]string{
			"tool_geometry":  GeometryFileName,
			"output_results": OutputFileName,
		},
	}
	return json.MarshalIndent(doc, "", "    ")
}

// cfdParams tolerates a malformed CFD blob by treating it as empty. The
// enabled flag is overridden when the force toggle is on.
func (m *Manager) cfdParams(blob string) map[string]any {
	params := map[string]any{}
	if blob != "" {
		if err := json.Unmarshal([]byte(blob), &params); err != nil {
			params = map[string]any{}
		}
	}
	if m.forceEnableCFD {
		params["enabled"] = true
	}
	return params
}

func rawOrEmpty(blob string) json.RawMessage {
	if blob == "" || !json.Valid([]byte(blob)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(blob)
}

// Remove reclaims a workspace. Removing an absent workspace is a no-op.
func (m *Manager) Remove(jobID string) error {
	return os.RemoveAll(m.Path(jobID))
}
