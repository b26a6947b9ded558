package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edgepredict/simulation-service/internal/config"
)

func newTestManager(t *testing.T, forceCFD bool) *Manager {
	t.Helper()
	return NewManager(config.WorkspaceConfig{
		RunsRoot:       t.TempDir(),
		ForceEnableCFD: forceCFD,
	})
}

func validInput() BuildInput {
	return BuildInput{
		SimulationParams: `{"cutting_speed": 120}`,
		PhysicsParams:    `{"solver": "thermal"}`,
		MaterialParams:   `{"name": "Ti-6Al-4V"}`,
		CFDParams:        `{"enabled": false, "mesh": "coarse"}`,
	}
}

func readDescriptor(t *testing.T, dir string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, InputFileName))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestBuildWritesGeometryAndDescriptor(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, false)
	dir, err := m.Build("job-1", strings.NewReader("solid geometry"), validInput())
	require.NoError(t, err)
	require.Equal(t, m.Path("job-1"), dir)

	geo, err := os.ReadFile(filepath.Join(dir, GeometryFileName))
	require.NoError(t, err)
	require.Equal(t, "solid geometry", string(geo))

	doc := readDescriptor(t, dir)
	require.Contains(t, doc, "simulation_parameters")
	require.Contains(t, doc, "physics_parameters")
	require.Contains(t, doc, "material_properties")
	require.Contains(t, doc, "cfd_parameters")

	var paths map[string]string
	require.NoError(t, json.Unmarshal(doc["file_paths"], &paths))
	require.Equal(t, GeometryFileName, paths["tool_geometry"])
	require.Equal(t, OutputFileName, paths["output_results"])
}

func TestBuildIsIdempotent(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, false)
	dir, err := m.Build("job-1", strings.NewReader("first"), validInput())
	require.NoError(t, err)

	// Leave a stray artifact; the rebuild must start from a clean directory.
	require.NoError(t, os.WriteFile(filepath.Join(dir, OutputFileName), []byte("{}"), 0o644))

	dir2, err := m.Build("job-1", strings.NewReader("second"), validInput())
	require.NoError(t, err)
	require.Equal(t, dir, dir2)

	geo, err := os.ReadFile(filepath.Join(dir2, GeometryFileName))
	require.NoError(t, err)
	require.Equal(t, "second", string(geo))

	_, err = os.Stat(filepath.Join(dir2, OutputFileName))
	require.True(t, os.IsNotExist(err))
}

func TestBuildForcesCFDEnabled(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, true)
	dir, err := m.Build("job-1", strings.NewReader("geo"), validInput())
	require.NoError(t, err)

	doc := readDescriptor(t, dir)
	var cfd map[string]any
	require.NoError(t, json.Unmarshal(doc["cfd_parameters"], &cfd))
	require.Equal(t, true, cfd["enabled"])
	require.Equal(t, "coarse", cfd["mesh"])
}

func TestBuildPreservesCFDWhenNotForced(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, false)
	dir, err := m.Build("job-1", strings.NewReader("geo"), validInput())
	require.NoError(t, err)

	doc := readDescriptor(t, dir)
	var cfd map[string]any
	require.NoError(t, json.Unmarshal(doc["cfd_parameters"], &cfd))
	require.Equal(t, false, cfd["enabled"])
}

func TestBuildToleratesMalformedCFD(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, true)
	in := validInput()
	in.CFDParams = "{not json"

	dir, err := m.Build("job-1", strings.NewReader("geo"), in)
	require.NoError(t, err)

	doc := readDescriptor(t, dir)
	var cfd map[string]any
	require.NoError(t, json.Unmarshal(doc["cfd_parameters"], &cfd))
	require.Equal(t, map[string]any{"enabled": true}, cfd)
}

func TestBuildRollsBackOnGeometryFailure(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, false)
	_, err := m.Build("job-1", failingReader{}, validInput())
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "job-1", buildErr.JobID)

	_, statErr := os.Stat(m.Path("job-1"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRemoveMissingWorkspaceIsNoOp(t *testing.T) {
	t.Parallel()

	m := newTestManager(t, false)
	require.NoError(t, m.Remove("never-built"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, os.ErrClosed
}
