package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edgepredict/simulation-service/internal/workspace"
)

// ErrOutputMissing reports that the engine exited 0 without writing its
// output artifact, an engine contract violation rather than a transient error.
var ErrOutputMissing = fmt.Errorf("engine output artifact missing")

// ReadOutput loads and validates the output artifact from a workspace,
// returning the raw JSON content for storage as the job's result payload.
func ReadOutput(workspacePath string) (string, error) {
	path := filepath.Join(workspacePath, workspace.OutputFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrOutputMissing
		}
		return "", fmt.Errorf("read engine output: %w", err)
	}
	if !json.Valid(data) {
		return "", fmt.Errorf("engine output is not valid JSON")
	}
	return string(data), nil
}
