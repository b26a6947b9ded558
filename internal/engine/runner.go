package engine

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/edgepredict/simulation-service/internal/config"
)

// Result captures one engine invocation's observable outcome.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner invokes the external simulation engine against a prepared workspace.
type Runner interface {
	Run(ctx context.Context, workspacePath string) (*Result, error)
}

// DockerRunner runs the engine container with the workspace bind-mounted at
// /data, matching the engine contract.
type DockerRunner struct {
	image   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewDockerRunner builds a runner from engine configuration.
func NewDockerRunner(cfg config.EngineConfig, logger *zap.Logger) *DockerRunner {
	return &DockerRunner{
		image:   cfg.Image,
		timeout: cfg.EngineTimeout(),
		logger:  logger,
	}
}

// Run executes the engine under a hard wall-clock timeout. On timeout the
// subprocess is killed and the result reports TimedOut.
func (r *DockerRunner) Run(ctx context.Context, workspacePath string) (*Result, error) {
	absPath, err := filepath.Abs(workspacePath)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "docker", "run", "--rm",
		"-v", absPath+":/data", r.image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("invoking engine",
		zap.String("image", r.image),
		zap.String("workspace", absPath))

	runErr := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// The process never started (docker missing, permission denied).
		return nil, runErr
	}

	result.ExitCode = 0
	return result, nil
}
