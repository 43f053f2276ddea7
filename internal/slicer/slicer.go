// Package slicer implements C3: invoking an external slicer binary with a
// config to turn a design file into a G-code or 3MF artifact. Each variant
// (Prusa, Orca) knows its own CLI argument shape and OS-conditional binary
// path; Noop never shells out at all and is used by the build pipeline's
// own tests.
package slicer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
)

const component = "slicer"

// Slicer turns a design file into a build artifact path on disk. Generate
// does not wrap the result as an artifact.Artifact; the build pipeline
// (C9) does that once it has verified the output exists.
type Slicer interface {
	// Generate runs the slicer against designPath and returns the absolute
	// path to the produced G-code or 3MF file.
	Generate(ctx context.Context, designPath string, hw control.HardwareConfiguration) (string, error)
}

// runResult captures a subprocess outcome for error reporting; stdout and
// stderr are always surfaced on failure, per §4.6.
type runResult struct {
	stdout, stderr []byte
}

func run(ctx context.Context, name string, args []string) (runResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return runResult{}, machineerr.Wrap(machineerr.Subprocess, component, fmt.Errorf(
				"%s exited non-zero: %w\nstdout:\n%s\nstderr:\n%s", name, err, stdout.String(), stderr.String(),
			))
		}
		return runResult{}, machineerr.Wrap(machineerr.Subprocess, component, fmt.Errorf("run %s: %w", name, err))
	}
	return runResult{stdout: stdout.Bytes(), stderr: stderr.Bytes()}, nil
}
