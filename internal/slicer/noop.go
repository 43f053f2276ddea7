package slicer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
)

// Noop never invokes a subprocess; it writes an empty file at a generated
// temp path and returns it, so tests can exercise the build pipeline
// without a real slicer binary installed.
type Noop struct{}

func (Noop) Generate(_ context.Context, _ string, _ control.HardwareConfiguration) (string, error) {
	outputPath := filepath.Join(os.TempDir(), uuid.NewString()+".gcode")
	f, err := os.Create(outputPath)
	if err != nil {
		return "", machineerr.Wrap(machineerr.Io, component, err)
	}
	return outputPath, f.Close()
}

var _ Slicer = Noop{}
