package slicer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
)

// Prusa invokes the PrusaSlicer CLI to turn an STL design into G-code
// using a single `.ini` profile.
type Prusa struct {
	// ConfigPath is the `.ini` slicer profile to load.
	ConfigPath string
	// BinaryPath overrides the OS-conditional default lookup; tests set
	// this to a stub executable.
	BinaryPath string
}

func (p Prusa) binary() (string, error) {
	if p.BinaryPath != "" {
		return p.BinaryPath, nil
	}
	path, err := prusaSlicerPath()
	if err != nil {
		return "", machineerr.Wrap(machineerr.Subprocess, component, err)
	}
	return path, nil
}

// Generate implements Slicer. hw is unused for Prusa: the single `.ini`
// profile already bakes in the nozzle/material selection.
func (p Prusa) Generate(ctx context.Context, designPath string, hw control.HardwareConfiguration) (string, error) {
	bin, err := p.binary()
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(os.TempDir(), uuid.NewString()+".gcode")
	args := []string{
		"--load", p.ConfigPath,
		"--support-material",
		"--export-gcode", designPath,
		"--output", outputPath,
	}

	if _, err := run(ctx, bin, args); err != nil {
		return "", err
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", machineerr.Wrap(machineerr.Subprocess, component, fmt.Errorf("prusa-slicer did not produce %s: %w", outputPath, err))
	}
	return outputPath, nil
}

func prusaSlicerPath() (string, error) {
	var candidate string
	switch runtime.GOOS {
	case "darwin":
		candidate = "/Applications/PrusaSlicer.app/Contents/MacOS/PrusaSlicer"
	case "windows":
		candidate = `C:\Program Files\PrusaSlicer\PrusaSlicer.exe`
	default:
		candidate = "/usr/bin/prusa-slicer"
	}
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("prusa-slicer not found at %s: %w", candidate, err)
	}
	return candidate, nil
}

var _ Slicer = Prusa{}
