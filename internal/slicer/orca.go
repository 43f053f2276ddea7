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

// Orca invokes the OrcaSlicer CLI, selecting process/machine/filament
// profile files out of ConfigDir based on the device's nozzle diameter.
//
// Only 0.2mm and 0.4mm nozzles have profiles wired up below, matching what
// ships upstream; 0.6mm and 0.8mm are explicit failures rather than a
// silent best-guess (OPEN QUESTION: whether those profiles exist upstream
// at all).
type Orca struct {
	// ConfigDir holds the named profile JSON files below.
	ConfigDir string
	// BinaryPath overrides the OS-conditional default lookup; tests set
	// this to a stub executable.
	BinaryPath string
}

type orcaProfile struct {
	process, machine, filament string
}

func orcaProfileFor(nozzleMM float64) (orcaProfile, error) {
	switch nozzleMM {
	case 0.2:
		return orcaProfile{"process-0.10mm.json", "machine-0.2-nozzle.json", "filament-0.2-nozzle.json"}, nil
	case 0.4:
		return orcaProfile{"process-0.20mm.json", "machine-0.4-nozzle.json", "filament.json"}, nil
	case 0.6:
		return orcaProfile{}, machineerr.New(machineerr.Invariant, component, "no configuration for 0.6mm nozzle")
	case 0.8:
		return orcaProfile{}, machineerr.New(machineerr.Invariant, component, "no configuration for 0.8mm nozzle")
	default:
		return orcaProfile{}, machineerr.New(machineerr.Invariant, component, fmt.Sprintf("no configuration for %.2fmm nozzle", nozzleMM))
	}
}

func (o Orca) binary() (string, error) {
	if o.BinaryPath != "" {
		return o.BinaryPath, nil
	}
	path, err := orcaSlicerPath()
	if err != nil {
		return "", machineerr.Wrap(machineerr.Subprocess, component, err)
	}
	return path, nil
}

// Generate implements Slicer, producing a 3MF artifact.
func (o Orca) Generate(ctx context.Context, designPath string, hw control.HardwareConfiguration) (string, error) {
	info, err := os.Stat(o.ConfigDir)
	if err != nil || !info.IsDir() {
		return "", machineerr.New(machineerr.Invariant, component, fmt.Sprintf("slicer config path %s must be a directory", o.ConfigDir))
	}

	profile, err := orcaProfileFor(hw.FDM.NozzleDiameterMM)
	if err != nil {
		return "", err
	}

	bin, err := o.binary()
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(os.TempDir(), uuid.NewString()+".3mf")
	settings := filepath.Join(o.ConfigDir, profile.process) + ";" + filepath.Join(o.ConfigDir, profile.machine)
	args := []string{
		"--load-settings", settings,
		"--load-filaments", filepath.Join(o.ConfigDir, profile.filament),
		"--slice", "0",
		"--orient", "1",
		"--export-3mf", outputPath,
		designPath,
	}

	if _, err := run(ctx, bin, args); err != nil {
		return "", err
	}
	if _, err := os.Stat(outputPath); err != nil {
		return "", machineerr.Wrap(machineerr.Subprocess, component, fmt.Errorf("orca-slicer did not produce %s: %w", outputPath, err))
	}
	return outputPath, nil
}

func orcaSlicerPath() (string, error) {
	var candidate string
	switch runtime.GOOS {
	case "darwin":
		candidate = "/Applications/OrcaSlicer.app/Contents/MacOS/OrcaSlicer"
	case "windows":
		candidate = `C:\Program Files\OrcaSlicer\orca-slicer.exe`
	default:
		candidate = "/usr/bin/orca-slicer"
	}
	if _, err := os.Stat(candidate); err != nil {
		return "", fmt.Errorf("orca-slicer not found at %s: %w", candidate, err)
	}
	return candidate, nil
}

var _ Slicer = Orca{}
