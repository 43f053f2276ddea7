package build_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/kittycad/machine-api/internal/build"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/driver/noop"
	"github.com/kittycad/machine-api/internal/slicer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSlicesAndHandsJobToDriver(t *testing.T) {
	pipeline := build.New(slicer.Noop{})
	driver := noop.New(control.MachineInfo{Type: control.FDM})

	err := pipeline.Run(context.Background(), driver, "job-1", "/tmp/design.stl", control.HardwareConfiguration{})
	require.NoError(t, err)
	assert.Equal(t, "job-1", driver.LastJobName())

	state, err := driver.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, control.Running, state)
}

func TestRunCleansUpArtifactEvenWhenDriverBuildFails(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "design-*.gcode")
	require.NoError(t, err)
	outputPath := f.Name()
	require.NoError(t, f.Close())

	pipeline := build.New(&recordingSlicer{outputPath: outputPath})
	driver := noop.New(control.MachineInfo{Type: control.FDM})
	driver.Fail = errors.New("device offline")

	runErr := pipeline.Run(context.Background(), driver, "job-2", "/tmp/design.stl", control.HardwareConfiguration{})
	require.Error(t, runErr)

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}

type recordingSlicer struct {
	outputPath string
}

func (s *recordingSlicer) Generate(context.Context, string, control.HardwareConfiguration) (string, error) {
	return s.outputPath, nil
}

func TestArtifactFileIsUnlinkedAfterRun(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "design-*.gcode")
	require.NoError(t, err)
	outputPath := f.Name()
	require.NoError(t, f.Close())

	pipeline := build.New(&recordingSlicer{outputPath: outputPath})
	driver := noop.New(control.MachineInfo{Type: control.FDM})

	require.NoError(t, pipeline.Run(context.Background(), driver, "job-3", "/tmp/design.stl", control.HardwareConfiguration{}))

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}
