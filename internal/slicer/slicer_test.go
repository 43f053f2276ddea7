package slicer_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/kittycad/machine-api/internal/slicer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes a tiny shell script standing in for a slicer binary: it
// creates the file named by its last argument (the output path) and exits
// 0, or exits 1 if exitCode is non-zero.
func writeStub(t *testing.T, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub script assumes a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "stub-slicer.sh")
	script := fmt.Sprintf("#!/bin/sh\nfor out; do :; done\ntouch \"$out\"\nexit %d\n", exitCode)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestNoopGenerateWritesEmptyFile(t *testing.T) {
	out, err := slicer.Noop{}.Generate(context.Background(), "design.stl", control.HardwareConfiguration{})
	require.NoError(t, err)
	defer os.Remove(out)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestOrcaRejectsNonDirectoryConfig(t *testing.T) {
	designPath := filepath.Join(t.TempDir(), "design.stl")
	require.NoError(t, os.WriteFile(designPath, []byte("x"), 0o644))

	o := slicer.Orca{ConfigDir: designPath}
	_, err := o.Generate(context.Background(), designPath, control.HardwareConfiguration{FDM: control.FDMConfiguration{NozzleDiameterMM: 0.4}})
	assert.Error(t, err)
}

func TestOrcaRejectsUnsupportedNozzle(t *testing.T) {
	dir := t.TempDir()
	o := slicer.Orca{ConfigDir: dir}
	_, err := o.Generate(context.Background(), "design.stl", control.HardwareConfiguration{FDM: control.FDMConfiguration{NozzleDiameterMM: 0.6}})
	require.Error(t, err)
	kind, ok := machineerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, machineerr.Invariant, kind)
}

func TestPrusaGenerateInvokesBinaryAndVerifiesOutput(t *testing.T) {
	bin := writeStub(t, 0)
	p := slicer.Prusa{ConfigPath: "profile.ini", BinaryPath: bin}

	out, err := p.Generate(context.Background(), "design.stl", control.HardwareConfiguration{})
	require.NoError(t, err)
	defer os.Remove(out)

	_, statErr := os.Stat(out)
	assert.NoError(t, statErr)
}

func TestPrusaGenerateSurfacesSubprocessFailure(t *testing.T) {
	bin := writeStub(t, 1)
	p := slicer.Prusa{ConfigPath: "profile.ini", BinaryPath: bin}

	_, err := p.Generate(context.Background(), "design.stl", control.HardwareConfiguration{})
	require.Error(t, err)
	kind, ok := machineerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, machineerr.Subprocess, kind)
}
