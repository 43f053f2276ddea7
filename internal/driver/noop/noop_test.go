package noop_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/driver/noop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransitionsToRunning(t *testing.T) {
	d := noop.New(control.MachineInfo{Type: control.FDM})
	ctx := context.Background()

	require.NoError(t, d.Build(ctx, "bracket", strings.NewReader("G1 X0\n")))

	state, err := d.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, control.Running, state)
	assert.Equal(t, "bracket", d.LastJobName())
}

func TestBuildFailsWhenConfigured(t *testing.T) {
	d := noop.New(control.MachineInfo{})
	d.Fail = errors.New("device offline")

	err := d.Build(context.Background(), "bracket", strings.NewReader("data"))
	assert.ErrorIs(t, err, d.Fail)
}

func TestStopResetsToIdle(t *testing.T) {
	d := noop.New(control.MachineInfo{})
	ctx := context.Background()
	require.NoError(t, d.Build(ctx, "j", strings.NewReader("x")))
	require.NoError(t, d.Stop(ctx))

	state, err := d.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, control.Idle, state)
}
