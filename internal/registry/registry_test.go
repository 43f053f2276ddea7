package registry_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/driver/noop"
	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/kittycad/machine-api/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupUnknownDeviceIsNotConfigured(t *testing.T) {
	r := registry.New()
	_, err := r.Lookup("printer-1")
	require.Error(t, err)
	kind, ok := machineerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, machineerr.NotConfigured, kind)
}

func TestInsertThenLookupReturnsSameHandle(t *testing.T) {
	r := registry.New()
	d := noop.New(control.MachineInfo{Type: control.FDM})
	require.NoError(t, r.Insert("printer-1", d))

	first, err := r.Lookup("printer-1")
	require.NoError(t, err)
	second, err := r.Lookup("printer-1")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestInsertTwiceUnderSameIDFails(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert("printer-1", noop.New(control.MachineInfo{})))
	err := r.Insert("printer-1", noop.New(control.MachineInfo{}))
	assert.Error(t, err)
}

func TestRemoveThenLookupFails(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert("printer-1", noop.New(control.MachineInfo{})))
	r.Remove("printer-1")
	_, err := r.Lookup("printer-1")
	assert.Error(t, err)
}

func TestConcurrentLookupsDoNotRace(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert("a", noop.New(control.MachineInfo{})))
	require.NoError(t, r.Insert("b", noop.New(control.MachineInfo{})))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("a")
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("b")
		}()
	}
	wg.Wait()
}

func TestPauseFailsOnNonSuspendableDriver(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Insert("printer-1", noop.New(control.MachineInfo{})))
	h, err := r.Lookup("printer-1")
	require.NoError(t, err)

	type pauser interface{ Pause(context.Context) error }
	p, ok := h.(pauser)
	require.True(t, ok, "registry handle should expose Pause forwarding")
	err = p.Pause(context.Background())
	assert.True(t, errors.Is(err, machineerr.Invariant))
}
