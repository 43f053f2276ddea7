package metrics

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDriver struct {
	kinds    map[string]control.SensorKind
	readings map[string]control.SensorReading
	failPoll error
}

func (f *fakeDriver) MachineInfo(context.Context) (control.MachineInfo, error) {
	return control.MachineInfo{}, nil
}
func (f *fakeDriver) State(context.Context) (control.State, error)    { return control.Idle, nil }
func (f *fakeDriver) Progress(context.Context) (float64, bool, error) { return 0, false, nil }
func (f *fakeDriver) HardwareConfiguration(context.Context) (control.HardwareConfiguration, error) {
	return control.HardwareConfiguration{}, nil
}
func (f *fakeDriver) Stop(context.Context) error                               { return nil }
func (f *fakeDriver) EmergencyStop(context.Context) error                      { return nil }
func (f *fakeDriver) Build(context.Context, string, io.Reader) error           { return nil }
func (f *fakeDriver) Sensors(context.Context) (map[string]control.SensorKind, error) {
	return f.kinds, nil
}
func (f *fakeDriver) PollSensors(context.Context) (map[string]control.SensorReading, error) {
	if f.failPoll != nil {
		return nil, f.failPoll
	}
	return f.readings, nil
}
func (f *fakeDriver) Healthy(context.Context) bool { return true }

var _ control.Control = (*fakeDriver)(nil)

func TestPollOnceWritesReadingsOnSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := New(reg)
	kinds := map[string]control.SensorKind{"nozzle": {HasTarget: true}}
	driver := &fakeDriver{
		kinds:    kinds,
		readings: map[string]control.SensorReading{"nozzle": {TemperatureC: 205, TargetC: 210, HasTarget: true}},
	}

	e.pollOnce(context.Background(), "dev1", driver, kinds)

	assert.Equal(t, float64(205), testutil.ToFloat64(e.value.WithLabelValues("dev1", "nozzle")))
	assert.Equal(t, float64(210), testutil.ToFloat64(e.target.WithLabelValues("dev1", "nozzle")))
}

func TestPollOnceZeroesGaugesOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := New(reg)
	kinds := map[string]control.SensorKind{"nozzle": {HasTarget: true}}
	driver := &fakeDriver{kinds: kinds, failPoll: errors.New("device unreachable")}

	e.value.WithLabelValues("dev1", "nozzle").Set(205)
	e.target.WithLabelValues("dev1", "nozzle").Set(210)

	e.pollOnce(context.Background(), "dev1", driver, kinds)

	assert.Equal(t, float64(0), testutil.ToFloat64(e.value.WithLabelValues("dev1", "nozzle")))
	assert.Equal(t, float64(0), testutil.ToFloat64(e.target.WithLabelValues("dev1", "nozzle")))
}

func TestWatchRegistersSensorCatalogue(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := New(reg)
	kinds := map[string]control.SensorKind{"bed": {HasTarget: true}}
	driver := &fakeDriver{kinds: kinds, readings: map[string]control.SensorReading{}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, e.Watch(ctx, "dev2", driver))

	e.mu.Lock()
	defer e.mu.Unlock()
	assert.Contains(t, e.sensors, "dev2")
}
