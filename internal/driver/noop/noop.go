// Package noop implements C13: a reference Control implementation used by
// tests and by the build pipeline's own seed tests, which need a driver
// that accepts a build without talking to real hardware.
package noop

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/kittycad/machine-api/internal/control"
)

// Driver is a Control implementation that tracks minimal in-memory state
// and does nothing else. It never fails unless asked to via Fail.
type Driver struct {
	mu    sync.Mutex
	info  control.MachineInfo
	state control.State
	// Fail, when non-nil, is returned by Build instead of accepting the job.
	// Tests set this to exercise the pipeline's failure path.
	Fail error

	lastJobName string
}

// New returns a Driver reporting the given identity, idle at construction.
func New(info control.MachineInfo) *Driver {
	return &Driver{info: info, state: control.Idle}
}

func (d *Driver) MachineInfo(context.Context) (control.MachineInfo, error) {
	return d.info, nil
}

func (d *Driver) State(context.Context) (control.State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, nil
}

func (d *Driver) Progress(context.Context) (float64, bool, error) {
	return 0, false, nil
}

func (d *Driver) HardwareConfiguration(context.Context) (control.HardwareConfiguration, error) {
	return control.HardwareConfiguration{Type: d.info.Type}, nil
}

func (d *Driver) Stop(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = control.Idle
	return nil
}

func (d *Driver) EmergencyStop(context.Context) error {
	return d.Stop(context.Background())
}

// Build reads the artifact to completion (discarding its bytes, as a real
// driver's upload step would) and transitions to Running, unless Fail is
// set.
func (d *Driver) Build(_ context.Context, jobName string, artifact io.Reader) error {
	if d.Fail != nil {
		return d.Fail
	}
	if _, err := io.Copy(io.Discard, artifact); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastJobName = jobName
	d.state = control.Running
	log.Printf("[noop] accepted build %q", jobName)
	return nil
}

func (d *Driver) Sensors(context.Context) (map[string]control.SensorKind, error) {
	return map[string]control.SensorKind{"nozzle": {HasTarget: true}}, nil
}

func (d *Driver) PollSensors(context.Context) (map[string]control.SensorReading, error) {
	return map[string]control.SensorReading{
		"nozzle": {TemperatureC: 20, TargetC: 0, HasTarget: true},
	}, nil
}

func (d *Driver) Healthy(context.Context) bool { return true }

// LastJobName returns the job name of the most recently accepted build, for
// test assertions.
func (d *Driver) LastJobName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastJobName
}

var _ control.Control = (*Driver)(nil)
