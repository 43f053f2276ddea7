package moonraker

import (
	"context"
	"io"

	"github.com/kittycad/machine-api/internal/control"
)

// printStateMap translates Klipper's print_stats.state vocabulary into the
// shared MachineState vocabulary.
var printStateMap = map[string]control.State{
	"standby":  control.Idle,
	"printing": control.Running,
	"paused":   control.Paused,
	"complete": control.Complete,
	"error":    control.Failed,
	"cancelled": control.Idle,
}

// Driver adapts a Client to control.Control.
type Driver struct {
	client *Client
	info   control.MachineInfo
	hw     control.HardwareConfiguration
}

// NewDriver wraps client as a control.Control, reporting the given
// identity and hardware configuration (typically seeded from
// internal/variants).
func NewDriver(client *Client, info control.MachineInfo, hw control.HardwareConfiguration) *Driver {
	return &Driver{client: client, info: info, hw: hw}
}

func (d *Driver) MachineInfo(context.Context) (control.MachineInfo, error) {
	return d.info, nil
}

// stateFromStatus maps print_stats.state to the shared vocabulary, kept
// pure so it is testable without a live HTTP server.
func stateFromStatus(status Status) control.State {
	if s, ok := printStateMap[status.PrintStats.State]; ok {
		return s
	}
	return control.Unknown
}

func (d *Driver) State(ctx context.Context) (control.State, error) {
	status, err := d.client.Status(ctx)
	if err != nil {
		return control.Unknown, err
	}
	return stateFromStatus(status), nil
}

// progressFromStatus surfaces virtual_sdcard.progress (0-1 already) only
// while the print is actually running.
func progressFromStatus(status Status) (float64, bool) {
	if stateFromStatus(status) != control.Running {
		return 0, false
	}
	return status.VirtualSDCard.Progress, true
}

func (d *Driver) Progress(ctx context.Context) (float64, bool, error) {
	status, err := d.client.Status(ctx)
	if err != nil {
		return 0, false, err
	}
	value, ok := progressFromStatus(status)
	return value, ok, nil
}

func (d *Driver) HardwareConfiguration(context.Context) (control.HardwareConfiguration, error) {
	return d.hw, nil
}

func (d *Driver) Stop(ctx context.Context) error {
	return d.client.CancelPrint(ctx)
}

func (d *Driver) EmergencyStop(ctx context.Context) error {
	return d.client.EmergencyStop(ctx)
}

func (d *Driver) Pause(ctx context.Context) error {
	return d.client.PausePrint(ctx)
}

func (d *Driver) Resume(ctx context.Context) error {
	return d.client.ResumePrint(ctx)
}

// Build uploads the artifact as a gcode file, then starts the print if the
// upload itself did not already queue or start it.
func (d *Driver) Build(ctx context.Context, jobName string, artifact io.Reader) error {
	filename := jobName + ".gcode"
	uploaded, err := d.client.Upload(ctx, filename, artifact)
	if err != nil {
		return err
	}
	if uploaded.PrintStarted || uploaded.PrintQueued {
		return nil
	}
	return d.client.PrintStart(ctx, filename)
}

// Sensors reports extruder always, and heater_bed only once a reading
// history has actually shown one is present -- Klipper configs without a
// heated bed simply omit the field.
func (d *Driver) Sensors(ctx context.Context) (map[string]control.SensorKind, error) {
	readings, err := d.client.Temperatures(ctx)
	if err != nil {
		return nil, err
	}
	return sensorKindsFromReadings(readings), nil
}

func sensorKindsFromReadings(readings TemperatureReadings) map[string]control.SensorKind {
	kinds := map[string]control.SensorKind{"extruder": {HasTarget: true}}
	if readings.HeaterBed != nil {
		kinds["heater_bed"] = control.SensorKind{HasTarget: true}
	}
	return kinds
}

func (d *Driver) PollSensors(ctx context.Context) (map[string]control.SensorReading, error) {
	readings, err := d.client.Temperatures(ctx)
	if err != nil {
		return nil, err
	}
	return sensorReadingsFromTemperatures(readings), nil
}

// sensorReadingsFromTemperatures takes the latest (last) sample from each
// reading history. Kept pure so it is testable without a live server.
func sensorReadingsFromTemperatures(readings TemperatureReadings) map[string]control.SensorReading {
	out := make(map[string]control.SensorReading)
	if r, ok := latestReading(readings.Extruder); ok {
		out["extruder"] = r
	}
	if readings.HeaterBed != nil {
		if r, ok := latestReading(*readings.HeaterBed); ok {
			out["heater_bed"] = r
		}
	}
	return out
}

func latestReading(history ControlledTemperatureReadings) (control.SensorReading, bool) {
	if len(history.Temperatures) == 0 {
		return control.SensorReading{}, false
	}
	r := control.SensorReading{TemperatureC: history.Temperatures[len(history.Temperatures)-1]}
	if len(history.Targets) > 0 {
		r.TargetC = history.Targets[len(history.Targets)-1]
		r.HasTarget = true
	}
	return r, true
}

// Healthy probes /printer/info; Moonraker's webhooks.state would be a
// richer signal but info is cheaper and sufficient as a liveness check.
func (d *Driver) Healthy(ctx context.Context) bool {
	_, err := d.client.Info(ctx)
	return err == nil
}

var (
	_ control.Control     = (*Driver)(nil)
	_ control.Suspendable = (*Driver)(nil)
)
