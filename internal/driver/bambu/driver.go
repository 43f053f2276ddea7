package bambu

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"

	"github.com/jlaffaye/ftp"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
)

// insecureTLSConfig disables certificate verification for the FTPS upload,
// matching the MQTT session's LAN-trust model (§9): these devices ship
// self-signed certificates unique to each unit.
func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec
}

// gcodeStateMap translates the device's raw gcode_state string into the
// shared MachineState vocabulary. Unknown strings map to Unknown rather
// than erroring: state is observed, not validated.
var gcodeStateMap = map[string]control.State{
	"IDLE":     control.Idle,
	"RUNNING":  control.Running,
	"PAUSE":    control.Paused,
	"FINISH":   control.Complete,
	"FAILED":   control.Failed,
	"PREPARE":  control.Running,
	"SLICING":  control.Running,
}

// Driver adapts a Session to control.Control.
type Driver struct {
	session *Session
	info    control.MachineInfo
	hw      control.HardwareConfiguration
}

// NewDriver wraps session as a control.Control, reporting the given
// identity and hardware configuration (typically seeded from
// internal/variants).
func NewDriver(session *Session, info control.MachineInfo, hw control.HardwareConfiguration) *Driver {
	return &Driver{session: session, info: info, hw: hw}
}

func (d *Driver) MachineInfo(context.Context) (control.MachineInfo, error) {
	return d.info, nil
}

func (d *Driver) State(context.Context) (control.State, error) {
	status, ok := d.session.LastStatus()
	if !ok {
		return control.Unknown, nil
	}
	return stateFromStatus(status), nil
}

func (d *Driver) Progress(context.Context) (float64, bool, error) {
	status, ok := d.session.LastStatus()
	if !ok {
		return 0, false, nil
	}
	value, hasValue := progressFromStatus(status)
	return value, hasValue, nil
}

// stateFromStatus translates a push-status snapshot into the shared
// MachineState vocabulary. Exported logic, kept pure, so it can be tested
// without a live MQTT session.
func stateFromStatus(status PushStatus) control.State {
	if status.GcodeState == nil {
		return control.Unknown
	}
	if s, ok := gcodeStateMap[*status.GcodeState]; ok {
		return s
	}
	return control.Unknown
}

// progressFromStatus converts mc_percent (0-100) to the spec's progress in
// [0,1], only meaningful while the device reports Running.
func progressFromStatus(status PushStatus) (float64, bool) {
	if status.McPercent == nil || stateFromStatus(status) != control.Running {
		return 0, false
	}
	return float64(*status.McPercent) / 100.0, true
}

func (d *Driver) HardwareConfiguration(context.Context) (control.HardwareConfiguration, error) {
	return d.hw, nil
}

func (d *Driver) Stop(context.Context) error {
	_, err := d.session.Publish(PrintStop())
	return err
}

func (d *Driver) EmergencyStop(context.Context) error {
	_, err := d.session.Publish(PrintStop())
	return err
}

func (d *Driver) Pause(context.Context) error {
	_, err := d.session.Publish(PrintPause())
	return err
}

func (d *Driver) Resume(context.Context) error {
	_, err := d.session.Publish(PrintResume())
	return err
}

// Build uploads the 3MF artifact over FTPS, then issues project_file,
// probing the last-known push-status for AMS presence instead of
// hardcoding use_ams=true.
func (d *Driver) Build(ctx context.Context, jobName string, artifact io.Reader) error {
	filename := jobName + ".gcode.3mf"
	if err := d.uploadFTPS(filename, artifact); err != nil {
		return err
	}

	useAMS := false
	if status, ok := d.session.LastStatus(); ok {
		useAMS = status.HasAMS()
	}

	_, err := d.session.Publish(PrintProjectFile(filename, useAMS))
	return err
}

// uploadFTPS pushes artifact to the device's FTPS server using the fixed
// username and the access code as password, passive mode, certificate
// verification disabled -- an in-process client replacing the reference
// implementation's shellout to curl.
func (d *Driver) uploadFTPS(filename string, artifact io.Reader) error {
	addr := fmt.Sprintf("%s:990", d.session.host)
	c, err := ftp.Dial(addr, ftp.DialWithExplicitTLS(insecureTLSConfig()), ftp.DialWithDisabledEPSV(true))
	if err != nil {
		return machineerr.Wrap(machineerr.Io, component, fmt.Errorf("ftps dial %s: %w", addr, err))
	}
	defer c.Quit()

	if err := c.Login(FixedUsername, d.session.accessCode); err != nil {
		return machineerr.Wrap(machineerr.Unauthorized, component, err)
	}
	if err := c.Stor(filename, artifact); err != nil {
		return machineerr.Wrap(machineerr.Io, component, fmt.Errorf("ftps upload %s: %w", filename, err))
	}
	return nil
}

func (d *Driver) Sensors(context.Context) (map[string]control.SensorKind, error) {
	return map[string]control.SensorKind{
		"nozzle":  {HasTarget: true},
		"bed":     {HasTarget: true},
		"chamber": {HasTarget: false},
	}, nil
}

func (d *Driver) PollSensors(context.Context) (map[string]control.SensorReading, error) {
	status, ok := d.session.LastStatus()
	if !ok {
		return nil, machineerr.New(machineerr.Timeout, component, "no push-status observed yet")
	}
	return sensorReadingsFromStatus(status), nil
}

// sensorReadingsFromStatus maps a push-status snapshot to the sensor-id ->
// reading vocabulary. A missing numeric field is omitted entirely rather
// than reported as zero, matching the wire's own optionality.
func sensorReadingsFromStatus(status PushStatus) map[string]control.SensorReading {
	readings := make(map[string]control.SensorReading)
	if status.NozzleTemperC != nil {
		r := control.SensorReading{TemperatureC: *status.NozzleTemperC}
		if status.NozzleTargetTemperC != nil {
			r.TargetC, r.HasTarget = *status.NozzleTargetTemperC, true
		}
		readings["nozzle"] = r
	}
	if status.BedTemperC != nil {
		r := control.SensorReading{TemperatureC: *status.BedTemperC}
		if status.BedTargetTemperC != nil {
			r.TargetC, r.HasTarget = *status.BedTargetTemperC, true
		}
		readings["bed"] = r
	}
	if status.ChamberTemperC != nil {
		// No target field exists on the wire for chamber temperature.
		readings["chamber"] = control.SensorReading{TemperatureC: *status.ChamberTemperC}
	}
	return readings
}

func (d *Driver) Healthy(context.Context) bool {
	_, ok := d.session.LastStatus()
	return ok
}

var (
	_ control.Control     = (*Driver)(nil)
	_ control.Suspendable = (*Driver)(nil)
)
