// Package gcode implements C4: a line-oriented G-code transport over a
// duplex byte stream (a serial port in production, any io.ReadWriter in
// tests), with the preamble/send/ack handshake a Marlin-class firmware
// expects.
package gcode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
)

const component = "gcode"

// Control opcodes. G01 is a linear-move command in standard G-code, not a
// stop; the documented firmware this was modeled on nonetheless expects
// these literal byte sequences (no CRLF) for Stop/EmergencyStop. They are
// kept behind this Opcodes struct, overridable per device, rather than
// hard-coded, since the defaults are suspect on firmwares that follow the
// G-code standard (M112 is the conventional emergency stop).
type Opcodes struct {
	Stop          []byte
	EmergencyStop []byte
}

// DefaultOpcodes matches the opcodes observed on the reference hardware.
// Callers targeting standard Marlin firmware should override EmergencyStop
// with []byte("M112\n") at minimum.
var DefaultOpcodes = Opcodes{
	Stop:          []byte("G01\n"),
	EmergencyStop: []byte("G112\n"),
}

// Port is the duplex byte stream abstraction a serial port satisfies.
type Port interface {
	io.Reader
	io.Writer
}

// Driver implements control.Control over a line-oriented G-code stream. It
// runs the wait-for-start -> send-line -> wait-for-ok handshake described
// in §4.4.
type Driver struct {
	info    control.MachineInfo
	opcodes Opcodes

	mu      sync.Mutex
	port    Port
	reader  *bufio.Reader
	started bool
	state   control.State
}

// New wraps port as a Driver reporting info. The preamble handshake is run
// lazily on first use rather than in New, so construction never blocks on
// I/O.
func New(port Port, info control.MachineInfo, opcodes Opcodes) *Driver {
	return &Driver{
		port:    port,
		reader:  bufio.NewReader(port),
		info:    info,
		opcodes: opcodes,
		state:   control.Unknown,
	}
}

// readLine reads a single line, trimmed of its trailing newline.
func (d *Driver) readLine() (string, error) {
	line, err := d.reader.ReadString('\n')
	if err != nil {
		// A partial final line is still meaningful to callers probing for
		// "start"/"ok", but most failures here are a closed port.
		if line == "" {
			return "", machineerr.Wrap(machineerr.Io, component, err)
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// awaitStart blocks until a trimmed line ending in "start" is observed.
// Until that happens no line is transmitted, per §4.4.
func (d *Driver) awaitStart(ctx context.Context) error {
	if d.started {
		return nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return machineerr.Wrap(machineerr.Timeout, component, err)
		}
		line, err := d.readLine()
		if err != nil {
			return err
		}
		if strings.HasSuffix(line, "start") {
			d.started = true
			return nil
		}
	}
}

// StripComment implements §4.4's comment-stripping rule: everything from
// the first ';' is discarded, then the result is trimmed. Exported so tests
// can exercise it without a live port.
func StripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// SendLines streams gcode to the device, one non-blank comment-stripped
// line at a time, waiting for an exact "ok" after each write. The caller
// supplies the raw gcode lines, comments included.
func (d *Driver) SendLines(ctx context.Context, lines []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.awaitStart(ctx); err != nil {
		return err
	}

	for _, raw := range lines {
		line := StripComment(raw)
		if line == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return machineerr.Wrap(machineerr.Timeout, component, err)
		}
		if _, err := d.port.Write([]byte(line + "\r\n")); err != nil {
			return machineerr.Wrap(machineerr.Io, component, fmt.Errorf("write line: %w", err))
		}
		for {
			reply, err := d.readLine()
			if err != nil {
				return err
			}
			if reply == "ok" {
				break
			}
		}
	}
	d.state = control.Running
	return nil
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

// Stop writes the configured stop opcode. Idempotent: repeated calls just
// write the same bytes again.
func (d *Driver) Stop(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.port.Write(d.opcodes.Stop); err != nil {
		return machineerr.Wrap(machineerr.Io, component, err)
	}
	d.state = control.Idle
	return nil
}

// EmergencyStop writes the configured emergency-stop opcode. NOT a
// substitute for a physical e-stop.
func (d *Driver) EmergencyStop(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.port.Write(d.opcodes.EmergencyStop); err != nil {
		return machineerr.Wrap(machineerr.Io, component, err)
	}
	d.state = control.Idle
	return nil
}

// Build streams the artifact's contents as G-code lines.
func (d *Driver) Build(ctx context.Context, jobName string, artifact io.Reader) error {
	scanner := bufio.NewScanner(artifact)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return machineerr.Wrap(machineerr.Io, component, err)
	}
	return d.SendLines(ctx, lines)
}

func (d *Driver) Sensors(context.Context) (map[string]control.SensorKind, error) {
	return map[string]control.SensorKind{}, nil
}

func (d *Driver) PollSensors(context.Context) (map[string]control.SensorReading, error) {
	return map[string]control.SensorReading{}, nil
}

// Healthy reports true unconditionally; the original hardware this was
// modeled on has no cheap liveness probe beyond the handshake itself.
// TODO: issue a real gcode ping (e.g. M105) instead of a hardcoded true.
func (d *Driver) Healthy(context.Context) bool { return true }

var _ control.Control = (*Driver)(nil)
