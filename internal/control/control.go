package control

import (
	"context"
	"io"
)

// Control is the polymorphic contract (C7) every device transport driver
// implements. All operations may fail with a machineerr-classified error.
// Implementations MUST be safe to hold behind an exclusive lock: the
// registry serialises every mutating call, but Control itself does not
// assume any particular caller discipline beyond that.
type Control interface {
	// MachineInfo returns make/model/type/optional volume. Read-only; MUST
	// succeed whenever the device is reachable.
	MachineInfo(ctx context.Context) (MachineInfo, error)

	// State returns the current lifecycle state.
	State(ctx context.Context) (State, error)

	// Progress returns a value in [0,1] when State()==Running, and ok=false
	// otherwise.
	Progress(ctx context.Context) (value float64, ok bool, err error)

	// HardwareConfiguration returns the current nozzle/filament or
	// equivalent configuration.
	HardwareConfiguration(ctx context.Context) (HardwareConfiguration, error)

	// Stop requests orderly cessation of the current job. Idempotent.
	Stop(ctx context.Context) error

	// EmergencyStop requests immediate shutdown of motion/heaters. This is
	// NOT a substitute for a physical e-stop. Idempotent.
	EmergencyStop(ctx context.Context) error

	// Build enqueues a job from a G-code or 3MF artifact stream. Returns
	// once the job has been accepted by the device, not when it completes.
	Build(ctx context.Context, jobName string, artifact io.Reader) error

	// Sensors returns the static sensor-id -> kind description.
	Sensors(ctx context.Context) (map[string]SensorKind, error)

	// PollSensors returns the current sensor-id -> reading values.
	PollSensors(ctx context.Context) (map[string]SensorReading, error)

	// Healthy is a cheap liveness probe.
	Healthy(ctx context.Context) bool
}

// Suspendable is an optional capability: devices that support pausing and
// resuming a running job implement it in addition to Control.
type Suspendable interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// AsSuspendable type-asserts c to Suspendable, returning ok=false when the
// driver behind c does not support pause/resume. This mirrors the "open sum
// type, tagged enum of variants" dispatch the registry uses to probe
// optional capabilities without a type switch at every call site.
func AsSuspendable(c Control) (Suspendable, bool) {
	s, ok := c.(Suspendable)
	return s, ok
}
