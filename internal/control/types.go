// Package control defines the polymorphic Control contract (C7) that every
// device transport driver implements, plus the shared data model (§3) those
// operations speak in.
package control

// MachineType is the immutable manufacturing process a device performs.
type MachineType int

const (
	FDM MachineType = iota
	SLA
	CNC
)

func (t MachineType) String() string {
	switch t {
	case FDM:
		return "fdm"
	case SLA:
		return "sla"
	case CNC:
		return "cnc"
	default:
		return "unknown"
	}
}

// MakeModel identifies a device: a stable user-assigned id maps to
// (manufacturer, model, serial). Serial may be unknown at configuration
// time but must be stable across the device's lifetime once observed.
type MakeModel struct {
	Manufacturer string
	Model        string
	Serial       string
}

// Volume is the usable build envelope in millimetres. The zero value
// (Present=false) means the device exposes no known volume.
type Volume struct {
	Width, Depth, Height float64
	Present               bool
}

// MachineInfo is the read-only identity and shape of a device.
type MachineInfo struct {
	MakeModel MakeModel
	Type      MachineType
	Volume    Volume
}

// State is the observed lifecycle state of a device. Transitions are
// observed, never commanded.
type State int

const (
	Idle State = iota
	Running
	Paused
	Complete
	Failed
	Unknown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FilamentKind enumerates the materials a hotend can be loaded with.
type FilamentKind string

const (
	PLA  FilamentKind = "pla"
	ABS  FilamentKind = "abs"
	PETG FilamentKind = "petg"
	TPU  FilamentKind = "tpu"
)

// Filament describes one loadable material.
type Filament struct {
	Kind FilamentKind
	Colour string

	// The following are optional; zero means "not reported".
	WeightGrams       float64
	DiameterMM        float64
	MinNozzleTempC    float64
	MaxNozzleTempC    float64
}

// FDMConfiguration is the hardware-configuration shape for fused-deposition
// devices.
type FDMConfiguration struct {
	NozzleDiameterMM float64
	Filaments        []Filament
	// LoadedFilament indexes into Filaments; negative means "none loaded".
	LoadedFilament int
}

// HardwareConfiguration is the tagged union of §3's hardware-configuration
// variants. SLA and CNC devices carry no fields beyond Type today.
type HardwareConfiguration struct {
	Type MachineType
	FDM  FDMConfiguration
}

// SensorKind describes what a sensor measures, independent of its current
// reading. Used by sensors() to describe the static shape before polling.
type SensorKind struct {
	HasTarget bool
}

// SensorReading is a single temperature observation, with an optional
// target temperature.
type SensorReading struct {
	TemperatureC float64
	TargetC      float64
	HasTarget    bool
}
