// Package variants implements C11: a tagged catalogue of known
// manufacturer/model pairs with their fixed capabilities (volume, default
// nozzle, baud rate, machine type). Discovery consults this catalogue to
// fill in parameters a wire announcement doesn't carry.
package variants

import "github.com/kittycad/machine-api/internal/control"

// Variant is the fixed capability set for one manufacturer/model pair.
type Variant struct {
	Manufacturer string
	Model        string
	Type         control.MachineType
	Volume       control.Volume

	// DefaultNozzleMM and DefaultFilament describe the hardware
	// configuration a freshly-discovered device reports before it has
	// reported anything of its own.
	DefaultNozzleMM float64
	DefaultFilament control.Filament

	// BaudRate is the serial line speed for USB/G-code variants. Zero for
	// network-transport variants.
	BaudRate uint32
}

// catalogue is keyed by (manufacturer, model). It is intentionally small
// and hand-maintained, the way a fixed hardware capability table should
// be: new devices are an explicit addition, not inferred.
var catalogue = map[string]Variant{
	key("Prusa Research", "MK4"): {
		Manufacturer:    "Prusa Research",
		Model:           "MK4",
		Type:            control.FDM,
		Volume:          control.Volume{Width: 250, Depth: 210, Height: 220, Present: true},
		DefaultNozzleMM: 0.4,
		DefaultFilament: control.Filament{Kind: control.PLA, DiameterMM: 1.75},
		BaudRate:        115200,
	},
	key("Bambu Lab", "X1 Carbon"): {
		Manufacturer:    "Bambu Lab",
		Model:           "X1 Carbon",
		Type:            control.FDM,
		Volume:          control.Volume{Width: 256, Depth: 256, Height: 256, Present: true},
		DefaultNozzleMM: 0.4,
		DefaultFilament: control.Filament{Kind: control.PLA, DiameterMM: 1.75},
	},
	key("Bambu Lab", "P1S"): {
		Manufacturer:    "Bambu Lab",
		Model:           "P1S",
		Type:            control.FDM,
		Volume:          control.Volume{Width: 256, Depth: 256, Height: 256, Present: true},
		DefaultNozzleMM: 0.4,
		DefaultFilament: control.Filament{Kind: control.PLA, DiameterMM: 1.75},
	},
	key("Formlabs", "Form 3"): {
		Manufacturer: "Formlabs",
		Model:        "Form 3",
		Type:         control.SLA,
		Volume:       control.Volume{Width: 145, Depth: 145, Height: 185, Present: true},
	},
	key("Creality", "Ender 3 V2"): {
		Manufacturer:    "Creality",
		Model:           "Ender 3 V2",
		Type:            control.FDM,
		Volume:          control.Volume{Width: 220, Depth: 220, Height: 250, Present: true},
		DefaultNozzleMM: 0.4,
		DefaultFilament: control.Filament{Kind: control.PLA, DiameterMM: 1.75},
		BaudRate:        115200,
	},
}

func key(manufacturer, model string) string {
	return manufacturer + "\x00" + model
}

// Lookup returns the Variant for a manufacturer/model pair, if known.
func Lookup(manufacturer, model string) (Variant, bool) {
	v, ok := catalogue[key(manufacturer, model)]
	return v, ok
}

// HardwareConfiguration builds a HardwareConfiguration snapshot for an FDM
// variant using its default filament as the sole loaded slot; SLA/CNC
// variants get the empty placeholder §3 describes.
func (v Variant) HardwareConfiguration() control.HardwareConfiguration {
	if v.Type != control.FDM {
		return control.HardwareConfiguration{Type: v.Type}
	}
	return control.HardwareConfiguration{
		Type: control.FDM,
		FDM: control.FDMConfiguration{
			NozzleDiameterMM: v.DefaultNozzleMM,
			Filaments:        []control.Filament{v.DefaultFilament},
			LoadedFilament:   0,
		},
	}
}
