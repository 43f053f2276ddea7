// Package config implements C12: the declarative shape of the top-level
// [machines.<id>] TOML table and the resolution logic from a parsed entry
// to the parameters a driver constructor needs. Reading the file from disk
// and wiring CLI flags belongs to cmd/, per §1's "configuration file
// parsing is an external collaborator" non-goal; this package only defines
// the struct shape the decoder fills in and resolves it.
package config

import (
	"fmt"

	"github.com/kittycad/machine-api/internal/machineerr"
)

const component = "config"

// DriverType discriminates which transport a [machines.<id>] table
// describes.
type DriverType string

const (
	DriverUSB       DriverType = "usb"
	DriverMoonraker DriverType = "moonraker"
	DriverBambu     DriverType = "bambu"
	DriverNoop      DriverType = "noop"
)

// SlicerType discriminates the [machines.<id>.slicer] table.
type SlicerType string

const (
	SlicerPrusa SlicerType = "prusa"
	SlicerOrca  SlicerType = "orca"
)

// SlicerConfig is the per-device slicer selection.
type SlicerConfig struct {
	Type   SlicerType `toml:"type"`
	Config string     `toml:"config"`
}

// USBConfig carries the parameters C4/C8 need to open and identify a
// serial-attached G-code device.
type USBConfig struct {
	VendorID     uint16 `toml:"vendor_id"`
	ProductID    uint16 `toml:"product_id"`
	Serial       string `toml:"serial"`
	BaudRate     uint32 `toml:"baud_rate"`
	Manufacturer string `toml:"manufacturer"`
	Model        string `toml:"model"`
}

// MoonrakerConfig carries the parameters a Moonraker/Klipper HTTP driver
// needs.
type MoonrakerConfig struct {
	URLBase      string `toml:"url_base"`
	Manufacturer string `toml:"manufacturer"`
	Model        string `toml:"model"`
}

// BambuConfig carries the parameters an MQTT session to a Bambu-class
// printer needs.
type BambuConfig struct {
	Host         string `toml:"host"`
	AccessCode   string `toml:"access_code"`
	Serial       string `toml:"serial"`
	FriendlyName string `toml:"friendly_name"`
	Manufacturer string `toml:"manufacturer"`
	Model        string `toml:"model"`
}

// MachineConfig is one [machines.<id>] table. Exactly one of the per-type
// fields is populated, selected by Type.
type MachineConfig struct {
	Type DriverType `toml:"type"`

	USB       USBConfig       `toml:"usb"`
	Moonraker MoonrakerConfig `toml:"moonraker"`
	Bambu     BambuConfig     `toml:"bambu"`

	Slicer SlicerConfig `toml:"slicer"`
}

// File is the top-level decoded TOML document: `[machines.<id>]` per
// device.
type File struct {
	Machines map[string]MachineConfig `toml:"machines"`
}

// Validate checks that every machine entry carries the fields its Type
// requires, without touching the filesystem or any driver. Returns the
// first violation found.
func (f File) Validate() error {
	for id, m := range f.Machines {
		switch m.Type {
		case DriverUSB:
			if m.USB.BaudRate == 0 {
				return machineerr.New(machineerr.Invariant, component, fmt.Sprintf("machines.%s: usb.baud_rate is required", id))
			}
		case DriverMoonraker:
			if m.Moonraker.URLBase == "" {
				return machineerr.New(machineerr.Invariant, component, fmt.Sprintf("machines.%s: moonraker.url_base is required", id))
			}
		case DriverBambu:
			if m.Bambu.Host == "" || m.Bambu.AccessCode == "" || m.Bambu.Serial == "" {
				return machineerr.New(machineerr.Invariant, component, fmt.Sprintf("machines.%s: bambu.host, access_code and serial are required", id))
			}
		case DriverNoop:
			// no required fields.
		default:
			return machineerr.New(machineerr.Invariant, component, fmt.Sprintf("machines.%s: unknown type %q", id, m.Type))
		}
	}
	return nil
}

// USBKey identifies a serial device the way C8's discovery key does:
// (vendor_id, product_id, serial).
type USBKey struct {
	VendorID, ProductID uint16
	Serial              string
}

// USBMachines returns the configured USB entries indexed by their discovery
// key, for C8's serial scanner to consult.
func (f File) USBMachines() map[USBKey]string {
	out := make(map[USBKey]string)
	for id, m := range f.Machines {
		if m.Type != DriverUSB {
			continue
		}
		out[USBKey{VendorID: m.USB.VendorID, ProductID: m.USB.ProductID, Serial: m.USB.Serial}] = id
	}
	return out
}

// BambuByFriendlyName returns the configured Bambu entries indexed by their
// SSDP friendly name, for C8's SSDP listener to consult.
func (f File) BambuByFriendlyName() map[string]string {
	out := make(map[string]string)
	for id, m := range f.Machines {
		if m.Type != DriverBambu {
			continue
		}
		out[m.Bambu.FriendlyName] = id
	}
	return out
}
