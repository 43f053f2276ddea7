package discovery

import (
	"fmt"

	"github.com/kittycad/machine-api/internal/config"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/driver/bambu"
	"github.com/kittycad/machine-api/internal/driver/gcode"
	"github.com/kittycad/machine-api/internal/driver/moonraker"
	"github.com/kittycad/machine-api/internal/driver/noop"
	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/kittycad/machine-api/internal/seqid"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const component = "discovery"

// ConnectOne constructs a driver for a single configured machine directly,
// without waiting on the long-lived SSDP/serial scan loops. cmd/machine-cli
// uses this for one-shot operator commands against a named device.
func ConnectOne(machine config.MachineConfig) (control.Control, error) {
	switch machine.Type {
	case config.DriverNoop:
		return noop.New(machineInfoFor("", "")), nil

	case config.DriverMoonraker:
		client := moonraker.NewClient(machine.Moonraker.URLBase)
		info := machineInfoFor(machine.Moonraker.Manufacturer, machine.Moonraker.Model)
		hw := hardwareConfigurationFor(machine.Moonraker.Manufacturer, machine.Moonraker.Model)
		return moonraker.NewDriver(client, info, hw), nil

	case config.DriverBambu:
		session, err := bambu.NewSession(machine.Bambu.Host, machine.Bambu.AccessCode, machine.Bambu.Serial, seqid.NewCounter())
		if err != nil {
			return nil, err
		}
		info := machineInfoFor(machine.Bambu.Manufacturer, machine.Bambu.Model)
		hw := hardwareConfigurationFor(machine.Bambu.Manufacturer, machine.Bambu.Model)
		return bambu.NewDriver(session, info, hw), nil

	case config.DriverUSB:
		return connectUSB(machine)

	default:
		return nil, machineerr.New(machineerr.Invariant, component, fmt.Sprintf("unknown driver type %q", machine.Type))
	}
}

// connectUSB re-enumerates serial ports once, looking for the (vid, pid,
// serial) key configured for this machine, and opens it directly.
func connectUSB(machine config.MachineConfig) (control.Control, error) {
	key := config.USBKey{
		VendorID:  machine.USB.VendorID,
		ProductID: machine.USB.ProductID,
		Serial:    machine.USB.Serial,
	}

	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, machineerr.Wrap(machineerr.Io, component, err)
	}

	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		candidate := config.USBKey{
			VendorID:  parseHexUint16(port.VID),
			ProductID: parseHexUint16(port.PID),
			Serial:    port.SerialNumber,
		}
		if candidate != key {
			continue
		}

		mode := &serial.Mode{BaudRate: int(machine.USB.BaudRate)}
		conn, err := serial.Open(port.Name, mode)
		if err != nil {
			return nil, machineerr.Wrap(machineerr.Io, component, err)
		}
		info := machineInfoFor(machine.USB.Manufacturer, machine.USB.Model)
		return gcode.New(conn, info, gcode.DefaultOpcodes), nil
	}

	return nil, machineerr.New(machineerr.NotFound, component, "no matching usb device currently attached")
}
