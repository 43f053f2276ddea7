package discovery

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/kittycad/machine-api/internal/config"
	"github.com/kittycad/machine-api/internal/driver/gcode"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// serialScanInterval is how often the port list is re-enumerated, per §4.5.
const serialScanInterval = 5 * time.Second

// parseHexUint16 parses a "0x1234"-or-bare-hex VID/PID string as
// enumerator.PortDetails reports them. An unparsable value yields 0, which
// will simply never match a configured key.
func parseHexUint16(s string) uint16 {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0
	}
	return uint16(v)
}

// runSerialScan lists serial ports every serialScanInterval until ctx is
// cancelled, registering any port matching a configured, not-yet-registered
// USB key.
func (d *Discovery) runSerialScan(ctx context.Context) error {
	ticker := time.NewTicker(serialScanInterval)
	defer ticker.Stop()

	d.scanSerialOnce()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.scanSerialOnce()
		}
	}
}

func (d *Discovery) scanSerialOnce() {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Printf("[discovery] serial enumerate: %v", err)
		return
	}

	usbMachines := d.config.USBMachines()
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		key := config.USBKey{
			VendorID:  parseHexUint16(port.VID),
			ProductID: parseHexUint16(port.PID),
			Serial:    port.SerialNumber,
		}

		id, configured := usbMachines[key]
		if !configured {
			continue
		}
		if d.registry.Has(id) {
			continue
		}

		if err := d.registerSerial(id, port.Name); err != nil {
			log.Printf("[discovery] serial: registering %s at %s failed: %v", id, port.Name, err)
		}
	}
}

func (d *Discovery) registerSerial(id, portName string) error {
	machine := d.config.Machines[id]

	mode := &serial.Mode{BaudRate: int(machine.USB.BaudRate)}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return err
	}

	info := machineInfoFor(machine.USB.Manufacturer, machine.USB.Model)
	driver := gcode.New(port, info, gcode.DefaultOpcodes)

	if err := d.registry.Insert(id, driver); err != nil {
		port.Close()
		return err
	}
	log.Printf("[discovery] registered usb device %q on %s", id, portName)
	return nil
}
