package discovery

import (
	"bufio"
	"context"
	"log"
	"net"
	"strings"

	"github.com/kittycad/machine-api/internal/driver/bambu"
	"github.com/kittycad/machine-api/internal/seqid"
)

// ssdpAddr is the non-standard port the target camera/3D-printer class
// devices emit their NOTIFY announcements on.
const ssdpAddr = "0.0.0.0:2021"

// bambuURN is the only NT value this listener acts on; any other value is
// a device class this fabric doesn't know how to drive.
const bambuURN = "urn:bambulab-com:device:3dprinter:1"

// ssdpNotification is the parsed shape of one NOTIFY * HTTP/1.1 datagram.
type ssdpNotification struct {
	Location     string
	FriendlyName string
	Serial       string
	URN          string
}

// parseSSDPNotification validates and parses a raw UDP datagram, per §4.5:
// the first non-blank line MUST be "NOTIFY * HTTP/1.1", followed by
// "Key: Value" header lines, with Location, DevName.bambu.com, USN and NT
// all present. ok is false for anything else. The NT value is not checked
// here; runSSDP drops notifications whose URN isn't bambuURN.
func parseSSDPNotification(raw []byte) (ssdpNotification, bool) {
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))

	var sawRequestLine bool
	headers := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !sawRequestLine {
			if line != "NOTIFY * HTTP/1.1" {
				return ssdpNotification{}, false
			}
			sawRequestLine = true
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if !sawRequestLine {
		return ssdpNotification{}, false
	}

	notification := ssdpNotification{
		Location:     headers["Location"],
		FriendlyName: headers["DevName.bambu.com"],
		Serial:       headers["USN"],
		URN:          headers["NT"],
	}
	if notification.Location == "" || notification.FriendlyName == "" || notification.Serial == "" || notification.URN == "" {
		return ssdpNotification{}, false
	}
	return notification, true
}

// runSSDP listens for Bambu NOTIFY announcements until ctx is cancelled,
// registering a matched, configured device's MQTT session exactly once.
func (d *Discovery) runSSDP(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", ssdpAddr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 8192)
	byFriendlyName := d.config.BambuByFriendlyName()

	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[discovery] ssdp read: %v", err)
			continue
		}

		notification, ok := parseSSDPNotification(buf[:n])
		if !ok || notification.URN != bambuURN {
			continue
		}

		id, known := byFriendlyName[notification.FriendlyName]
		if !known {
			continue
		}
		if d.registry.Has(id) {
			continue
		}

		if err := d.registerBambu(id, notification.Location); err != nil {
			log.Printf("[discovery] ssdp: registering %s failed: %v", id, err)
		}
	}
}

// registerBambu instantiates an MQTT session against the device named by
// notification and registers the resulting driver under id.
func (d *Discovery) registerBambu(id, host string) error {
	machine := d.config.Machines[id]
	session, err := bambu.NewSession(host, machine.Bambu.AccessCode, machine.Bambu.Serial, seqid.NewCounter())
	if err != nil {
		return err
	}

	info := machineInfoFor(machine.Bambu.Manufacturer, machine.Bambu.Model)
	hw := hardwareConfigurationFor(machine.Bambu.Manufacturer, machine.Bambu.Model)
	driver := bambu.NewDriver(session, info, hw)

	if err := d.registry.Insert(id, driver); err != nil {
		session.Close()
		return err
	}
	log.Printf("[discovery] registered bambu device %q at %s", id, host)
	return nil
}
