// Package discovery implements C8: two independent long-lived discovery
// sources -- an SSDP listener for Bambu-class network printers and a serial
// port scanner for USB/G-code devices -- that reconcile observed devices
// against a declared configuration and register matched drivers into the
// shared registry (C14).
package discovery

import (
	"context"

	"github.com/kittycad/machine-api/internal/config"
	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/registry"
	"github.com/kittycad/machine-api/internal/variants"
	"golang.org/x/sync/errgroup"
)

// Discovery is the persistent shared discovery handle described in §4.5: it
// owns both scan loops and writes matched devices into registry.
type Discovery struct {
	config   config.File
	registry *registry.Registry
}

// New constructs a Discovery over cfg, registering matched drivers into reg.
func New(cfg config.File, reg *registry.Registry) *Discovery {
	return &Discovery{config: cfg, registry: reg}
}

// Run starts both discovery sources as long-lived tasks and blocks until
// either fails or ctx is cancelled.
func (d *Discovery) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.runSSDP(ctx) })
	g.Go(func() error { return d.runSerialScan(ctx) })
	return g.Wait()
}

// machineInfoFor resolves a catalogue entry for manufacturer/model into a
// MachineInfo, falling back to an FDM machine of unknown volume when the
// pairing isn't in the catalogue -- discovery should never refuse to
// register a device just because internal/variants hasn't been taught
// about its exact model yet.
func machineInfoFor(manufacturer, model string) control.MachineInfo {
	v, ok := variants.Lookup(manufacturer, model)
	if !ok {
		return control.MachineInfo{
			MakeModel: control.MakeModel{Manufacturer: manufacturer, Model: model},
			Type:      control.FDM,
		}
	}
	return control.MachineInfo{
		MakeModel: control.MakeModel{Manufacturer: manufacturer, Model: model},
		Type:      v.Type,
		Volume:    v.Volume,
	}
}

func hardwareConfigurationFor(manufacturer, model string) control.HardwareConfiguration {
	v, ok := variants.Lookup(manufacturer, model)
	if !ok {
		return control.HardwareConfiguration{Type: control.FDM}
	}
	return v.HardwareConfiguration()
}
