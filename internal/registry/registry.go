// Package registry implements C14: a map from device-id to a lock-guarded
// Control handle. The map itself is read/write-locked (many readers
// scanning for a device, few writers inserting or removing one); each
// driver handle carries its own exclusive lock so that operations on
// unrelated devices never block each other.
package registry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/machineerr"
)

const component = "registry"

// handle wraps one Control implementation with its own exclusive lock,
// serialising every mutating operation on that device, matching the
// original's SharedMachine<ControlT>(Arc<Mutex<ControlT>>) wrapper.
type handle struct {
	mu     sync.Mutex
	driver control.Control
}

var _ control.Control = (*handle)(nil)

func (h *handle) MachineInfo(ctx context.Context) (control.MachineInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.MachineInfo(ctx)
}

func (h *handle) State(ctx context.Context) (control.State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.State(ctx)
}

func (h *handle) Progress(ctx context.Context) (float64, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.Progress(ctx)
}

func (h *handle) HardwareConfiguration(ctx context.Context) (control.HardwareConfiguration, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.HardwareConfiguration(ctx)
}

func (h *handle) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.Stop(ctx)
}

func (h *handle) EmergencyStop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.EmergencyStop(ctx)
}

func (h *handle) Build(ctx context.Context, jobName string, artifact io.Reader) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.Build(ctx, jobName, artifact)
}

func (h *handle) Sensors(ctx context.Context) (map[string]control.SensorKind, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.Sensors(ctx)
}

func (h *handle) PollSensors(ctx context.Context) (map[string]control.SensorReading, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.PollSensors(ctx)
}

func (h *handle) Healthy(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.driver.Healthy(ctx)
}

// Pause forwards to the underlying driver if it implements Suspendable.
func (h *handle) Pause(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := control.AsSuspendable(h.driver)
	if !ok {
		return machineerr.New(machineerr.Invariant, component, "driver does not support pause")
	}
	return s.Pause(ctx)
}

// Resume forwards to the underlying driver if it implements Suspendable.
func (h *handle) Resume(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := control.AsSuspendable(h.driver)
	if !ok {
		return machineerr.New(machineerr.Invariant, component, "driver does not support resume")
	}
	return s.Resume(ctx)
}

// Registry is the device-id -> driver map described in §4.8. The zero value
// is ready to use.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]*handle
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{drivers: make(map[string]*handle)}
}

// Insert registers driver under id. It fails with Invariant if id is
// already present: a device appears in the registry at most once under a
// given id.
func (r *Registry) Insert(id string, driver control.Control) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drivers[id]; exists {
		return machineerr.New(machineerr.Invariant, component, fmt.Sprintf("device %q already registered", id))
	}
	if r.drivers == nil {
		r.drivers = make(map[string]*handle)
	}
	r.drivers[id] = &handle{driver: driver}
	return nil
}

// Remove drops id from the registry. Removal is permitted at any time; the
// caller is responsible for having already shut down the driver.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drivers, id)
}

// Lookup returns the lock-guarded Control handle for id, or NotConfigured
// if no driver is registered under that id.
func (r *Registry) Lookup(id string) (control.Control, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.drivers[id]
	if !ok {
		return nil, machineerr.New(machineerr.NotConfigured, component, fmt.Sprintf("no device %q", id))
	}
	return h, nil
}

// Has reports whether id is currently registered, without acquiring the
// per-driver lock. Used by discovery sources to skip already-known devices.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.drivers[id]
	return ok
}

// IDs returns a snapshot of every currently-registered device id.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.drivers))
	for id := range r.drivers {
		ids = append(ids, id)
	}
	return ids
}
