// Package metrics implements C10: a per-device background poll loop that
// exposes sensor readings as Prometheus gauges.
package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/prometheus/client_golang/prometheus"
)

// PollInterval is how often PollSensors is called for each registered
// device, per §4.7.
const PollInterval = 5 * time.Second

// Exporter owns the gauge vectors every registered device's sensors are
// written to, plus the set of sensor ids known per device so a failed poll
// can still zero every gauge that device has ever reported.
type Exporter struct {
	value  *prometheus.GaugeVec
	target *prometheus.GaugeVec

	mu      sync.Mutex
	sensors map[string]map[string]control.SensorKind // device id -> sensor id -> kind
}

// New constructs an Exporter and registers its collectors with reg.
func New(reg prometheus.Registerer) *Exporter {
	e := &Exporter{
		value: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "machine_api",
			Name:      "sensor_celsius",
			Help:      "Current sensor reading in degrees Celsius.",
		}, []string{"device_id", "sensor_id"}),
		target: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "machine_api",
			Name:      "sensor_target_celsius",
			Help:      "Target sensor reading in degrees Celsius, where the sensor has one.",
		}, []string{"device_id", "sensor_id"}),
		sensors: make(map[string]map[string]control.SensorKind),
	}
	reg.MustRegister(e.value, e.target)
	return e
}

// Watch spawns a goroutine that polls deviceID's sensors via driver every
// PollInterval until ctx is cancelled. It first calls Sensors to learn the
// sensor-id -> kind catalogue and records it for deviceID; each gauge series
// is created the first time a poll writes to it.
func (e *Exporter) Watch(ctx context.Context, deviceID string, driver control.Control) error {
	kinds, err := driver.Sensors(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.sensors[deviceID] = kinds
	e.mu.Unlock()

	go e.pollLoop(ctx, deviceID, driver, kinds)
	return nil
}

func (e *Exporter) pollLoop(ctx context.Context, deviceID string, driver control.Control, kinds map[string]control.SensorKind) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.pollOnce(ctx, deviceID, driver, kinds)
		}
	}
}

func (e *Exporter) pollOnce(ctx context.Context, deviceID string, driver control.Control, kinds map[string]control.SensorKind) {
	readings, err := driver.PollSensors(ctx)
	if err != nil {
		log.Printf("[metrics] %s: poll failed, zeroing gauges: %v", deviceID, err)
		// Write 0.0 rather than leaving the last known value in place, so
		// operators see a live hole instead of a stale, misleadingly
		// plausible reading (§9: this is a crude signal, not a distinct
		// "unavailable" state -- Prometheus gauges have no such state).
		for sensorID, kind := range kinds {
			e.value.WithLabelValues(deviceID, sensorID).Set(0.0)
			if kind.HasTarget {
				e.target.WithLabelValues(deviceID, sensorID).Set(0.0)
			}
		}
		return
	}

	for sensorID, reading := range readings {
		e.value.WithLabelValues(deviceID, sensorID).Set(reading.TemperatureC)
		if reading.HasTarget {
			e.target.WithLabelValues(deviceID, sensorID).Set(reading.TargetC)
		}
	}
}

// Forget removes deviceID's sensor catalogue; it does not remove already
// emitted gauge series, since Prometheus scrapes are expected to observe a
// device's last-reported values disappear from subsequent scrapes once the
// process restarts, not mid-process.
func (e *Exporter) Forget(deviceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sensors, deviceID)
}
