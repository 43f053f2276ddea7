package moonraker_test

import (
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/driver/moonraker"
	"github.com/stretchr/testify/assert"
)

func TestStateFromStatusMapsPrintStatsState(t *testing.T) {
	assert.Equal(t, control.Running, moonraker.StateFromStatus(moonraker.Status{
		PrintStats: moonraker.PrintStats{State: "printing"},
	}))
	assert.Equal(t, control.Paused, moonraker.StateFromStatus(moonraker.Status{
		PrintStats: moonraker.PrintStats{State: "paused"},
	}))
	assert.Equal(t, control.Unknown, moonraker.StateFromStatus(moonraker.Status{
		PrintStats: moonraker.PrintStats{State: "mystery"},
	}))
}

func TestProgressFromStatusOnlyWhileRunning(t *testing.T) {
	value, ok := moonraker.ProgressFromStatus(moonraker.Status{
		PrintStats:    moonraker.PrintStats{State: "printing"},
		VirtualSDCard: moonraker.VirtualSDCard{Progress: 0.73},
	})
	assert.True(t, ok)
	assert.InDelta(t, 0.73, value, 0.0001)

	_, ok = moonraker.ProgressFromStatus(moonraker.Status{
		PrintStats:    moonraker.PrintStats{State: "standby"},
		VirtualSDCard: moonraker.VirtualSDCard{Progress: 0.73},
	})
	assert.False(t, ok)
}

func TestSensorKindsFromReadingsOmitsHeaterBedWhenAbsent(t *testing.T) {
	kinds := moonraker.SensorKindsFromReadings(moonraker.TemperatureReadings{})
	_, hasExtruder := kinds["extruder"]
	_, hasBed := kinds["heater_bed"]
	assert.True(t, hasExtruder)
	assert.False(t, hasBed)
}

func TestSensorReadingsFromTemperaturesTakesLatestSample(t *testing.T) {
	readings := moonraker.SensorReadingsFromTemperatures(moonraker.TemperatureReadings{
		Extruder: moonraker.ControlledTemperatureReadings{
			Temperatures: []float64{180, 200, 210},
			Targets:      []float64{210, 210, 210},
		},
	})
	reading, ok := readings["extruder"]
	assert.True(t, ok)
	assert.Equal(t, 210.0, reading.TemperatureC)
	assert.Equal(t, 210.0, reading.TargetC)
	assert.True(t, reading.HasTarget)
}
