package bambu_test

import (
	"testing"

	"github.com/kittycad/machine-api/internal/control"
	"github.com/kittycad/machine-api/internal/driver/bambu"
	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }
func i64(v int64) *int64    { return &v }
func str(s string) *string  { return &s }

func TestStateFromStatusMapsGcodeState(t *testing.T) {
	assert.Equal(t, control.Running, bambu.StateFromStatus(bambu.PushStatus{GcodeState: str("RUNNING")}))
	assert.Equal(t, control.Paused, bambu.StateFromStatus(bambu.PushStatus{GcodeState: str("PAUSE")}))
	assert.Equal(t, control.Unknown, bambu.StateFromStatus(bambu.PushStatus{GcodeState: str("SOMETHING_NEW")}))
	assert.Equal(t, control.Unknown, bambu.StateFromStatus(bambu.PushStatus{}))
}

func TestProgressFromStatusOnlyMeaningfulWhenRunning(t *testing.T) {
	value, ok := bambu.ProgressFromStatus(bambu.PushStatus{GcodeState: str("RUNNING"), McPercent: i64(42)})
	assert.True(t, ok)
	assert.InDelta(t, 0.42, value, 0.0001)

	_, ok = bambu.ProgressFromStatus(bambu.PushStatus{GcodeState: str("IDLE"), McPercent: i64(42)})
	assert.False(t, ok)
}

func TestSensorReadingsFromStatusOmitsMissingFields(t *testing.T) {
	readings := bambu.SensorReadingsFromStatus(bambu.PushStatus{
		NozzleTemperC: ptr(210),
		BedTemperC:    ptr(60),
	})
	_, hasChamber := readings["chamber"]
	assert.False(t, hasChamber)
	assert.Equal(t, 210.0, readings["nozzle"].TemperatureC)
	assert.False(t, readings["nozzle"].HasTarget)
}

func TestSensorReadingsChamberHasNoTargetField(t *testing.T) {
	readings := bambu.SensorReadingsFromStatus(bambu.PushStatus{ChamberTemperC: ptr(28.5)})
	reading, ok := readings["chamber"]
	assert.True(t, ok)
	assert.False(t, reading.HasTarget)
}
