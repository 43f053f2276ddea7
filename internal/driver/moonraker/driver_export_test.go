package moonraker

// Exported-for-test aliases so driver_test.go (package moonraker_test) can
// exercise the pure status-mapping helpers without a live HTTP server.
var (
	StateFromStatus              = stateFromStatus
	ProgressFromStatus           = progressFromStatus
	SensorKindsFromReadings      = sensorKindsFromReadings
	SensorReadingsFromTemperatures = sensorReadingsFromTemperatures
)
