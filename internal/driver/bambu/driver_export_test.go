package bambu

// Exported-for-test aliases so driver_test.go (package bambu_test) can
// exercise the pure status-mapping helpers without a live MQTT session.
var (
	StateFromStatus           = stateFromStatus
	ProgressFromStatus        = progressFromStatus
	SensorReadingsFromStatus  = sensorReadingsFromStatus
)
