// Package moonraker implements the Moonraker/Klipper transport: a
// JSON-over-HTTP API reachable on the printer's network interface,
// distinct from the MQTT and serial transports the other drivers speak.
package moonraker

const component = "moonraker"

// InfoResponse mirrors the result of POST /printer/info.
type InfoResponse struct {
	State           string `json:"state"`
	StateMessage    string `json:"state_message"`
	Hostname        string `json:"hostname"`
	SoftwareVersion string `json:"software_version"`
	CPUInfo         string `json:"cpu_info"`
}

// infoEnvelope wraps InfoResponse the way every Moonraker endpoint wraps
// its payload in a top-level "result" key.
type infoEnvelope struct {
	Result InfoResponse `json:"result"`
}

// VirtualSDCard mirrors the virtual_sdcard object from objects/query.
type VirtualSDCard struct {
	Progress   float64 `json:"progress"`
	IsActive   bool    `json:"is_active"`
	FilePosition int64 `json:"file_position"`
}

// Webhooks mirrors the webhooks object from objects/query.
type Webhooks struct {
	State        string `json:"state"`
	StateMessage string `json:"state_message"`
}

// PrintStats mirrors the print_stats object from objects/query.
type PrintStats struct {
	Filename    string  `json:"filename"`
	TotalDuration float64 `json:"total_duration"`
	State       string  `json:"state"`
	Message     string  `json:"message"`
}

// Status is the combined objects/query result for the three objects this
// driver subscribes to.
type Status struct {
	VirtualSDCard VirtualSDCard `json:"virtual_sdcard"`
	Webhooks      Webhooks      `json:"webhooks"`
	PrintStats    PrintStats    `json:"print_stats"`
}

type statusResult struct {
	Status Status `json:"status"`
}

type queryResponse struct {
	Result statusResult `json:"result"`
}

// UploadResponseItem describes the file object /server/files/upload
// returns on success.
type UploadResponseItem struct {
	Path   string `json:"path"`
	Root   string `json:"root"`
	Size   int64  `json:"size"`
	Modified float64 `json:"modified"`
}

// UploadResponse is the full body of a successful upload request.
type UploadResponse struct {
	Item         UploadResponseItem `json:"item"`
	PrintStarted bool               `json:"print_started"`
	PrintQueued  bool               `json:"print_queued"`
	Action       string             `json:"action"`
}

// ControlledTemperatureReadings is one heated element's reading history,
// oldest (0th) to latest (last), as klipper reports it.
type ControlledTemperatureReadings struct {
	Temperatures []float64 `json:"temperatures"`
	Targets      []float64 `json:"targets"`
	Powers       []float64 `json:"powers"`
}

// TemperatureReadings is the body of GET /server/temperature_store.
// HeaterBed is nil on machines without a heated bed.
type TemperatureReadings struct {
	Extruder  ControlledTemperatureReadings  `json:"extruder"`
	HeaterBed *ControlledTemperatureReadings `json:"heater_bed"`
}

type temperatureReadingsEnvelope struct {
	Result TemperatureReadings `json:"result"`
}
