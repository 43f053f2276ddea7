package config_test

import (
	"testing"

	"github.com/kittycad/machine-api/internal/config"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[machines.bench-printer]
type = "usb"
[machines.bench-printer.usb]
vendor_id = 0x2c99
product_id = 0x0002
serial = "ABC123"
baud_rate = 115200
manufacturer = "Prusa Research"
model = "MK4"
[machines.bench-printer.slicer]
type = "prusa"
config = "/etc/machine-api/prusa.ini"

[machines.living-room]
type = "bambu"
[machines.living-room.bambu]
host = "192.168.1.50"
access_code = "12345678"
serial = "01S00A000000000"
friendly_name = "Bambu X1C"
manufacturer = "Bambu Lab"
model = "X1 Carbon"
`

func TestDecodeAndValidateSample(t *testing.T) {
	var f config.File
	require.NoError(t, toml.Unmarshal([]byte(sample), &f))
	require.NoError(t, f.Validate())

	assert.Len(t, f.Machines, 2)
	assert.Equal(t, config.DriverUSB, f.Machines["bench-printer"].Type)
	assert.Equal(t, uint16(0x2c99), f.Machines["bench-printer"].USB.VendorID)
}

func TestUSBMachinesIndexedByKey(t *testing.T) {
	var f config.File
	require.NoError(t, toml.Unmarshal([]byte(sample), &f))

	byKey := f.USBMachines()
	id, ok := byKey[config.USBKey{VendorID: 0x2c99, ProductID: 0x0002, Serial: "ABC123"}]
	require.True(t, ok)
	assert.Equal(t, "bench-printer", id)
}

func TestBambuByFriendlyName(t *testing.T) {
	var f config.File
	require.NoError(t, toml.Unmarshal([]byte(sample), &f))

	byName := f.BambuByFriendlyName()
	assert.Equal(t, "living-room", byName["Bambu X1C"])
}

func TestValidateRejectsMissingRequiredFields(t *testing.T) {
	f := config.File{Machines: map[string]config.MachineConfig{
		"bad": {Type: config.DriverBambu},
	}}
	assert.Error(t, f.Validate())
}

func TestValidateRejectsUnknownType(t *testing.T) {
	f := config.File{Machines: map[string]config.MachineConfig{
		"bad": {Type: "resin-blob"},
	}}
	assert.Error(t, f.Validate())
}
