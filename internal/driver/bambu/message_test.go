package bambu_test

import (
	"testing"

	"github.com/kittycad/machine-api/internal/driver/bambu"
	"github.com/kittycad/machine-api/internal/seqid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePushStatusMessage(t *testing.T) {
	raw := []byte(`{"print":{"command":"push_status","sequence_id":0,"nozzle_temper":210.0,"nozzle_target_temper":215.0,"bed_temper":60.0,"chamber_temper":28.5,"mc_percent":42,"gcode_state":"RUNNING","ams_exist_bits":"1"}}`)

	msg := bambu.ParseMessage(raw)
	require.NotNil(t, msg.Print)
	assert.True(t, msg.IsPushStatus())

	id, ok := msg.SequenceID()
	require.True(t, ok)
	assert.Equal(t, seqid.FromInt(0).String(), id.String())

	status := msg.Print.PushStatus
	require.NotNil(t, status.NozzleTemperC)
	assert.Equal(t, 210.0, *status.NozzleTemperC)
	require.NotNil(t, status.ChamberTemperC)
	require.NotNil(t, status.NozzleTargetTemperC)
	assert.Equal(t, 215.0, *status.NozzleTargetTemperC)
	assert.True(t, status.HasAMS())
}

func TestHasAMSFalseWhenBitsZero(t *testing.T) {
	zero := "0"
	status := bambu.PushStatus{AmsExistBits: &zero}
	assert.False(t, status.HasAMS())
}

func TestHasAMSFalseWhenAbsent(t *testing.T) {
	status := bambu.PushStatus{}
	assert.False(t, status.HasAMS())
}

func TestUnparsableJSONYieldsUnknownNotError(t *testing.T) {
	msg := bambu.ParseMessage([]byte("not json"))
	assert.Nil(t, msg.Print)
	assert.Nil(t, msg.Unknown)
}

func TestValidJSONWithNoKnownGroupIsUnknown(t *testing.T) {
	msg := bambu.ParseMessage([]byte(`{"liveview":{"foo":"bar"}}`))
	assert.Nil(t, msg.Print)
	assert.NotNil(t, msg.Unknown)
}
