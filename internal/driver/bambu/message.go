package bambu

import (
	"encoding/json"

	"github.com/kittycad/machine-api/internal/seqid"
)

// PushStatus is the unsolicited print.push_status payload. Field names
// and the absence of a chamber target temperature match the wire format
// exactly; a missing numeric field is left at its zero value and callers
// must check the companion bool/pointer rather than trust 0 as real.
type PushStatus struct {
	NozzleTemperC       *float64 `json:"nozzle_temper,omitempty"`
	NozzleTargetTemperC *float64 `json:"nozzle_target_temper,omitempty"`
	BedTemperC          *float64 `json:"bed_temper,omitempty"`
	BedTargetTemperC    *float64 `json:"bed_target_temper,omitempty"`
	ChamberTemperC      *float64 `json:"chamber_temper,omitempty"`
	McPercent           *int64   `json:"mc_percent,omitempty"`
	GcodeState          *string  `json:"gcode_state,omitempty"`
	AmsExistBits        *string  `json:"ams_exist_bits,omitempty"`
}

// HasAMS reports whether the last-known push-status indicates an AMS unit
// is attached, per §4.3's capability probe (ams_exist_bits != "0").
func (p PushStatus) HasAMS() bool {
	return p.AmsExistBits != nil && *p.AmsExistBits != "0"
}

// Message is the tagged variant of an inbound report-topic payload:
// exactly one of the group fields is non-nil, mirroring the top-level key
// that was present on the wire.
type Message struct {
	Print  *PrintMessage `json:"print,omitempty"`
	Info   *RawGroup     `json:"info,omitempty"`
	System *RawGroup     `json:"system,omitempty"`
	// Unknown holds the raw bytes of a payload that parsed as JSON but
	// matched none of the above groups, or nil if the payload was not
	// even valid JSON.
	Unknown json.RawMessage `json:"-"`
}

// RawGroup is a group body this driver does not interpret further beyond
// extracting its sequence id.
type RawGroup struct {
	Command    string `json:"command"`
	SequenceID any    `json:"sequence_id"`
}

// PrintMessage is the "print" group body; PushStatus is populated only
// when Command == "push_status".
type PrintMessage struct {
	Command    string `json:"command"`
	SequenceID any    `json:"sequence_id"`
	PushStatus
}

// ParseMessage decodes one report-topic payload into a Message. A payload
// that is not valid JSON yields Message{Unknown: nil} with no error: the
// original behavior treats this as silently ignorable, not fatal.
func ParseMessage(raw []byte) Message {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{Unknown: nil}
	}
	if m.Print == nil && m.Info == nil && m.System == nil {
		m.Unknown = json.RawMessage(raw)
	}
	return m
}

// SequenceID extracts the message's sequence id, if any group carried one.
func (m Message) SequenceID() (seqid.ID, bool) {
	var raw any
	switch {
	case m.Print != nil:
		raw = m.Print.SequenceID
	case m.Info != nil:
		raw = m.Info.SequenceID
	case m.System != nil:
		raw = m.System.SequenceID
	default:
		return seqid.ID{}, false
	}
	switch v := raw.(type) {
	case string:
		return seqid.FromString(v), true
	case float64:
		return seqid.FromInt(uint32(v)), true
	default:
		return seqid.ID{}, false
	}
}

// IsPushStatus reports whether m is an unsolicited print.push_status
// message, which is additionally stored under the reserved "status" key.
func (m Message) IsPushStatus() bool {
	return m.Print != nil && m.Print.Command == "push_status"
}
