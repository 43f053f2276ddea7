package rtsp

import (
	"fmt"

	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// NALUnit is one reassembled H.264 network abstraction layer unit.
type NALUnit []byte

// Depacketizer reassembles RTP payloads carrying H.264 (RFC 6184) into
// whole NAL units, handling FU-A fragmentation across packets. It is not
// safe for concurrent use by multiple goroutines.
type Depacketizer struct {
	h264 codecs.H264Packet
}

// NewDepacketizer returns a ready-to-use Depacketizer.
func NewDepacketizer() *Depacketizer {
	return &Depacketizer{}
}

// Push parses one RTP packet from raw bytes and returns the NAL unit bytes
// it contributed, if the fragment completed one. A fragment that is only
// part of a NAL unit returns ok=false with no error: the caller should
// keep feeding packets.
func (d *Depacketizer) Push(raw []byte) (unit NALUnit, ok bool, err error) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		return nil, false, machineerr.Wrap(machineerr.Protocol, component, fmt.Errorf("unmarshal rtp packet: %w", err))
	}

	payload, err := d.h264.Unmarshal(pkt.Payload)
	if err != nil {
		return nil, false, machineerr.Wrap(machineerr.Protocol, component, fmt.Errorf("depacketize h264: %w", err))
	}
	if len(payload) == 0 {
		return nil, false, nil
	}
	return NALUnit(payload), true, nil
}
