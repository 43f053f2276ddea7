package rtsp

import (
	"bytes"
	"encoding/binary"
)

// InterleavedMarker is the two-byte marker prefixing every interleaved
// binary frame on the RTSP TCP/TLS stream.
var InterleavedMarker = [2]byte{0x24, 0x00}

// FrameResult is one parsed interleaved frame plus the bytes consumed from
// the input buffer.
type FrameResult struct {
	Payload  []byte
	Consumed int
}

// NextFrame searches buf for InterleavedMarker, discarding any preceding
// bytes, then reads the big-endian 16-bit length and that many payload
// bytes. Returns ok=false if buf does not yet contain a complete frame.
func NextFrame(buf []byte) (FrameResult, bool) {
	idx := bytes.Index(buf, InterleavedMarker[:])
	if idx < 0 {
		return FrameResult{}, false
	}
	rest := buf[idx:]
	const headerLen = 4 // 0x24, channel, length-hi, length-lo
	if len(rest) < headerLen {
		return FrameResult{}, false
	}
	length := binary.BigEndian.Uint16(rest[2:4])
	if len(rest) < headerLen+int(length) {
		return FrameResult{}, false
	}
	payload := rest[headerLen : headerLen+int(length)]
	return FrameResult{
		Payload:  append([]byte(nil), payload...),
		Consumed: idx + headerLen + int(length),
	}, true
}
