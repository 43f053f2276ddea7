// Package rtsp implements C5: an RTSP/1.0 control-plane client tunnelled
// in TLS, with digest-auth retry, interleaved binary framing, and
// RTP/H.264 depacketization. No RTSP or digest-auth library appears
// anywhere in the retrieval pack, so the control-plane parsing below is
// hand-written against stdlib (crypto/tls, crypto/md5, net); only the RTP
// header/payload handling delegates to pion/rtp, the pack's one RTP
// parser.
package rtsp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/kittycad/machine-api/internal/machineerr"
)

const component = "rtsp"

// Marker is the literal RTSP/1.0 response line prefix the parser searches
// for, discarding any preamble (e.g. trailing RTP bytes from a previous
// interleaved frame) before it.
const Marker = "RTSP/1.0"

// Response is a parsed RTSP status line plus header block.
type Response struct {
	StatusCode int
	StatusText string
	Headers    map[string]string
}

// ParseResult carries a successfully parsed Response plus whatever bytes
// remained in the buffer after the terminating CRLFCRLF -- the "residue"
// interleaved binary data that follows a control response in the same
// stream.
type ParseResult struct {
	Response Response
	Residue  []byte
}

// errIncomplete is returned by ParseResponse when buf does not yet contain
// a full response; the caller should read more bytes and retry.
var errIncomplete = machineerr.New(machineerr.Protocol, component, "incomplete response")

// IsIncomplete reports whether err indicates the buffer needs more bytes
// before parsing can proceed, vs. a genuine format error.
func IsIncomplete(err error) bool {
	return err == errIncomplete
}

// ParseResponse locates the RTSP/1.0 marker in buf, discarding any
// preamble, then parses the status line and header block up to the first
// blank line. Returns errIncomplete if buf does not yet contain a
// complete response.
func ParseResponse(buf []byte) (ParseResult, error) {
	idx := bytes.Index(buf, []byte(Marker))
	if idx < 0 {
		return ParseResult{}, errIncomplete
	}
	rest := buf[idx:]

	end := bytes.Index(rest, []byte("\r\n\r\n"))
	if end < 0 {
		return ParseResult{}, errIncomplete
	}

	block := rest[:end]
	residue := rest[end+4:]

	lines := strings.Split(string(block), "\r\n")
	if len(lines) == 0 {
		return ParseResult{}, machineerr.New(machineerr.Protocol, component, "empty response block")
	}

	statusLine := lines[0]
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 || parts[0] != Marker {
		return ParseResult{}, machineerr.New(machineerr.Protocol, component, fmt.Sprintf("malformed status line %q", statusLine))
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return ParseResult{}, machineerr.New(machineerr.Protocol, component, fmt.Sprintf("non-numeric status code %q", parts[1]))
	}
	text := ""
	if len(parts) == 3 {
		text = parts[2]
	}

	headers := make(map[string]string, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return ParseResult{
		Response: Response{StatusCode: code, StatusText: text, Headers: headers},
		Residue:  append([]byte(nil), residue...),
	}, nil
}

// SessionToken parses the Session header's token, discarding any
// `;timeout=<n>` suffix, per §4.2's "Session token extraction".
func SessionToken(sessionHeader string) string {
	token, _, _ := strings.Cut(sessionHeader, ";")
	return token
}

// Format renders a Response back into the wire form ParseResponse accepts,
// used by the round-trip test in §8.
func (r Response) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\r\n", Marker, r.StatusCode, r.StatusText)
	for k, v := range r.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	return b.String()
}
