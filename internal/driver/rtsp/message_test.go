package rtsp_test

import (
	"testing"

	"github.com/kittycad/machine-api/internal/driver/rtsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseInsideInterleavedStream(t *testing.T) {
	preamble := []byte{0x24, 0x01, 0x00, 0x30}
	body := "RTSP/1.0 401 Unauthorized\r\n" +
		"CSeq: 2\r\n" +
		"Date: Fri, Aug 09 2024 14:00:40 GMT\r\n" +
		`WWW-Authenticate: Digest realm="LIVE555 Streaming Media", nonce="3b8d6b98cb67fb38af1cd3ae50ec393d"` + "\r\n" +
		"\r\n"
	residue := []byte{0x24, 0x01, 0x00, 0x30, 0xAA, 0xBB}

	buf := append(append(append([]byte{}, preamble...), []byte(body)...), residue...)

	result, err := rtsp.ParseResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, 401, result.Response.StatusCode)
	assert.Equal(t, "2", result.Response.Headers["CSeq"])
	assert.Equal(t, "Fri, Aug 09 2024 14:00:40 GMT", result.Response.Headers["Date"])
	assert.Contains(t, result.Response.Headers["WWW-Authenticate"], "LIVE555")
	assert.Equal(t, residue, result.Residue)
}

func TestUnknownStatusCodePassesThrough(t *testing.T) {
	buf := []byte("RTSP/1.0 418 Teapot\r\n\r\n")
	result, err := rtsp.ParseResponse(buf)
	require.NoError(t, err)
	assert.Equal(t, 418, result.Response.StatusCode)
	assert.Equal(t, "Teapot", result.Response.StatusText)
}

func TestParseResponseIncompleteRequestsMoreBytes(t *testing.T) {
	_, err := rtsp.ParseResponse([]byte("RTSP/1.0 200 OK\r\nCSeq: 1\r\n"))
	assert.True(t, rtsp.IsIncomplete(err))
}

func TestResponseRoundTrip(t *testing.T) {
	original := rtsp.Response{
		StatusCode: 200,
		StatusText: "OK",
		Headers:    map[string]string{"CSeq": "4", "Session": "ABCD;timeout=10"},
	}
	result, err := rtsp.ParseResponse([]byte(original.Format()))
	require.NoError(t, err)
	assert.Equal(t, original.StatusCode, result.Response.StatusCode)
	assert.Equal(t, original.Headers, result.Response.Headers)
}

func TestSessionTokenStripsTimeoutSuffix(t *testing.T) {
	assert.Equal(t, "ABCD", rtsp.SessionToken("ABCD;timeout=10"))
}
