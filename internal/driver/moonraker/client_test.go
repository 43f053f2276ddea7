package moonraker_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kittycad/machine-api/internal/driver/moonraker"
	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStartSendsFilenameForm(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/printer/print/start", r.URL.Path)
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := moonraker.NewClient(server.URL)
	require.NoError(t, client.PrintStart(context.Background(), "job.gcode"))
	assert.Contains(t, gotBody, "filename=job.gcode")
}

func TestInfoDecodesResultEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/printer/info", r.URL.Path)
		fmt.Fprint(w, `{"result":{"state":"ready","hostname":"voron","software_version":"v0.9.0"}}`)
	}))
	defer server.Close()

	client := moonraker.NewClient(server.URL)
	info, err := client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready", info.State)
	assert.Equal(t, "voron", info.Hostname)
}

func TestStatusDecodesQueryObjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "virtual_sdcard")
		fmt.Fprint(w, `{"result":{"status":{"print_stats":{"state":"printing"},"virtual_sdcard":{"progress":0.5}}}}`)
	}))
	defer server.Close()

	client := moonraker.NewClient(server.URL)
	status, err := client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "printing", status.PrintStats.State)
	assert.InDelta(t, 0.5, status.VirtualSDCard.Progress, 0.0001)
}

func TestUploadSendsMultipartFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "gcodes", r.FormValue("root"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "job.gcode", header.Filename)
		fmt.Fprint(w, `{"item":{"path":"job.gcode","root":"gcodes"},"print_started":false,"print_queued":true,"action":"create_file"}`)
	}))
	defer server.Close()

	client := moonraker.NewClient(server.URL)
	uploaded, err := client.Upload(context.Background(), "job.gcode", strings.NewReader("G28\n"))
	require.NoError(t, err)
	assert.True(t, uploaded.PrintQueued)
	assert.Equal(t, "job.gcode", uploaded.Item.Path)
}

func TestErrorStatusClassifiesByCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "not found")
	}))
	defer server.Close()

	client := moonraker.NewClient(server.URL)
	_, err := client.Get(context.Background(), "missing.gcode")
	require.Error(t, err)
	kind, ok := machineerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, machineerr.NotFound, kind)
}
