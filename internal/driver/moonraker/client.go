package moonraker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kittycad/machine-api/internal/machineerr"
)

// defaultTimeout bounds every request this client issues; Moonraker is a
// LAN service and a request that hasn't answered by then is not coming
// back.
const defaultTimeout = 10 * time.Second

// Client is a thin JSON-over-HTTP client for one Moonraker instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a Client against baseURL (e.g. "http://10.0.0.5:7125").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// classifyStatus maps an HTTP status code to a machineerr.Kind the way the
// other transports' failure modes are classified.
func classifyStatus(status int) machineerr.Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return machineerr.Unauthorized
	case status == http.StatusNotFound:
		return machineerr.NotFound
	case status >= 500:
		return machineerr.Io
	default:
		return machineerr.Protocol
	}
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, machineerr.Wrap(machineerr.Io, component, err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, machineerr.New(classifyStatus(resp.StatusCode), component,
			fmt.Sprintf("%s %s: %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(body)))
	}
	return resp, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequest(http.MethodPost, c.url(path), strings.NewReader(form.Encode()))
	if err != nil {
		return machineerr.Wrap(machineerr.Protocol, component, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

func (c *Client) postEmpty(ctx context.Context, path string) error {
	req, err := http.NewRequest(http.MethodPost, c.url(path), nil)
	if err != nil {
		return machineerr.Wrap(machineerr.Protocol, component, err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// PrintStart starts a print of filename, which must already exist in the
// gcodes root.
func (c *Client) PrintStart(ctx context.Context, filename string) error {
	return c.postForm(ctx, "/printer/print/start", url.Values{"filename": {filename}})
}

// EmergencyStop halts motion and heaters immediately.
func (c *Client) EmergencyStop(ctx context.Context) error {
	return c.postEmpty(ctx, "/printer/emergency_stop")
}

// Restart restarts the Klipper host software.
func (c *Client) Restart(ctx context.Context) error {
	return c.postEmpty(ctx, "/printer/restart")
}

// CancelPrint cancels the active print.
func (c *Client) CancelPrint(ctx context.Context) error {
	return c.postEmpty(ctx, "/printer/print/cancel")
}

// PausePrint pauses the active print.
func (c *Client) PausePrint(ctx context.Context) error {
	return c.postEmpty(ctx, "/printer/print/pause")
}

// ResumePrint resumes a paused print.
func (c *Client) ResumePrint(ctx context.Context) error {
	return c.postEmpty(ctx, "/printer/print/resume")
}

// Info fetches printer identity/state via POST /printer/info.
func (c *Client) Info(ctx context.Context) (InfoResponse, error) {
	req, err := http.NewRequest(http.MethodPost, c.url("/printer/info"), nil)
	if err != nil {
		return InfoResponse{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return InfoResponse{}, err
	}
	defer resp.Body.Close()

	var envelope infoEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return InfoResponse{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	return envelope.Result, nil
}

// Status fetches the webhooks/virtual_sdcard/print_stats objects via
// GET /printer/objects/query.
func (c *Client) Status(ctx context.Context) (Status, error) {
	req, err := http.NewRequest(http.MethodGet,
		c.url("/printer/objects/query?webhooks&virtual_sdcard&print_stats"), nil)
	if err != nil {
		return Status{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	var envelope queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Status{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	return envelope.Result.Status, nil
}

// Upload pushes a gcode file into the gcodes root via
// POST /server/files/upload (multipart/form-data).
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("root", "gcodes"); err != nil {
		return UploadResponse{}, machineerr.Wrap(machineerr.Io, component, err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return UploadResponse{}, machineerr.Wrap(machineerr.Io, component, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadResponse{}, machineerr.Wrap(machineerr.Io, component, err)
	}
	if err := writer.Close(); err != nil {
		return UploadResponse{}, machineerr.Wrap(machineerr.Io, component, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.url("/server/files/upload"), &body)
	if err != nil {
		return UploadResponse{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.do(ctx, req)
	if err != nil {
		return UploadResponse{}, err
	}
	defer resp.Body.Close()

	var uploaded UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return UploadResponse{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	return uploaded, nil
}

// Get retrieves the raw contents of a gcode file.
func (c *Client) Get(ctx context.Context, filename string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.url("/server/files/gcodes/"+filename), nil)
	if err != nil {
		return nil, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, machineerr.Wrap(machineerr.Io, component, err)
	}
	return data, nil
}

// Temperatures fetches the extruder/heater_bed reading history via
// GET /server/temperature_store.
func (c *Client) Temperatures(ctx context.Context) (TemperatureReadings, error) {
	req, err := http.NewRequest(http.MethodGet, c.url("/server/temperature_store"), nil)
	if err != nil {
		return TemperatureReadings{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return TemperatureReadings{}, err
	}
	defer resp.Body.Close()

	var envelope temperatureReadingsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return TemperatureReadings{}, machineerr.Wrap(machineerr.Protocol, component, err)
	}
	return envelope.Result, nil
}

// Delete removes a gcode file from the gcodes root.
func (c *Client) Delete(ctx context.Context, filename string) error {
	req, err := http.NewRequest(http.MethodDelete, c.url("/server/files/gcodes/"+filename), nil)
	if err != nil {
		return machineerr.Wrap(machineerr.Protocol, component, err)
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
