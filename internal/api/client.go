// Package api implements the HTTP client for the chemical equipment REST
// API. All methods are context-aware and respect the shared rate limiter.
// Failed requests are never retried; the user retries by resubmitting.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/derickschaefer/eqviz/internal/config"
	"github.com/derickschaefer/eqviz/internal/credentials"
	"github.com/derickschaefer/eqviz/internal/model"
)

const (
	// UploadField is the multipart field name the API reads the CSV from.
	UploadField = "file"
)

// UserAgent is sent with every request. The CLI stamps its build version in.
var UserAgent = "eqviz-cli"

// Client is the equipment API HTTP client.
type Client struct {
	baseURL    string
	host       string
	httpClient *http.Client
	limiter    *rate.Limiter
	debug      bool
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, debug bool) *Client {
	if baseURL == "" {
		baseURL = config.DefaultAPIBase
	}
	if ratePerSec <= 0 {
		ratePerSec = config.DefaultRate
	}
	burst := int(ratePerSec)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		host:    config.APIHost(baseURL),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		debug:   debug,
	}
}

// BaseURL returns the API base without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// APIHost returns the host that report paths are relative to.
func (c *Client) APIHost() string { return c.host }

// ─── History ─────────────────────────────────────────────────────────────────

// FetchHistory retrieves the upload history, most recent first.
// With a nil auth it returns (nil, nil) without touching the network.
func (c *Client) FetchHistory(ctx context.Context, auth *credentials.AuthContext) (model.HistoryCollection, error) {
	if auth == nil {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("history/"), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	auth.Apply(req)

	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, &FetchError{Message: MsgFetchFailed, Err: err}
	}
	if !success(status) {
		return nil, &FetchError{Status: status, Message: firstNonEmpty(detail(body), MsgFetchFailed)}
	}

	var history model.HistoryCollection
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &history); err != nil {
			return nil, &FetchError{Status: status, Message: MsgFetchFailed, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}
	if history == nil {
		history = model.HistoryCollection{}
	}
	return history, nil
}

// ─── Upload ──────────────────────────────────────────────────────────────────

// SubmitUpload posts file as multipart form data and returns the dataset the
// server created for it.
func (c *Client) SubmitUpload(ctx context.Context, auth *credentials.AuthContext, file *model.UploadFile) (*model.DatasetRecord, error) {
	if auth == nil {
		return nil, &PreconditionError{Message: MsgCredentialsRequired}
	}
	if file == nil {
		return nil, &PreconditionError{Message: MsgFileRequired}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, file.Name)
	if err != nil {
		return nil, fmt.Errorf("encoding upload: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, fmt.Errorf("encoding upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("encoding upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload/"), &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	auth.Apply(req)

	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, &UploadError{Message: firstNonEmpty(err.Error(), MsgUploadFailed), Err: err}
	}
	if !success(status) {
		transport := fmt.Sprintf("Request failed with status code %d", status)
		return nil, &UploadError{Status: status, Message: firstNonEmpty(detail(body), transport, MsgUploadFailed)}
	}

	var resp struct {
		Message string               `json:"message"`
		Dataset *model.DatasetRecord `json:"dataset"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &UploadError{Status: status, Message: MsgUploadFailed, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if resp.Dataset == nil {
		return nil, &UploadError{Status: status, Message: MsgUploadFailed}
	}
	slog.Debug("upload accepted", "id", resp.Dataset.ID, "message", resp.Message)
	return resp.Dataset, nil
}

// ─── Reports ─────────────────────────────────────────────────────────────────

// ReportURL returns the absolute URL of a record's PDF report. Records
// without a summary_pdf path fall back to the per-dataset report endpoint
// when their ID is a UUID.
func (c *Client) ReportURL(rec model.DatasetRecord) (string, error) {
	if link := model.ReportLink(c.host, rec); link != "" {
		return link, nil
	}
	if u, ok := rec.ID.UUID(); ok {
		return c.endpoint("datasets/" + u.String() + "/report/"), nil
	}
	return "", &PreconditionError{Message: MsgReportUnavailable}
}

// DownloadReport fetches the PDF bytes for rec. auth may be nil for servers
// that serve media files publicly.
func (c *Client) DownloadReport(ctx context.Context, auth *credentials.AuthContext, rec model.DatasetRecord) ([]byte, error) {
	link, err := c.ReportURL(rec)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")
	if auth != nil {
		auth.Apply(req)
	}

	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, &FetchError{Message: MsgReportFailed, Err: err}
	}
	if !success(status) {
		return nil, &FetchError{Status: status, Message: firstNonEmpty(detail(body), MsgReportFailed)}
	}
	return body, nil
}

// ─── Low-level HTTP ───────────────────────────────────────────────────────────

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/" + path
}

// do sends req once, honouring the rate limiter, and returns the status code
// and full body. A non-nil error means no usable HTTP response was received.
func (c *Client) do(ctx context.Context, req *http.Request) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	req.Header.Set("User-Agent", UserAgent)

	if c.debug {
		slog.Debug("api request", "method", req.Method, "url", req.URL.Redacted())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading body: %w", err)
	}

	if c.debug {
		slog.Debug("api response", "status", resp.StatusCode, "bytes", len(body))
	}
	return resp.StatusCode, body, nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

// detail extracts the API's {"detail": "..."} message, if any.
func detail(body []byte) string {
	var apiErr struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return strings.TrimSpace(apiErr.Detail)
}
