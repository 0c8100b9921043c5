// Package client is the Go client for the bulk-import API. It mirrors the
// server's validation pipeline locally so files can be reviewed before any
// bytes leave the machine, then submits the original file as-is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/session"
	"github.com/internhub/bulkimport/internal/spreadsheet"
)

// genericImportError is shown when the server's error body cannot be decoded.
const genericImportError = "could not import data, please try again"

// ErrJobFailed is returned when a polled background job reports failure.
var ErrJobFailed = errors.New("import job failed")

// Client talks to the import service on behalf of a logged-in user.
type Client struct {
	baseURL string
	httpc   *http.Client
	sess    *session.Session
	apiKey  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithAPIKey sets the X-API-Key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New creates a Client for the service at baseURL, acting as sess's user.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 60 * time.Second},
		sess:    sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseFile reads and parses a spreadsheet from disk, returning both the
// parsed sheet and the raw bytes for later submission.
func ParseFile(path string) (*spreadsheet.Sheet, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	sheet, err := spreadsheet.Parse(filepath.Base(path), data)
	if err != nil {
		return nil, nil, err
	}
	return sheet, data, nil
}

// Validate runs a sheet through the variant's rule set locally, without
// contacting the server. Same rules, same messages.
func (c *Client) Validate(variant string, sheet *spreadsheet.Sheet) (*importer.Result, error) {
	rs, ok := importer.Get(variant)
	if !ok {
		return nil, fmt.Errorf("unknown import variant: %s", variant)
	}
	return importer.Validate(rs, sheet.Headers, sheet.Rows)
}

// SubmitRequest describes one file submission.
type SubmitRequest struct {
	Variant     string
	FileName    string
	FileData    []byte // original bytes, sent unmodified
	Institution string // optional override, resolved against the session
	Async       bool
	Progress    func(sent, total int64) // optional upload progress callback
}

// Submit uploads a file to the import endpoint. Synchronous submissions
// return the full outcome envelope; asynchronous ones return an envelope
// carrying only the job id, to be polled with PollJob.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*importer.UploadResult, error) {
	institutionID, err := c.sess.InstitutionID(req.Institution)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(req.FileData); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	mw.WriteField("institutionId", institutionID)
	if req.Async {
		mw.WriteField("async", "true")
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	var body io.Reader = &buf
	if req.Progress != nil {
		body = newProgressReader(&buf, int64(buf.Len()), req.Progress)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/import/"+req.Variant, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		var result importer.UploadResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &result, nil
	default:
		return nil, decodeAPIError(resp)
	}
}

// PollJob polls a background job until it finishes and returns its result.
func (c *Client) PollJob(ctx context.Context, jobID string, interval time.Duration) (*importer.UploadResult, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.JobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		switch job.Status {
		case "completed":
			return job.Result, nil
		case "failed":
			return nil, fmt.Errorf("%w: %s", ErrJobFailed, job.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// JobState is the client view of a background import job.
type JobState struct {
	ID     string                 `json:"id"`
	Status string                 `json:"status"`
	Error  string                 `json:"error,omitempty"`
	Result *importer.UploadResult `json:"result,omitempty"`
}

// JobStatus fetches the current state of a background job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*JobState, error) {
	var job JobState
	if err := c.getJSON(ctx, "/api/jobs/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Rollback deletes every record a job inserted and returns the count.
func (c *Client) Rollback(ctx context.Context, jobID string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/jobs/"+jobID+"/rollback", nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, decodeAPIError(resp)
	}
	var out map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return out["deleted"], nil
}

// DownloadTemplate saves the variant's empty .xlsx template to destPath.
func (c *Client) DownloadTemplate(ctx context.Context, variant, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/template/"+variant, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}

// do sends the request with session and API key headers attached.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if c.sess != nil && c.sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.sess.Token)
	}
	return c.httpc.Do(req)
}

// getJSON fetches path and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError extracts the server's error message, falling back to a
// generic one when the body is not the expected JSON shape.
func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return fmt.Errorf("%s (HTTP %d)", genericImportError, resp.StatusCode)
	}
	return fmt.Errorf("%s (HTTP %d)", body.Error, resp.StatusCode)
}
