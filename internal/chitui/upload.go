package chitui

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Upload destinations the server routes on.
const (
	DestinationUSB   = "usb"
	DestinationLocal = "local"
)

// allowedUploadExt mirrors the server's accepted slicer formats.
var allowedUploadExt = map[string]struct{}{
	".ctb": {},
	".goo": {},
	".prz": {},
}

// AllowedUploadFile reports whether the filename carries an extension the
// server accepts.
func AllowedUploadFile(name string) bool {
	_, ok := allowedUploadExt[strings.ToLower(filepath.Ext(name))]
	return ok
}

// UploadRequest describes a slicer file upload.
type UploadRequest struct {
	// Path is the local file to send.
	Path string
	// PrinterID targets a saved printer.
	PrinterID string
	// Destination is "usb" or "local"; empty defaults to "usb".
	Destination string
	// UploadID correlates progress reporting; generated when empty.
	UploadID string
	// OnProgress, when set, receives local send progress in bytes.
	OnProgress func(sent, total int64)
}

// Upload streams a slicer file to POST /upload without buffering it in
// memory. The returned result carries the upload ID used for progress
// correlation (SSE and the upload_progress realtime event).
func (c *Client) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if !AllowedUploadFile(req.Path) {
		return UploadResult{}, fmt.Errorf("upload %s: file type not allowed (want .ctb, .goo or .prz)", filepath.Base(req.Path))
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	file, err := os.Open(req.Path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	uploadID := req.UploadID
	if uploadID == "" {
		uploadID = uuid.NewString()
	}
	destination := req.Destination
	if destination == "" {
		destination = DestinationUSB
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	total := info.Size()

	go func() {
		err := writeUploadForm(form, file, filepath.Base(req.Path), req.PrinterID, destination, uploadID, total, req.OnProgress)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.Close()
	}()

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/upload"})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), pr)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return UploadResult{}, fmt.Errorf("execute upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return UploadResult{}, fmt.Errorf("upload: another upload is already in progress")
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if resp.StatusCode >= 400 {
			return UploadResult{}, &StatusError{Path: "/upload", StatusCode: resp.StatusCode}
		}
		return UploadResult{}, fmt.Errorf("decode response: %w", err)
	}
	if !result.Succeeded() {
		return result, fmt.Errorf("upload rejected: %s", result.Msg)
	}
	return result, nil
}

func writeUploadForm(form *multipart.Writer, file io.Reader, filename, printerID, destination, uploadID string, total int64, onProgress func(sent, total int64)) error {
	if err := form.WriteField("printer", printerID); err != nil {
		return err
	}
	if err := form.WriteField("destination", destination); err != nil {
		return err
	}
	if err := form.WriteField("upload_id", uploadID); err != nil {
		return err
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	src := file
	if onProgress != nil {
		src = &countingReader{r: file, total: total, report: onProgress}
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return form.Close()
}

// countingReader reports cumulative bytes read to a callback.
type countingReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report func(sent, total int64)
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.sent += int64(n)
		cr.report(cr.sent, cr.total)
	}
	return n, err
}

// WatchProgress follows the server-sent event stream at /progress for one
// upload ID, invoking fn with each percentage sample. It returns when the
// server reports 100, the stream ends, or ctx is done. Frames look like
// "data:<percent>" followed by a blank line.
func (c *Client) WatchProgress(ctx context.Context, uploadID string, fn func(percent int)) error {
	rel := &url.URL{
		Path:     "/progress",
		RawQuery: url.Values{"upload_id": {uploadID}}.Encode(),
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newStatusError(rel.Path, resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		value := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		percent, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		fn(percent)
		if percent >= 100 {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		// Context cancellation surfaces as a read error on the body.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read progress stream: %w", err)
	}
	return nil
}
