// Package chitui implements a client for the ChitUI printer-management
// server's HTTP and realtime contracts.
package chitui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// StatusSource defines the read-side calls the background poller needs.
// This interface is implemented by *Client and can be used for testing.
type StatusSource interface {
	FetchStatus(ctx context.Context) (ServerStatus, error)
	FetchUSBStorage(ctx context.Context) (StorageInfo, error)
}

// Ensure Client implements StatusSource at compile time.
var _ StatusSource = (*Client)(nil)

// Client talks to the ChitUI HTTP API. The server authenticates browser
// clients with a session cookie, so the client carries a cookie jar; all
// methods are safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	stream    *http.Client
	userAgent string
}

const (
	defaultServerBind = "127.0.0.1:8080"
	defaultUserAgent  = "chitview/0.2"
	requestTimeout    = 10 * time.Second
)

// StatusError reports a non-2xx response, with the server's message when
// one was present in the body.
type StatusError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
}

// NewClient builds a Client for the given server host:port or URL.
func NewClient(serverURL string) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		// Uploads, SSE and MJPEG outlive any sane request timeout; the
		// stream client relies on context cancellation instead.
		stream: &http.Client{
			Jar: jar,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Login authenticates the session. The issued cookie stays in the jar for
// all subsequent calls.
func (c *Client) Login(ctx context.Context, password string) (LoginResult, error) {
	var result LoginResult
	body := map[string]string{"password": password}
	if err := c.post(ctx, "/auth/login", body, &result); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	return result, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.post(ctx, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ChangePassword rotates the server password. The server enforces a
// minimum length of 8 and rejects well-known weak passwords.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{
		"current_password": current,
		"new_password":     next,
	}
	var result actionResult
	if err := c.post(ctx, "/auth/change-password", body, &result); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// FetchSessionTimeout reads the inactivity timeout in seconds (0 = none).
func (c *Client) FetchSessionTimeout(ctx context.Context) (int, error) {
	var payload SessionTimeout
	if err := c.get(ctx, "/auth/session-timeout", &payload); err != nil {
		return 0, err
	}
	return payload.Timeout, nil
}

// SetSessionTimeout updates the inactivity timeout in seconds.
func (c *Client) SetSessionTimeout(ctx context.Context, seconds int) error {
	return c.post(ctx, "/auth/session-timeout", SessionTimeout{Timeout: seconds}, nil)
}

// FetchStatus retrieves server status (USB gadget, folders, camera support).
func (c *Client) FetchStatus(ctx context.Context) (ServerStatus, error) {
	var payload ServerStatus
	if err := c.get(ctx, "/status", &payload); err != nil {
		return ServerStatus{}, err
	}
	return payload, nil
}

// FetchSettings retrieves the server settings with the auth block trimmed
// to the password-change flag.
func (c *Client) FetchSettings(ctx context.Context) (Settings, error) {
	var payload Settings
	if err := c.get(ctx, "/settings", &payload); err != nil {
		return Settings{}, err
	}
	return payload, nil
}

// UpdateSettings replaces the server settings.
func (c *Client) UpdateSettings(ctx context.Context, settings Settings) error {
	return c.post(ctx, "/settings", settings, nil)
}

// Discover asks the server to scan for printers. A 404 means the scan ran
// but found nothing, which is a result, not a failure.
func (c *Client) Discover(ctx context.Context) (DiscoverResult, error) {
	var payload DiscoverResult
	err := c.post(ctx, "/discover", nil, &payload)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return DiscoverResult{Success: false, Message: se.Message}, nil
		}
		return DiscoverResult{}, err
	}
	return payload, nil
}

// FetchPrinterImages lists the printer artwork filenames the server ships.
func (c *Client) FetchPrinterImages(ctx context.Context) ([]string, error) {
	var payload PrinterImages
	if err := c.get(ctx, "/printer/images", &payload); err != nil {
		return nil, err
	}
	return payload.Images, nil
}

// AddPrinter registers a printer by IP without discovery. The server
// derives the printer ID from the IP; the client treats it as opaque.
func (c *Client) AddPrinter(ctx context.Context, req ManualPrinterRequest) (ManualPrinterResult, error) {
	var payload ManualPrinterResult
	if err := c.post(ctx, "/printer/manual", req, &payload); err != nil {
		return ManualPrinterResult{}, fmt.Errorf("add printer: %w", err)
	}
	return payload, nil
}

// UpdatePrinter edits a saved printer.
func (c *Client) UpdatePrinter(ctx context.Context, printerID string, req ManualPrinterRequest) error {
	rel := &url.URL{Path: "/printer/" + printerID}
	if err := c.doJSON(ctx, http.MethodPut, rel, req, nil); err != nil {
		return fmt.Errorf("update printer: %w", err)
	}
	return nil
}

// RemovePrinter deletes a saved printer.
func (c *Client) RemovePrinter(ctx context.Context, printerID string) error {
	rel := &url.URL{Path: "/printer/" + printerID}
	if err := c.doJSON(ctx, http.MethodDelete, rel, nil, nil); err != nil {
		return fmt.Errorf("remove printer: %w", err)
	}
	return nil
}

// SetDefaultPrinter marks a printer as the server-side default.
func (c *Client) SetDefaultPrinter(ctx context.Context, printerID string) error {
	body := map[string]string{"printer_id": printerID}
	if err := c.post(ctx, "/printer/default", body, nil); err != nil {
		return fmt.Errorf("set default printer: %w", err)
	}
	return nil
}

// FetchUSBStorage reads virtual USB drive usage.
func (c *Client) FetchUSBStorage(ctx context.Context) (StorageInfo, error) {
	var payload StorageInfo
	if err := c.get(ctx, "/usb-gadget/storage", &payload); err != nil {
		return StorageInfo{}, err
	}
	return payload, nil
}

// RefreshUSBGadget re-exports the virtual USB drive so printers pick up
// newly written files.
func (c *Client) RefreshUSBGadget(ctx context.Context) error {
	return c.post(ctx, "/usb-gadget/refresh", nil, nil)
}

// Restart restarts the server process.
func (c *Client) Restart(ctx context.Context) error {
	return c.post(ctx, "/maintenance/restart", nil, nil)
}

// Reboot reboots the server host.
func (c *Client) Reboot(ctx context.Context) error {
	return c.post(ctx, "/maintenance/reboot", nil, nil)
}

// Plugins lists installed server plugins.
func (c *Client) Plugins(ctx context.Context) ([]PluginInfo, error) {
	var payload []PluginInfo
	if err := c.get(ctx, "/plugins", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// EnablePlugin turns a plugin on. The server may require a restart for the
// change to fully apply.
func (c *Client) EnablePlugin(ctx context.Context, pluginID string) error {
	return c.post(ctx, "/plugins/"+pluginID+"/enable", nil, nil)
}

// DisablePlugin turns a plugin off.
func (c *Client) DisablePlugin(ctx context.Context, pluginID string) error {
	return c.post(ctx, "/plugins/"+pluginID+"/disable", nil, nil)
}

// ReorderPlugins sets the plugin display order.
func (c *Client) ReorderPlugins(ctx context.Context, order []string) error {
	body := map[string][]string{"order": order}
	return c.post(ctx, "/plugins/order", body, nil)
}

// DeletePlugin uninstalls a plugin.
func (c *Client) DeletePlugin(ctx context.Context, pluginID string) error {
	return c.post(ctx, "/plugins/"+pluginID+"/delete", nil, nil)
}

// ThumbnailURL builds the server-side proxy URL for a printer-hosted
// thumbnail. The server fetches the remote URL itself to dodge CORS.
func (c *Client) ThumbnailURL(printerID, remoteURL string) string {
	rel := &url.URL{
		Path:     "/thumbnail/" + printerID,
		RawQuery: url.Values{"url": {remoteURL}}.Encode(),
	}
	return c.baseURL.ResolveReference(rel).String()
}

// GetJSON issues a GET against an arbitrary server path and decodes the
// JSON response into dest. Plugin routes live outside the core API, so
// their clients build on this instead of dedicated methods.
func (c *Client) GetJSON(ctx context.Context, path string, dest any) error {
	return c.get(ctx, path, dest)
}

// PostJSON issues a POST with a JSON body against an arbitrary server path.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest any) error {
	return c.post(ctx, path, body, dest)
}

// OpenStream issues a GET on the long-lived client, for responses that
// outlive the normal request timeout. The caller owns the response body.
func (c *Client) OpenStream(ctx context.Context, path string) (*http.Response, error) {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newStatusError(rel.Path, resp)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	rel := &url.URL{Path: path}
	return c.doJSON(ctx, http.MethodGet, rel, nil, dest)
}

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doJSON(ctx, http.MethodPost, rel, body, dest)
}

func (c *Client) doJSON(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newStatusError(rel.Path, resp)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// newStatusError drains a bounded amount of the error body looking for the
// server's message field.
func newStatusError(path string, resp *http.Response) *StatusError {
	se := &StatusError{Path: path, StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return se
	}
	var body struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return se
	}
	switch {
	case body.Message != "":
		se.Message = body.Message
	case body.Msg != "":
		se.Message = body.Msg
	case body.Error != "":
		se.Message = body.Error
	}
	return se
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	if trimmed == "" {
		trimmed = defaultServerBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
