package chitui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultServerBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultServerBind)
	}

	u, err = parseBaseURL("http://pi.local:8080/some/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_LoginKeepsSessionCookie(t *testing.T) {
	t.Parallel()

	var statusSawCookie bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode login body: %v", err)
			}
			if body["password"] != "hunter22" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid password"})
				return
			}
			// The server issues its session cookie with Path=/ so it
			// covers every endpoint, not just /auth.
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
			_ = json.NewEncoder(w).Encode(LoginResult{Success: true, RequirePasswordChange: true})
		case "/status":
			cookie, err := r.Cookie("session")
			statusSawCookie = err == nil && cookie.Value == "abc123"
			_ = json.NewEncoder(w).Encode(ServerStatus{CameraSupport: true})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	result, err := c.Login(ctx, "hunter22")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if !result.Success || !result.RequirePasswordChange {
		t.Fatalf("Login result = %#v, want success with password change flag", result)
	}

	status, err := c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if !status.CameraSupport {
		t.Fatalf("FetchStatus = %#v, want camera support", status)
	}
	if !statusSawCookie {
		t.Fatal("session cookie was not replayed on the follow-up request")
	}
}

func TestClient_LoginRejectedSurfacesMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid password"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.Login(context.Background(), "wrong")
	if err == nil {
		t.Fatal("Login returned nil error, want 401 error")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Login error = %v, want StatusError", err)
	}
	if se.StatusCode != http.StatusUnauthorized || se.Message != "Invalid password" {
		t.Fatalf("StatusError = %#v, want 401 with server message", se)
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	var reorderBody map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/settings":
			_ = json.NewEncoder(w).Encode(Settings{
				Printers: map[string]SavedPrinter{
					"4f2d": {IP: "192.168.1.50", Name: "Saturn", Enabled: true},
				},
				AutoDiscover:   true,
				DefaultPrinter: "4f2d",
			})
		case "/usb-gadget/storage":
			_ = json.NewEncoder(w).Encode(StorageInfo{Success: true, Available: true, Total: 1000, Used: 400, Free: 600, Percent: 40})
		case "/plugins":
			_ = json.NewEncoder(w).Encode([]PluginInfo{{ID: "rpi_stats", Name: "RPi Stats", Enabled: true, Loaded: true}})
		case "/plugins/order":
			_ = json.NewDecoder(r.Body).Decode(&reorderBody)
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		case "/printer/images":
			_ = json.NewEncoder(w).Encode(PrinterImages{Success: true, Images: []string{"mars.png", "saturn.webp"}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	settings, err := c.FetchSettings(ctx)
	if err != nil {
		t.Fatalf("FetchSettings returned error: %v", err)
	}
	if settings.DefaultPrinter != "4f2d" || len(settings.Printers) != 1 {
		t.Fatalf("FetchSettings = %#v, want one printer with default 4f2d", settings)
	}

	storage, err := c.FetchUSBStorage(ctx)
	if err != nil {
		t.Fatalf("FetchUSBStorage returned error: %v", err)
	}
	if storage.Percent != 40 || !storage.Available {
		t.Fatalf("FetchUSBStorage = %#v, want 40%% used", storage)
	}

	plugins, err := c.Plugins(ctx)
	if err != nil {
		t.Fatalf("Plugins returned error: %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != "rpi_stats" {
		t.Fatalf("Plugins = %#v, want rpi_stats", plugins)
	}

	if err := c.ReorderPlugins(ctx, []string{"rpi_stats", "ip_camera"}); err != nil {
		t.Fatalf("ReorderPlugins returned error: %v", err)
	}
	if len(reorderBody["order"]) != 2 || reorderBody["order"][0] != "rpi_stats" {
		t.Fatalf("reorder body = %#v, want order list", reorderBody)
	}

	images, err := c.FetchPrinterImages(ctx)
	if err != nil {
		t.Fatalf("FetchPrinterImages returned error: %v", err)
	}
	if len(images) != 2 || images[0] != "mars.png" {
		t.Fatalf("FetchPrinterImages = %#v, want two images", images)
	}

	if gotUserAgent == "" || !strings.HasPrefix(gotUserAgent, "chitview/") {
		t.Fatalf("User-Agent = %q, want chitview/*", gotUserAgent)
	}
}

func TestClient_DiscoverTreats404AsEmpty(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "No printers discovered"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	result, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if result.Success || result.Count != 0 {
		t.Fatalf("Discover = %#v, want empty unsuccessful scan", result)
	}
	if result.Message != "No printers discovered" {
		t.Fatalf("Discover message = %q, want server message", result.Message)
	}
}

func TestClient_PrinterLifecycle(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	var defaultBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		switch {
		case r.URL.Path == "/printer/manual":
			var req ManualPrinterRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			_ = json.NewEncoder(w).Encode(ManualPrinterResult{
				Success:   true,
				PrinterID: "f00d",
				Printer:   Printer{IP: req.IP, Name: req.Name, USBDeviceType: req.USBDeviceType},
			})
		case r.URL.Path == "/printer/default":
			_ = json.NewDecoder(r.Body).Decode(&defaultBody)
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		default:
			_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	added, err := c.AddPrinter(ctx, ManualPrinterRequest{IP: "192.168.1.77", Name: "Mars", USBDeviceType: USBDevicePhysical})
	if err != nil {
		t.Fatalf("AddPrinter returned error: %v", err)
	}
	if added.PrinterID != "f00d" || added.Printer.IP != "192.168.1.77" {
		t.Fatalf("AddPrinter = %#v, want echoed printer with id", added)
	}

	if err := c.UpdatePrinter(ctx, "f00d", ManualPrinterRequest{IP: "192.168.1.77", Name: "Mars 4"}); err != nil {
		t.Fatalf("UpdatePrinter returned error: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/printer/f00d" {
		t.Fatalf("UpdatePrinter sent %s %s, want PUT /printer/f00d", gotMethod, gotPath)
	}

	if err := c.SetDefaultPrinter(ctx, "f00d"); err != nil {
		t.Fatalf("SetDefaultPrinter returned error: %v", err)
	}
	if defaultBody["printer_id"] != "f00d" {
		t.Fatalf("default body = %#v, want printer_id f00d", defaultBody)
	}

	if err := c.RemovePrinter(ctx, "f00d"); err != nil {
		t.Fatalf("RemovePrinter returned error: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/printer/f00d" {
		t.Fatalf("RemovePrinter sent %s %s, want DELETE /printer/f00d", gotMethod, gotPath)
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/settings":
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "settings file corrupt"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchStatus(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStatus error = %v, want decode response error", err)
	}

	_, err = c.FetchSettings(context.Background())
	if err == nil || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchSettings error = %v, want status 500 error", err)
	}
	if !strings.Contains(err.Error(), "settings file corrupt") {
		t.Fatalf("FetchSettings error = %v, want server message included", err)
	}
}

func TestClient_ThumbnailURL(t *testing.T) {
	c, err := NewClient("pi.local:8080")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	got := c.ThumbnailURL("4f2d", "http://192.168.1.50:3030/thumb/cone.png")
	want := "http://pi.local:8080/thumbnail/4f2d?url=http%3A%2F%2F192.168.1.50%3A3030%2Fthumb%2Fcone.png"
	if got != want {
		t.Fatalf("ThumbnailURL = %q, want %q", got, want)
	}
}
