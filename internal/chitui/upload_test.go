package chitui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempSliceFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestUpload_StreamsMultipartForm(t *testing.T) {
	t.Parallel()

	var gotPrinter, gotDestination, gotUploadID, gotFilename string
	var gotSize int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		gotPrinter = r.FormValue("printer")
		gotDestination = r.FormValue("destination")
		gotUploadID = r.FormValue("upload_id")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer func() { _ = file.Close() }()
		gotFilename = header.Filename
		data, _ := io.ReadAll(file)
		gotSize = len(data)

		_ = json.NewEncoder(w).Encode(UploadResult{
			Upload:   "success",
			UploadID: gotUploadID,
			Filename: header.Filename,
		})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	path := writeTempSliceFile(t, "benchy.goo", 4096)
	var lastSent, lastTotal int64
	result, err := c.Upload(context.Background(), UploadRequest{
		Path:        path,
		PrinterID:   "4f2d",
		Destination: DestinationLocal,
		OnProgress: func(sent, total int64) {
			lastSent, lastTotal = sent, total
		},
	})
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if !result.Succeeded() || result.Filename != "benchy.goo" {
		t.Fatalf("Upload result = %#v, want success for benchy.goo", result)
	}
	if gotPrinter != "4f2d" || gotDestination != DestinationLocal {
		t.Fatalf("form fields = printer %q destination %q, want 4f2d/local", gotPrinter, gotDestination)
	}
	if gotUploadID == "" {
		t.Fatal("upload_id was empty, want generated UUID")
	}
	if result.UploadID != gotUploadID {
		t.Fatalf("result upload id = %q, want %q", result.UploadID, gotUploadID)
	}
	if gotFilename != "benchy.goo" || gotSize != 4096 {
		t.Fatalf("received file %q of %d bytes, want benchy.goo with 4096", gotFilename, gotSize)
	}
	if lastSent != 4096 || lastTotal != 4096 {
		t.Fatalf("progress = %d/%d, want 4096/4096", lastSent, lastTotal)
	}
}

func TestUpload_RejectsUnknownExtension(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	path := writeTempSliceFile(t, "notes.txt", 10)
	_, err = c.Upload(context.Background(), UploadRequest{Path: path, PrinterID: "x"})
	if err == nil || !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("Upload error = %v, want file type rejection", err)
	}
}

func TestUpload_BusyServerReturns429(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"upload": "error", "msg": "busy"})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	path := writeTempSliceFile(t, "benchy.ctb", 64)
	_, err = c.Upload(context.Background(), UploadRequest{Path: path, PrinterID: "4f2d"})
	if err == nil || !strings.Contains(err.Error(), "already in progress") {
		t.Fatalf("Upload error = %v, want busy error", err)
	}
}

func TestUpload_ServerRejectionSurfacesMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(UploadResult{Upload: "error", Msg: "No printer selected."})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	path := writeTempSliceFile(t, "benchy.prz", 64)
	result, err := c.Upload(context.Background(), UploadRequest{Path: path})
	if err == nil || !strings.Contains(err.Error(), "No printer selected") {
		t.Fatalf("Upload error = %v, want rejection message", err)
	}
	if result.Succeeded() {
		t.Fatalf("result = %#v, want unsuccessful", result)
	}
}

func TestAllowedUploadFile(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"print.ctb", true},
		{"PRINT.GOO", true},
		{"a.prz", true},
		{"a.stl", false},
		{"noext", false},
	}
	for _, tc := range cases {
		if got := AllowedUploadFile(tc.name); got != tc.want {
			t.Errorf("AllowedUploadFile(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWatchProgress_FollowsStreamToCompletion(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("upload_id") != "abc" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, pct := range []int{0, 40, 80, 100} {
			fmt.Fprintf(w, "data:%d\n\n", pct)
			flusher.Flush()
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	var samples []int
	err = c.WatchProgress(context.Background(), "abc", func(pct int) {
		samples = append(samples, pct)
	})
	if err != nil {
		t.Fatalf("WatchProgress returned error: %v", err)
	}
	if len(samples) != 4 || samples[3] != 100 {
		t.Fatalf("samples = %v, want 0..100", samples)
	}
}
