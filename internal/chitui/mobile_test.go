package chitui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newMobileTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/mobile/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "hunter22" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized", "message": "Invalid password"})
				return
			}
			_ = json.NewEncoder(w).Encode(MobileLoginResult{Success: true, Token: "tok-1"})
		case "/api/mobile/printers":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized", "message": "Token missing or invalid"})
				return
			}
			_ = json.NewEncoder(w).Encode(MobilePrinters{
				Success:  true,
				Printers: map[string]Printer{"4f2d": {Name: "Saturn", Online: true}},
				Count:    1,
			})
		case "/api/mobile/refresh-token":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized"})
				return
			}
			_ = json.NewEncoder(w).Encode(MobileLoginResult{Success: true, Token: "tok-2"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMobileSession_LoginAndFetch(t *testing.T) {
	t.Parallel()

	server := newMobileTestServer(t)
	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	session := NewMobileSession(c)
	ctx := context.Background()

	if err := session.Login(ctx, "hunter22"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if session.Token() != "tok-1" {
		t.Fatalf("Token() = %q, want tok-1", session.Token())
	}

	printers, err := session.FetchPrinters(ctx)
	if err != nil {
		t.Fatalf("FetchPrinters returned error: %v", err)
	}
	if printers.Count != 1 || printers.Printers["4f2d"].Name != "Saturn" {
		t.Fatalf("FetchPrinters = %#v, want one Saturn", printers)
	}

	if err := session.RefreshToken(ctx); err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if session.Token() != "tok-2" {
		t.Fatalf("Token() after refresh = %q, want tok-2", session.Token())
	}
}

func TestMobileSession_RequiresLogin(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	session := NewMobileSession(c)
	_, err = session.FetchPrinters(context.Background())
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("FetchPrinters error = %v, want not logged in", err)
	}
}

func TestMobileSession_BadPassword(t *testing.T) {
	t.Parallel()

	server := newMobileTestServer(t)
	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	session := NewMobileSession(c)

	err = session.Login(context.Background(), "wrong")
	if err == nil || !strings.Contains(err.Error(), "Invalid password") {
		t.Fatalf("Login error = %v, want invalid password", err)
	}
	if session.Token() != "" {
		t.Fatalf("Token() = %q, want empty after failed login", session.Token())
	}
}
