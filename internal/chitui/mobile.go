package chitui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// MobileSession talks to the server's token-authenticated mobile API.
// Tokens are issued and verified server-side; the session only stores and
// presents them.
type MobileSession struct {
	client *Client

	mu    sync.Mutex
	token string
}

// MobileLoginResult mirrors POST /api/mobile/login.
type MobileLoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
}

// MobilePrinters mirrors GET /api/mobile/printers.
type MobilePrinters struct {
	Success  bool               `json:"success"`
	Printers map[string]Printer `json:"printers"`
	Count    int                `json:"count"`
}

// MobileStatus mirrors GET /api/mobile/status.
type MobileStatus struct {
	Success bool         `json:"success"`
	Status  ServerStatus `json:"status"`
}

// NewMobileSession wraps an existing client with token auth.
func NewMobileSession(client *Client) *MobileSession {
	return &MobileSession{client: client}
}

// Token returns the currently held bearer token, empty before login.
func (s *MobileSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Login exchanges the password for a bearer token.
func (s *MobileSession) Login(ctx context.Context, password string) error {
	var result MobileLoginResult
	body := map[string]string{"password": password}
	if err := s.client.post(ctx, "/api/mobile/login", body, &result); err != nil {
		return fmt.Errorf("mobile login: %w", err)
	}
	if !result.Success || result.Token == "" {
		return fmt.Errorf("mobile login: server issued no token")
	}
	s.mu.Lock()
	s.token = result.Token
	s.mu.Unlock()
	return nil
}

// RefreshToken trades the held token for a fresh one before it expires.
func (s *MobileSession) RefreshToken(ctx context.Context) error {
	var result MobileLoginResult
	if err := s.doAuthed(ctx, http.MethodPost, "/api/mobile/refresh-token", &result); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if !result.Success || result.Token == "" {
		return fmt.Errorf("refresh token: server issued no token")
	}
	s.mu.Lock()
	s.token = result.Token
	s.mu.Unlock()
	return nil
}

// FetchPrinters lists printers through the mobile API.
func (s *MobileSession) FetchPrinters(ctx context.Context) (MobilePrinters, error) {
	var payload MobilePrinters
	if err := s.doAuthed(ctx, http.MethodGet, "/api/mobile/printers", &payload); err != nil {
		return MobilePrinters{}, err
	}
	return payload, nil
}

// FetchStatus reads server status through the mobile API.
func (s *MobileSession) FetchStatus(ctx context.Context) (MobileStatus, error) {
	var payload MobileStatus
	if err := s.doAuthed(ctx, http.MethodGet, "/api/mobile/status", &payload); err != nil {
		return MobileStatus{}, err
	}
	return payload, nil
}

func (s *MobileSession) doAuthed(ctx context.Context, method, path string, dest any) error {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return fmt.Errorf("mobile api: not logged in")
	}

	rel := &url.URL{Path: path}
	reqURL := s.client.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.client.userAgent)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newStatusError(path, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
