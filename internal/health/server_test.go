package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func getReady(t *testing.T, s *Server) (int, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return w.Code, resp
}

func TestServer_handleHealth(t *testing.T) {
	s := New(0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("expected status %q, got %q", StatusHealthy, resp.Status)
	}
}

func TestServer_handleReady(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("no public address yet") }
	plaintext := func(context.Context) (bool, string) { return true, "credentials stored unencrypted" }
	fine := func(context.Context) (bool, string) { return false, "" }

	tests := []struct {
		name         string
		checkers     map[string]HealthChecker
		degraded     map[string]DegradedChecker
		wantCode     int
		wantStatus   string
		wantDegraded int
	}{
		{
			name:       "no checkers",
			wantCode:   http.StatusOK,
			wantStatus: StatusReady,
		},
		{
			name:       "all healthy",
			checkers:   map[string]HealthChecker{"updater": healthy, "resolver": healthy},
			degraded:   map[string]DegradedChecker{"settings": fine},
			wantCode:   http.StatusOK,
			wantStatus: StatusReady,
		},
		{
			name:         "degraded but healthy",
			checkers:     map[string]HealthChecker{"updater": healthy},
			degraded:     map[string]DegradedChecker{"settings": plaintext},
			wantCode:     http.StatusOK,
			wantStatus:   StatusDegraded,
			wantDegraded: 1,
		},
		{
			name:         "unhealthy wins over degraded",
			checkers:     map[string]HealthChecker{"updater": failing, "resolver": healthy},
			degraded:     map[string]DegradedChecker{"settings": plaintext},
			wantCode:     http.StatusServiceUnavailable,
			wantStatus:   StatusNotReady,
			wantDegraded: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(0)
			for name, c := range tc.checkers {
				s.RegisterChecker(name, c)
			}
			for name, c := range tc.degraded {
				s.RegisterDegradedChecker(name, c)
			}

			code, resp := getReady(t, s)

			if code != tc.wantCode {
				t.Errorf("expected status %d, got %d", tc.wantCode, code)
			}
			if resp.Status != tc.wantStatus {
				t.Errorf("expected status %q, got %q", tc.wantStatus, resp.Status)
			}
			if len(resp.Components) != len(tc.checkers) {
				t.Errorf("expected %d components, got %d", len(tc.checkers), len(resp.Components))
			}
			if len(resp.Degraded) != tc.wantDegraded {
				t.Errorf("expected %d degraded, got %d", tc.wantDegraded, len(resp.Degraded))
			}
		})
	}
}

func TestServer_handleReady_SortedComponents(t *testing.T) {
	s := New(0)
	for _, name := range []string{"updater", "resolver", "dyndns"} {
		s.RegisterChecker(name, func(context.Context) error { return nil })
	}

	_, resp := getReady(t, s)

	var names []string
	for _, c := range resp.Components {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "dyndns,resolver,updater" {
		t.Errorf("components = %s, want sorted", got)
	}
}

func TestServer_handleReady_ErrorMessage(t *testing.T) {
	s := New(0)
	s.RegisterChecker("updater", func(context.Context) error { return errors.New("connection refused") })

	_, resp := getReady(t, s)

	if len(resp.Components) != 1 || resp.Components[0].Healthy || resp.Components[0].Error != "connection refused" {
		t.Errorf("components = %+v", resp.Components)
	}
}

func TestServer_handleReady_Timeout(t *testing.T) {
	s := New(0, WithTimeout(50*time.Millisecond))

	s.RegisterChecker("updater", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	code, resp := getReady(t, s)

	if code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", code)
	}
	if resp.Status != StatusNotReady {
		t.Errorf("expected status %q, got %q", StatusNotReady, resp.Status)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	s := New(0)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}()

	port := s.Addr().(*net.TCPAddr).Port
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("expected default Go collector metrics")
	}
}

func TestServer_StartPortInUse(t *testing.T) {
	first := New(0)
	if err := first.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer first.Shutdown(context.Background())

	second := New(first.Addr().(*net.TCPAddr).Port)
	if err := second.Start(); err == nil {
		second.Shutdown(context.Background())
		t.Error("expected error for port in use")
	}
}

func TestServer_ShutdownWithoutStart(t *testing.T) {
	if err := New(0).Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
