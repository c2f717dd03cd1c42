package dyndns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/HolgerKuehn/DynDNSClient/pkg/httputil"
	"github.com/HolgerKuehn/DynDNSClient/pkg/secret"
)

func testCredential(t *testing.T) Credential {
	t.Helper()
	password, err := secret.NewProtected([]byte("s3cret"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(password.Destroy)
	return Credential{Username: "alice", Password: password}
}

func TestClient_Update(t *testing.T) {
	ip := netip.MustParseAddr("203.0.113.7")

	var gotPath, gotHost, gotIP, gotUser, gotPass, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHost = r.URL.Query().Get("hostname")
		gotIP = r.URL.Query().Get("myip")
		gotUser, gotPass, _ = r.BasicAuth()
		gotUA = r.UserAgent()
		fmt.Fprint(w, "good 203.0.113.7\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", testCredential(t))
	result, err := client.Update(context.Background(), "home.example.com", ip)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if gotPath != UpdatePath {
		t.Errorf("path = %q, want %q", gotPath, UpdatePath)
	}
	if gotHost != "home.example.com" || gotIP != "203.0.113.7" {
		t.Errorf("query hostname=%q myip=%q", gotHost, gotIP)
	}
	if gotUser != "alice" || gotPass != "s3cret" {
		t.Errorf("basic auth = %q/%q", gotUser, gotPass)
	}
	if gotUA != httputil.DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, httputil.DefaultUserAgent)
	}

	if result.Status != StatusUpdated || result.Hostname != "home.example.com" || result.Address != ip {
		t.Errorf("result = %+v", result)
	}
}

func TestClient_UpdateResponses(t *testing.T) {
	sent := netip.MustParseAddr("203.0.113.7")

	tests := []struct {
		name       string
		statusCode int
		body       string
		wantStatus Status
		wantAddr   netip.Addr
		wantErr    error
	}{
		{
			name:       "good",
			statusCode: http.StatusOK,
			body:       "good 203.0.113.7",
			wantStatus: StatusUpdated,
			wantAddr:   sent,
		},
		{
			name:       "nochg",
			statusCode: http.StatusOK,
			body:       "nochg 203.0.113.7\n",
			wantStatus: StatusUnchanged,
			wantAddr:   sent,
		},
		{
			name:       "good echoes a different address",
			statusCode: http.StatusOK,
			body:       "good 198.51.100.1",
			wantStatus: StatusUpdated,
			wantAddr:   netip.MustParseAddr("198.51.100.1"),
		},
		{
			name:       "good without address",
			statusCode: http.StatusOK,
			body:       "good",
			wantStatus: StatusUpdated,
			wantAddr:   sent,
		},
		{
			name:       "code is case insensitive",
			statusCode: http.StatusOK,
			body:       "NOCHG 203.0.113.7",
			wantStatus: StatusUnchanged,
			wantAddr:   sent,
		},
		{"badauth", http.StatusOK, "badauth", 0, netip.Addr{}, ErrBadAuth},
		{"nohost", http.StatusOK, "nohost", 0, netip.Addr{}, ErrNoHost},
		{"notfqdn", http.StatusOK, "notfqdn", 0, netip.Addr{}, ErrNotFQDN},
		{"badagent", http.StatusOK, "badagent", 0, netip.Addr{}, ErrBadAgent},
		{"abuse", http.StatusOK, "abuse", 0, netip.Addr{}, ErrAbuse},
		{"dnserr", http.StatusOK, "dnserr", 0, netip.Addr{}, ErrDNSError},
		{"911", http.StatusOK, "911", 0, netip.Addr{}, ErrServerDown},
		{"unknown code", http.StatusOK, "<html>hello</html>", 0, netip.Addr{}, ErrUnexpectedResponse},
		{"empty body", http.StatusOK, "", 0, netip.Addr{}, ErrUnexpectedResponse},
		{"server error", http.StatusInternalServerError, "oops", 0, netip.Addr{}, ErrServer},
		{"unauthorized status", http.StatusUnauthorized, "badauth", 0, netip.Addr{}, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client := NewClient(server.URL, testCredential(t), WithHTTPClient(server.Client()))
			result, err := client.Update(context.Background(), "home.example.com", sent)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Update() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", result.Status, tt.wantStatus)
			}
			if result.Address != tt.wantAddr {
				t.Errorf("Address = %v, want %v", result.Address, tt.wantAddr)
			}
		})
	}
}

func TestClient_UpdateDestroyedPassword(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cred := testCredential(t)
	cred.Password.Destroy()

	_, err := NewClient(server.URL, cred).Update(context.Background(), "home.example.com", netip.MustParseAddr("203.0.113.7"))
	if !errors.Is(err, secret.ErrDestroyed) {
		t.Errorf("Update() error = %v, want ErrDestroyed", err)
	}
	if called {
		t.Error("no request should be sent without credentials")
	}
}

func TestClient_UpdateCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "good")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, testCredential(t)).Update(ctx, "home.example.com", netip.MustParseAddr("203.0.113.7"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Update() error = %v, want context.Canceled", err)
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("updating x: %w", ErrBadAuth), true},
		{ErrNoHost, true},
		{ErrNotFQDN, true},
		{ErrBadAgent, true},
		{ErrAbuse, true},
		{ErrDNSError, false},
		{ErrServerDown, false},
		{ErrServer, false},
		{errors.New("network down"), false},
	}

	for _, tc := range tests {
		if got := IsPermanent(tc.err); got != tc.want {
			t.Errorf("IsPermanent(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestStatus_String(t *testing.T) {
	if StatusUpdated.String() != "updated" || StatusUnchanged.String() != "unchanged" {
		t.Error("unexpected status names")
	}
	if Status(7).String() != "Status(7)" {
		t.Errorf("unknown status = %q", Status(7).String())
	}
}
