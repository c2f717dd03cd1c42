// Package dyndns implements a client for the dyndns2 update protocol
// spoken by DynDNS, No-IP, and most router-compatible DNS services.
package dyndns

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/HolgerKuehn/DynDNSClient/pkg/httputil"
	"github.com/HolgerKuehn/DynDNSClient/pkg/secret"
	"github.com/HolgerKuehn/DynDNSClient/pkg/textutil"
)

// UpdatePath is the dyndns2 update endpoint relative to the server URL.
const UpdatePath = "/nic/update"

// maxResponseSize bounds the response body; return codes are one line.
const maxResponseSize = 4096

// Credential is the login sent with every update.
type Credential struct {
	Username string
	Password *secret.Protected
}

// Status is the outcome of a successful update.
type Status int

const (
	// StatusUpdated means the server accepted a new address ("good").
	StatusUpdated Status = iota
	// StatusUnchanged means the server already had the address ("nochg").
	StatusUnchanged
)

func (s Status) String() string {
	switch s {
	case StatusUpdated:
		return "updated"
	case StatusUnchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result describes a successful update of one hostname.
type Result struct {
	Hostname string
	Status   Status
	// Address is the address the server reported, or the one sent when
	// the server did not echo it.
	Address netip.Addr
}

// Client is a dyndns2 update client.
type Client struct {
	baseURL    string
	credential Credential
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the update server at baseURL.
func NewClient(baseURL string, credential Credential, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		httpClient: httputil.NewClient(nil),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Update points hostname at ip.
func (c *Client) Update(ctx context.Context, hostname string, ip netip.Addr) (Result, error) {
	params := url.Values{}
	params.Set("hostname", hostname)
	params.Set("myip", ip.String())

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, UpdatePath, params.Encode())

	c.logger.Debug("sending update",
		slog.String("hostname", hostname),
		slog.String("ip", ip.String()),
		slog.String("url", c.baseURL+UpdatePath),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if err := c.authorize(req); err != nil {
		return Result{}, fmt.Errorf("setting credentials: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Result{}, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, fmt.Errorf("%w: status code %d: %s", ErrServer, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return parseResponse(hostname, ip, string(body))
}

// authorize sets the basic auth header. The password is only revealed
// while the header value is built.
func (c *Client) authorize(req *http.Request) error {
	return c.credential.Password.Use(func(password []byte) error {
		raw := make([]byte, 0, len(c.credential.Username)+1+len(password))
		raw = append(raw, c.credential.Username...)
		raw = append(raw, ':')
		raw = append(raw, password...)
		defer clear(raw)

		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString(raw))
		return nil
	})
}

// parseResponse interprets the first line of a dyndns2 response, e.g.
// "good 203.0.113.7" or "nochg 203.0.113.7" or "badauth".
func parseResponse(hostname string, sent netip.Addr, body string) (Result, error) {
	line := strings.TrimSpace(textutil.LeftOf(body, "\n", true))
	code := textutil.LeftOf(line, " ", true)
	detail := strings.TrimSpace(textutil.RightOf(line, " ", true))

	var status Status
	switch strings.ToLower(code) {
	case "good":
		status = StatusUpdated
	case "nochg":
		status = StatusUnchanged
	default:
		if err, ok := returnCodes[strings.ToLower(code)]; ok {
			return Result{}, fmt.Errorf("updating %s: %w", hostname, err)
		}
		return Result{}, fmt.Errorf("updating %s: %w: %q", hostname, ErrUnexpectedResponse, line)
	}

	addr := sent
	if echoed, err := netip.ParseAddr(detail); err == nil {
		addr = echoed
	}

	return Result{Hostname: hostname, Status: status, Address: addr}, nil
}
