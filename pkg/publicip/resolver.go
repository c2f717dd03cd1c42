// Package publicip discovers the caller's public address by asking a DNS
// server that answers with the address the query came from, such as
// OpenDNS's myip.opendns.com.
package publicip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Defaults match the OpenDNS "my IP" service.
const (
	DefaultServer  = "resolver1.opendns.com:53"
	DefaultQuery   = "myip.opendns.com."
	DefaultType    = "A"
	DefaultTimeout = 5 * time.Second
)

// Sentinel errors for public address lookups.
var (
	// ErrNoAnswer is returned when the server does not answer with an address.
	ErrNoAnswer = errors.New("no public address in dns answer")

	// ErrUnsupportedType is returned for record types other than A, AAAA and TXT.
	ErrUnsupportedType = errors.New("unsupported record type")
)

// Resolver looks up the public address.
type Resolver struct {
	server string
	query  string
	qtype  uint16
	logger *slog.Logger

	client *dns.Client
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver) error

// WithServer sets the DNS server as host:port.
func WithServer(addr string) Option {
	return func(r *Resolver) error {
		if addr != "" {
			r.server = addr
		}
		return nil
	}
}

// WithQuery sets the name whose answer is the caller's address.
func WithQuery(name string) Option {
	return func(r *Resolver) error {
		if name != "" {
			r.query = dns.Fqdn(name)
		}
		return nil
	}
}

// WithType sets the record type to ask for: A, AAAA or TXT.
func WithType(recordType string) Option {
	return func(r *Resolver) error {
		if recordType == "" {
			return nil
		}
		qtype, err := parseType(recordType)
		if err != nil {
			return err
		}
		r.qtype = qtype
		return nil
	}
}

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) error {
		if d > 0 {
			r.client.Timeout = d
		}
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) error {
		if logger != nil {
			r.logger = logger
		}
		return nil
	}
}

// NewResolver creates a Resolver. Without options it asks OpenDNS for the
// public IPv4 address.
func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{
		server: DefaultServer,
		query:  DefaultQuery,
		qtype:  dns.TypeA,
		logger: slog.Default(),
		client: &dns.Client{Net: "udp", Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Server returns the DNS server the resolver asks.
func (r *Resolver) Server() string {
	return r.server
}

// Lookup asks the server for the caller's public address.
func (r *Resolver) Lookup(ctx context.Context) (netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(r.query, r.qtype)
	msg.RecursionDesired = true

	resp, rtt, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err == nil && resp.Truncated {
		// Retry over TCP for answers that do not fit a datagram.
		tcp := &dns.Client{Net: "tcp", Timeout: r.client.Timeout}
		resp, rtt, err = tcp.ExchangeContext(ctx, msg, r.server)
	}
	if err != nil {
		return netip.Addr{}, fmt.Errorf("querying %s: %w", r.server, err)
	}

	if resp.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("%w: server returned %s", ErrNoAnswer, dns.RcodeToString[resp.Rcode])
	}

	addr, ok := firstAddress(resp.Answer, r.qtype)
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: %d answer records for %s %s", ErrNoAnswer, len(resp.Answer), r.query, dns.TypeToString[r.qtype])
	}

	r.logger.Debug("public address resolved",
		slog.String("server", r.server),
		slog.String("address", addr.String()),
		slog.Duration("rtt", rtt),
	)

	return addr, nil
}

// firstAddress returns the first usable address among the answers of the
// requested type. CNAMEs and other records are skipped.
func firstAddress(answers []dns.RR, qtype uint16) (netip.Addr, bool) {
	for _, rr := range answers {
		switch v := rr.(type) {
		case *dns.A:
			if qtype != dns.TypeA {
				continue
			}
			if addr, ok := netip.AddrFromSlice(v.A.To4()); ok {
				return addr, true
			}
		case *dns.AAAA:
			if qtype != dns.TypeAAAA {
				continue
			}
			if addr, ok := netip.AddrFromSlice(v.AAAA.To16()); ok {
				return addr, true
			}
		case *dns.TXT:
			if qtype != dns.TypeTXT {
				continue
			}
			for _, s := range v.Txt {
				if addr, err := netip.ParseAddr(strings.TrimSpace(s)); err == nil {
					return addr.Unmap(), true
				}
			}
		}
	}
	return netip.Addr{}, false
}

func parseType(recordType string) (uint16, error) {
	switch strings.ToUpper(recordType) {
	case "A":
		return dns.TypeA, nil
	case "AAAA":
		return dns.TypeAAAA, nil
	case "TXT":
		return dns.TypeTXT, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, recordType)
	}
}
