// Package updater keeps a set of hostnames pointed at the host's current
// public address.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/HolgerKuehn/DynDNSClient/internal/metrics"
	"github.com/HolgerKuehn/DynDNSClient/pkg/dyndns"
)

// ErrNotRun is reported by Check before the first successful lookup.
var ErrNotRun = errors.New("no update run has completed yet")

// AddressResolver looks up the current public address.
type AddressResolver interface {
	Lookup(ctx context.Context) (netip.Addr, error)
}

// UpdateClient points a hostname at an address.
type UpdateClient interface {
	Update(ctx context.Context, hostname string, ip netip.Addr) (dyndns.Result, error)
}

// Updater pushes the public address to the update server whenever it
// changes.
//
// Each run:
//  1. Resolves the public address
//  2. Skips when every hostname already points at it
//  3. Updates the hostnames that do not, collecting per-host errors
//
// Hostnames that fail with a permanent error (bad credentials, unknown
// host, abuse) are blocked until restart, as the dyndns2 protocol asks
// clients not to retry them.
type Updater struct {
	resolver  AddressResolver
	client    UpdateClient
	hostnames []string
	logger    *slog.Logger

	mu sync.RWMutex
	// address is the last resolved public address.
	address netip.Addr
	// pending holds hostnames not yet pointing at address.
	pending map[string]struct{}
	// blocked holds hostnames stopped by a permanent error.
	blocked map[string]error
	lastRun time.Time
	lastErr error
}

// Option is a functional option for configuring the Updater.
type Option func(*Updater)

// WithLogger sets a custom logger for the updater.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// New creates an Updater for hostnames.
func New(resolver AddressResolver, client UpdateClient, hostnames []string, opts ...Option) *Updater {
	u := &Updater{
		resolver:  resolver,
		client:    client,
		hostnames: append([]string(nil), hostnames...),
		logger:    slog.Default(),
		pending:   make(map[string]struct{}),
		blocked:   make(map[string]error),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// RunOnce performs one update run. A failed lookup is returned as an
// error; per-hostname failures are reported in the Result (see
// Result.Err) and retried on the next run.
func (u *Updater) RunOnce(ctx context.Context) (*Result, error) {
	result := newResult()

	addr, err := u.resolver.Lookup(ctx)
	if err != nil {
		metrics.LookupsTotal.WithLabelValues(metrics.ResultError).Inc()
		metrics.RunsTotal.WithLabelValues(metrics.ResultError).Inc()
		err = fmt.Errorf("resolving public address: %w", err)
		u.finish(err)
		return nil, err
	}
	metrics.LookupsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	result.Address = addr

	u.mu.Lock()
	result.Previous = u.address
	if addr != u.address {
		u.address = addr
		for _, h := range u.hostnames {
			if _, ok := u.blocked[h]; !ok {
				u.pending[h] = struct{}{}
			}
		}
	}
	pending := u.pendingHostnames()
	u.mu.Unlock()

	if result.AddressChanged() {
		metrics.AddressChangesTotal.Inc()
		u.logger.Info("public address changed",
			slog.String("previous", result.Previous.String()),
			slog.String("address", addr.String()),
		)
	}

	if len(pending) == 0 {
		result.Skipped = true
		result.Complete()
		u.finish(nil)
		u.recordMetrics(result)
		u.logger.Debug("public address unchanged, skipping update",
			slog.String("address", addr.String()),
		)
		return result, nil
	}

	for _, hostname := range u.hostnames {
		if err := u.blockedErr(hostname); err != nil {
			result.Outcomes = append(result.Outcomes, Outcome{Hostname: hostname, Status: StatusBlocked, Err: err})
			continue
		}
		if _, ok := pending[hostname]; !ok {
			continue
		}
		result.Outcomes = append(result.Outcomes, u.updateHostname(ctx, hostname, addr))
	}

	result.Complete()
	u.finish(result.Err())
	u.recordMetrics(result)

	u.logger.Info("update run complete",
		slog.String("address", addr.String()),
		slog.Int("updated", result.Count(StatusUpdated)),
		slog.Int("unchanged", result.Count(StatusUnchanged)),
		slog.Int("failed", result.Count(StatusFailed)),
		slog.Int("blocked", result.Count(StatusBlocked)),
		slog.Duration("duration", result.Duration()),
	)

	return result, nil
}

// updateHostname pushes addr for one hostname and tracks its state.
func (u *Updater) updateHostname(ctx context.Context, hostname string, addr netip.Addr) Outcome {
	res, err := u.client.Update(ctx, hostname, addr)
	if err != nil {
		outcome := Outcome{Hostname: hostname, Status: StatusFailed, Err: err}
		if dyndns.IsPermanent(err) {
			u.mu.Lock()
			u.blocked[hostname] = err
			delete(u.pending, hostname)
			u.mu.Unlock()
			u.logger.Error("update rejected, hostname blocked until restart",
				slog.String("hostname", hostname),
				slog.String("error", err.Error()),
			)
		} else {
			u.logger.Warn("update failed, will retry",
				slog.String("hostname", hostname),
				slog.String("error", err.Error()),
			)
		}
		return outcome
	}

	u.mu.Lock()
	delete(u.pending, hostname)
	u.mu.Unlock()

	status := StatusUpdated
	if res.Status == dyndns.StatusUnchanged {
		status = StatusUnchanged
	}
	u.logger.Info("hostname updated",
		slog.String("hostname", hostname),
		slog.String("address", res.Address.String()),
		slog.String("status", res.Status.String()),
	)
	return Outcome{Hostname: hostname, Status: status}
}

// Run performs a run immediately and then every interval until ctx is
// done. Run errors are logged; the loop keeps going.
func (u *Updater) Run(ctx context.Context, interval time.Duration) {
	u.runLogged(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.logger.Debug("periodic update triggered", slog.Duration("interval", interval))
			u.runLogged(ctx)
		}
	}
}

func (u *Updater) runLogged(ctx context.Context) {
	if _, err := u.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		u.logger.Error("update run failed", slog.String("error", err.Error()))
	}
}

// Check reports the health of the last run for the readiness endpoint.
func (u *Updater) Check(context.Context) error {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.lastRun.IsZero() {
		return ErrNotRun
	}
	return u.lastErr
}

// Address returns the last resolved public address.
func (u *Updater) Address() netip.Addr {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.address
}

// Blocked returns the hostnames stopped by a permanent error.
func (u *Updater) Blocked() map[string]error {
	u.mu.RLock()
	defer u.mu.RUnlock()

	blocked := make(map[string]error, len(u.blocked))
	for h, err := range u.blocked {
		blocked[h] = err
	}
	return blocked
}

// pendingHostnames copies the pending set. Callers hold mu.
func (u *Updater) pendingHostnames() map[string]struct{} {
	pending := make(map[string]struct{}, len(u.pending))
	for h := range u.pending {
		pending[h] = struct{}{}
	}
	return pending
}

func (u *Updater) blockedErr(hostname string) error {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.blocked[hostname]
}

func (u *Updater) finish(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.lastRun = time.Now()
	u.lastErr = err
}

// recordMetrics records Prometheus metrics from a run result.
func (u *Updater) recordMetrics(result *Result) {
	metrics.RunDuration.Observe(result.Duration().Seconds())

	switch {
	case result.Skipped:
		metrics.RunsTotal.WithLabelValues(metrics.ResultSkipped).Inc()
	case result.Count(StatusFailed) > 0:
		metrics.RunsTotal.WithLabelValues(metrics.ResultError).Inc()
	default:
		metrics.RunsTotal.WithLabelValues(metrics.ResultUpdated).Inc()
	}

	for _, o := range result.Outcomes {
		switch o.Status {
		case StatusUpdated:
			metrics.UpdatesTotal.WithLabelValues(o.Hostname, metrics.ResultUpdated).Inc()
		case StatusUnchanged:
			metrics.UpdatesTotal.WithLabelValues(o.Hostname, metrics.ResultUnchanged).Inc()
		case StatusFailed:
			metrics.UpdatesTotal.WithLabelValues(o.Hostname, metrics.ResultError).Inc()
		}
	}

	if result.Count(StatusFailed) == 0 {
		metrics.LastSuccess.SetToCurrentTime()
	}
}
