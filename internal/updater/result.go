package updater

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/hashicorp/go-multierror"
)

// OutcomeStatus is the result of updating one hostname.
type OutcomeStatus string

const (
	// StatusUpdated means the server accepted the new address.
	StatusUpdated OutcomeStatus = "updated"
	// StatusUnchanged means the server already had the address.
	StatusUnchanged OutcomeStatus = "unchanged"
	// StatusFailed means the update failed and will be retried next run.
	StatusFailed OutcomeStatus = "failed"
	// StatusBlocked means an earlier permanent error stopped updates for
	// the hostname until restart.
	StatusBlocked OutcomeStatus = "blocked"
)

// Outcome describes what happened to one hostname during a run.
type Outcome struct {
	Hostname string
	Status   OutcomeStatus
	// Err is set for StatusFailed and StatusBlocked.
	Err error
}

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	if o.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", o.Status, o.Hostname, o.Err)
	}
	return fmt.Sprintf("[%s] %s", o.Status, o.Hostname)
}

// Result describes one update run.
type Result struct {
	// Address is the public address found by this run.
	Address netip.Addr
	// Previous is the address of the last run, invalid on the first run.
	Previous netip.Addr
	// Skipped is set when every hostname already pointed at Address.
	Skipped bool

	Outcomes []Outcome

	StartTime time.Time
	EndTime   time.Time
}

func newResult() *Result {
	return &Result{StartTime: time.Now()}
}

// Complete marks the run as finished.
func (r *Result) Complete() {
	r.EndTime = time.Now()
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// AddressChanged reports whether the address differs from the last run.
func (r *Result) AddressChanged() bool {
	return r.Previous.IsValid() && r.Previous != r.Address
}

// Count returns the number of outcomes with the given status.
func (r *Result) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Err returns the failed hostnames as a *multierror.Error, or nil.
// Blocked hostnames are not included; they failed in an earlier run.
func (r *Result) Err() error {
	var errs *multierror.Error
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", o.Hostname, o.Err))
		}
	}
	return errs.ErrorOrNil()
}
