package dyndns

import "errors"

// Sentinel errors for the dyndns2 return codes. Most of them mean the
// client must stop retrying until the configuration is fixed.
var (
	// ErrBadAuth is returned for "badauth": the username or password is wrong.
	ErrBadAuth = errors.New("dyndns: authentication failed")

	// ErrNoHost is returned for "nohost": the hostname is not in the account.
	ErrNoHost = errors.New("dyndns: hostname does not exist in this account")

	// ErrNotFQDN is returned for "notfqdn": the hostname is not fully qualified.
	ErrNotFQDN = errors.New("dyndns: hostname is not a fully qualified domain name")

	// ErrBadAgent is returned for "badagent": the server blocked this client.
	ErrBadAgent = errors.New("dyndns: user agent was rejected")

	// ErrAbuse is returned for "abuse": the hostname is blocked for abuse.
	ErrAbuse = errors.New("dyndns: hostname is blocked for update abuse")

	// ErrDNSError is returned for "dnserr": the server had a DNS problem.
	ErrDNSError = errors.New("dyndns: server side DNS error")

	// ErrServerDown is returned for "911": the service is down for maintenance.
	ErrServerDown = errors.New("dyndns: service unavailable")

	// ErrServer is returned when the server answers with an HTTP error status.
	ErrServer = errors.New("dyndns: server error")

	// ErrUnexpectedResponse is returned for a body that is not a dyndns2 return code.
	ErrUnexpectedResponse = errors.New("dyndns: unexpected response")
)

// returnCodes maps dyndns2 error return codes to sentinel errors.
var returnCodes = map[string]error{
	"badauth":  ErrBadAuth,
	"nohost":   ErrNoHost,
	"notfqdn":  ErrNotFQDN,
	"badagent": ErrBadAgent,
	"abuse":    ErrAbuse,
	"dnserr":   ErrDNSError,
	"911":      ErrServerDown,
}

// IsPermanent reports whether err means retrying with the same
// configuration cannot succeed.
func IsPermanent(err error) bool {
	for _, target := range []error{ErrBadAuth, ErrNoHost, ErrNotFQDN, ErrBadAgent, ErrAbuse} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
