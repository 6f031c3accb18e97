package imap

import "errors"

// Failure classes of a mailbox session. Callers match with errors.Is to
// decide retry handling; every class is retryable, but auth failures are
// surfaced distinctly so a misconfigured account is visible to operators.
var (
	ErrAuth     = errors.New("authentication failed")
	ErrNetwork  = errors.New("network failure")
	ErrTLS      = errors.New("tls failure")
	ErrProtocol = errors.New("unexpected server response")
)
