package connector

import "errors"

var (
	// ErrAuth indicates the external system rejected the source's
	// credentials. Fatal: the job fails immediately and the source will keep
	// failing until it is reconfigured.
	ErrAuth = errors.New("authentication rejected")

	// ErrRateLimited indicates the external system throttled the pull.
	// Retryable with backoff; the checkpoint is unchanged.
	ErrRateLimited = errors.New("rate limited")

	// ErrTransient indicates a transient I/O failure. Retryable.
	ErrTransient = errors.New("transient I/O error")

	// ErrUnknownKind indicates no connector is registered for a source kind.
	ErrUnknownKind = errors.New("no connector registered for kind")
)

// Retryable reports whether an error from a connector may be retried with
// backoff without losing records.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
