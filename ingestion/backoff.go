package ingestion

import "time"

// BackoffPolicy bounds in-job retries of retryable pull failures.
type BackoffPolicy struct {
	// MaxRetries is how many times a failed pull is retried before the job
	// fails. Retries resume from the stream's last reported cursor.
	MaxRetries int

	// BaseDelay is the delay before the first retry; each subsequent retry
	// doubles it.
	BaseDelay time.Duration
}

// DefaultBackoff returns the policy used when none is configured.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Delay returns how long to wait before the given retry attempt (0-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt)
}
