package internal

import "time"

// File permission constants
const (
	// DirectoryPermissions is the standard permission for creating directories
	DirectoryPermissions = 0755
)

// Timeout constants
const (
	// DefaultRequestTimeout is used for a single request against the site API or Discord
	DefaultRequestTimeout = 5 * time.Second

	// CleanupTimeout bounds compensating or follow-up calls that run after the caller's
	// context has already been cancelled.
	CleanupTimeout = 5 * time.Second

	// ShutdownTimeout is how long the HTTP surface gets to drain on close
	ShutdownTimeout = 10 * time.Second
)

// HTTP client constants
const (
	// MaxHTTPRetries is the number of retries for idempotent reads
	MaxHTTPRetries = 3

	// RetryWaitMin is the minimum backoff between retried reads
	RetryWaitMin = 300 * time.Millisecond

	// RetryWaitMax is the maximum backoff between retried reads
	RetryWaitMax = 3 * time.Second
)

// Expiry constants
const (
	// DefaultExpiryWorkers is the number of concurrent loads when rescheduling expirations
	DefaultExpiryWorkers = 5

	// ExpiryQueueSize is the buffer of the reschedule queue
	ExpiryQueueSize = 100
)
