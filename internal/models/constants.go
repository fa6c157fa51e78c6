package models

const (
	// DefaultListSize is the page length used when a caller omits size.
	DefaultListSize = 20

	// WorkerQueueSize is the buffer of the sheets sync queue.
	WorkerQueueSize = 128

	// RateLimitRequests is the per-actor request budget per window.
	RateLimitRequests = 30

	// RateLimitWindow is the per-actor throttling window in seconds.
	RateLimitWindow = 60
)
