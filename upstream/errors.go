package upstream

import "errors"

// Sentinel errors classifying upstream failures. Callers dispatch with
// errors.Is; the wrapped message carries whatever detail the upstream
// supplied, except for authentication failures where the upstream body is
// withheld (it can echo credential fragments back).
var (
	// ErrAuth indicates the credential is missing or was rejected.
	ErrAuth = errors.New("upstream authentication failed")

	// ErrNotFound indicates the job identifier is unknown to the upstream.
	ErrNotFound = errors.New("research job not found")

	// ErrRequest indicates the upstream rejected the request shape or
	// parameters (4xx other than auth/not-found).
	ErrRequest = errors.New("upstream rejected request")

	// ErrUnavailable indicates a network failure, timeout, or 5xx.
	// Recoverable by caller retry; the client never retries on its own.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrMalformed indicates a 2xx response whose body could not be
	// decoded at all. Missing optional fields never trigger this.
	ErrMalformed = errors.New("malformed upstream payload")
)
