package chat

import "github.com/pkg/errors"

var (
	// ErrBadRequest means the request had no usable session id.
	ErrBadRequest = errors.New("missing session id")

	// ErrStoreUnavailable is returned when the pool is not open. During
	// Initialize it is fatal; afterwards callers run without persistence.
	ErrStoreUnavailable = errors.New("conversation store unavailable")

	// ErrDegraded marks a best-effort write that did not happen. It has
	// already been logged.
	ErrDegraded = errors.New("conversation store degraded")
)
