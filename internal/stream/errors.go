package stream

import "errors"

// Lifecycle and query sentinels. The tool layer maps these to user-facing
// text; inside the package they travel as ordinary errors.
var (
	// ErrAlreadyActive is returned by Start when a session is running and
	// replace was not requested.
	ErrAlreadyActive = errors.New("stream already active")

	// ErrNoActiveSession gates operations that require a running session.
	ErrNoActiveSession = errors.New("no active stream")

	// ErrUnknownBuffer is returned when no buffer exists for a
	// (symbol, kind) pair.
	ErrUnknownBuffer = errors.New("no buffer for symbol and data kind")

	// ErrNoBuffers is returned by aggregate statistics when the registry
	// is empty.
	ErrNoBuffers = errors.New("no stream buffers exist")

	// ErrNoPriceAvailable is returned by the order helper when the quote
	// window holds no usable price.
	ErrNoPriceAvailable = errors.New("no usable quote price in window")
)
