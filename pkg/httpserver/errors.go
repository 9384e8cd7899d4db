package httpserver

import "errors"

var (
	// ErrStart wraps the listener error when the server cannot come up.
	ErrStart = errors.New("failed to start HTTP server")
	// ErrShutdown is returned when the server does not drain within the
	// shutdown timeout.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
