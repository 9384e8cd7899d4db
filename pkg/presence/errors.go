package presence

import "errors"

var (
	// ErrHubClosed is returned when operations are attempted on a closed hub.
	ErrHubClosed = errors.New("presence: hub is closed")
	// ErrUnauthenticated is returned when a connection without an identity tries to join.
	ErrUnauthenticated = errors.New("presence: connection is not authenticated")
)
