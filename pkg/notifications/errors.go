package notifications

import "errors"

var (
	// ErrInvalidRequest is returned when a notification request is missing
	// required fields.
	ErrInvalidRequest = errors.New("notifications: invalid request")
	// ErrRecipientNotFound is returned when the recipient user does not exist.
	ErrRecipientNotFound = errors.New("notifications: recipient not found")
	// ErrNotificationNotFound is returned when a notification does not exist
	// or belongs to a different user.
	ErrNotificationNotFound = errors.New("notifications: notification not found")
)
