package webpush

import "errors"

var (
	// ErrNotConfigured is returned when the VAPID key pair is missing.
	ErrNotConfigured = errors.New("webpush: VAPID keys are not configured")
	// ErrSubscriptionGone indicates the push service no longer recognizes the
	// subscription; the registration should be removed.
	ErrSubscriptionGone = errors.New("webpush: subscription is gone")
	// ErrDeliveryFailed indicates a transient delivery failure.
	ErrDeliveryFailed = errors.New("webpush: delivery failed")
)
