package sms

import "errors"

var (
	// ErrNotConfigured is returned when Twilio credentials are missing.
	ErrNotConfigured = errors.New("sms: twilio credentials are not configured")
	// ErrInvalidRecipient is returned when the destination number is empty.
	ErrInvalidRecipient = errors.New("sms: invalid recipient")
	// ErrDeliveryFailed indicates the Twilio API rejected the message.
	ErrDeliveryFailed = errors.New("sms: delivery failed")
)
