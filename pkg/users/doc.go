// Package users exposes a read-only directory over the platform's user
// records. The notification engine consumes it to resolve recipients and to
// find the email address and phone number used by the email and SMS channels.
package users
