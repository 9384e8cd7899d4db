package users

import "errors"

// ErrUserNotFound is returned when a user id does not resolve.
var ErrUserNotFound = errors.New("users: user not found")
