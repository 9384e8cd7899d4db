package users

import "context"

// User is the slice of the platform's user record this engine needs:
// identity plus the contact fields used by the email and SMS channels.
type User struct {
	ID    string `bson:"_id" json:"id"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Directory resolves recipients. The users collection is owned by the auth
// system; this engine only reads from it.
type Directory interface {
	// Resolve returns the user with the given id, or ErrUserNotFound.
	Resolve(ctx context.Context, userID string) (*User, error)
}
