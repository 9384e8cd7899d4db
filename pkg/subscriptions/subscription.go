package subscriptions

import (
	"context"
	"time"
)

// Keys holds the encryption keys the push protocol requires per subscription.
// Both values are opaque base64url strings produced by the browser.
type Keys struct {
	P256dh string `bson:"p256dh" json:"p256dh"`
	Auth   string `bson:"auth" json:"auth"`
}

// Subscription is one browser push registration. Endpoint is globally unique:
// one browser endpoint maps to exactly one record, and re-subscribing the
// same endpoint upserts rather than duplicates. UserID may be empty for
// subscriptions created by an anonymous browser before login.
type Subscription struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"userId,omitempty" json:"user_id,omitempty"`
	Endpoint  string    `bson:"endpoint" json:"endpoint"`
	Keys      Keys      `bson:"keys" json:"keys"`
	CreatedAt time.Time `bson:"createdAt" json:"created_at"`
}

// Store handles push-subscription persistence with upsert-by-endpoint semantics.
type Store interface {
	// Upsert creates or overwrites the record with this endpoint and returns
	// its id. An existing record keeps its id and CreatedAt; keys and owner
	// are replaced. An empty userID leaves an existing owner untouched.
	Upsert(ctx context.Context, endpoint string, keys Keys, userID string) (string, error)

	// DetachByEndpoint deletes the matching record. Absent endpoints are a no-op.
	DetachByEndpoint(ctx context.Context, endpoint string) error

	// DetachAllForUser deletes every record owned by the user. Used on logout.
	DetachAllForUser(ctx context.Context, userID string) error

	// ListForUser returns all subscriptions for delivery fan-out,
	// an empty slice when the user has none.
	ListForUser(ctx context.Context, userID string) ([]Subscription, error)
}
