package notifications

import "context"

// Storage handles notification persistence and retrieval. Every read and
// write is scoped to a user id; a notification is never visible to anyone
// but its recipient.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification owned by the user.
	// Returns ErrNotificationNotFound when it does not exist or is owned
	// by someone else.
	Get(ctx context.Context, userID, notifID string) (*Notification, error)

	// List returns the user's notifications, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Notification, error)

	// Count returns the total number of notifications for the user.
	Count(ctx context.Context, userID string) (int64, error)

	// CountUnread returns the number of unread notifications for the user.
	CountUnread(ctx context.Context, userID string) (int64, error)

	// MarkRead marks one notification as read. Returns
	// ErrNotificationNotFound when it does not exist or is owned by
	// someone else. Marking an already-read notification is a no-op.
	MarkRead(ctx context.Context, userID, notifID string) error
}

// ListOptions provides pagination for listing notifications.
type ListOptions struct {
	Limit  int // maximum number of notifications to return (0 = no limit)
	Offset int // number of notifications to skip
}
