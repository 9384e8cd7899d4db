package notifications

import "time"

// Defaults applied when a request omits the field.
const (
	DefaultTitle = "Notification"
	DefaultType  = "generic"
)

// Well-known notification types. The type is an open string; these constants
// cover the events the platform emits itself.
const (
	TypeBookingCreated        = "booking.created"
	TypeBookingReceived       = "booking.received"
	TypeBookingStatus         = "booking.status"
	TypeBookingStatusProvider = "booking.status.provider"
	TypePaymentCompleted      = "payment.completed"
	TypePaymentProvider       = "payment.provider"
	TypeChatMessage           = "chat.message"
)

// EventNotificationNew is the realtime event name pushed to a recipient's
// active connections when a notification is created.
const EventNotificationNew = "notification:new"

// Notification is the durable per-recipient record. It is the source of
// truth; channel deliveries are derived from it and never block its creation.
type Notification struct {
	ID        string         `bson:"_id" json:"id"`
	UserID    string         `bson:"userId" json:"userId"`
	SenderID  string         `bson:"senderId,omitempty" json:"senderId,omitempty"`
	Title     string         `bson:"title" json:"title"`
	Message   string         `bson:"message" json:"message"`
	Type      string         `bson:"type" json:"type"`
	Payload   map[string]any `bson:"payload" json:"payload"`
	Read      bool           `bson:"isRead" json:"isRead"`
	CreatedAt time.Time      `bson:"createdAt" json:"createdAt"`
}
