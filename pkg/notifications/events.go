package notifications

import (
	"context"
	"errors"
	"fmt"
)

// BookingEvent identifies a booking and the two parties to notify about it.
type BookingEvent struct {
	BookingID    string
	CustomerID   string
	ProviderID   string
	ServiceTitle string
}

func (e BookingEvent) serviceTitle() string {
	if e.ServiceTitle == "" {
		return "service"
	}
	return e.ServiceTitle
}

// NotifyBookingCreated notifies both parties of a new booking: the customer
// gets a confirmation and the provider a new-booking alert. Each side is
// attempted independently; a failure on one does not stop the other.
func (s *Service) NotifyBookingCreated(ctx context.Context, ev BookingEvent) error {
	_, customerErr := s.Notify(ctx, Request{
		UserID:  ev.CustomerID,
		Title:   "Booking created",
		Message: fmt.Sprintf("Your booking for %s has been created.", ev.serviceTitle()),
		Type:    TypeBookingCreated,
		Payload: map[string]any{
			"bookingId": ev.BookingID,
			"link":      "/bookings/" + ev.BookingID,
		},
	})

	_, providerErr := s.Notify(ctx, Request{
		UserID:  ev.ProviderID,
		Title:   "New booking received",
		Message: fmt.Sprintf("You have a new booking for %s.", ev.serviceTitle()),
		Type:    TypeBookingReceived,
		Payload: map[string]any{
			"bookingId": ev.BookingID,
			"link":      "/provider/bookings/" + ev.BookingID,
		},
	})

	return errors.Join(customerErr, providerErr)
}

// NotifyBookingStatusChanged notifies both parties of a booking status
// transition. The provider side skips SMS; status changes are routine for
// providers and not worth a text message.
func (s *Service) NotifyBookingStatusChanged(ctx context.Context, ev BookingEvent, status string) error {
	_, customerErr := s.Notify(ctx, Request{
		UserID:  ev.CustomerID,
		Title:   "Booking " + status,
		Message: fmt.Sprintf("Your booking for %s is now %s.", ev.serviceTitle(), status),
		Type:    TypeBookingStatus,
		Payload: map[string]any{
			"bookingId":    ev.BookingID,
			"status":       status,
			"serviceTitle": ev.ServiceTitle,
		},
	})

	_, providerErr := s.Notify(ctx, Request{
		UserID:  ev.ProviderID,
		Title:   "Booking " + status,
		Message: fmt.Sprintf("Booking %s status changed to %s.", ev.BookingID, status),
		Type:    TypeBookingStatusProvider,
		Payload: map[string]any{
			"bookingId": ev.BookingID,
			"status":    status,
		},
		SendSMS: boolPtr(false),
	})

	return errors.Join(customerErr, providerErr)
}

// PaymentEvent identifies a completed payment and the parties to notify.
type PaymentEvent struct {
	PaymentID  string
	BookingID  string
	CustomerID string
	ProviderID string
	Amount     float64
}

// NotifyPaymentCompleted notifies the customer that the payment went through
// and the provider that the booking is paid. The provider side skips SMS.
func (s *Service) NotifyPaymentCompleted(ctx context.Context, ev PaymentEvent) error {
	_, customerErr := s.Notify(ctx, Request{
		UserID:  ev.CustomerID,
		Title:   "Payment received",
		Message: fmt.Sprintf("Payment for booking %s received successfully.", ev.BookingID),
		Type:    TypePaymentCompleted,
		Payload: map[string]any{
			"bookingId": ev.BookingID,
			"paymentId": ev.PaymentID,
			"amount":    ev.Amount,
		},
	})

	_, providerErr := s.Notify(ctx, Request{
		UserID:  ev.ProviderID,
		Title:   "Booking paid",
		Message: fmt.Sprintf("Booking %s has been paid.", ev.BookingID),
		Type:    TypePaymentProvider,
		Payload: map[string]any{
			"bookingId": ev.BookingID,
			"paymentId": ev.PaymentID,
			"amount":    ev.Amount,
		},
		SendSMS: boolPtr(false),
	})

	return errors.Join(customerErr, providerErr)
}

// MessageEvent describes an incoming chat message to notify the recipient of.
type MessageEvent struct {
	RecipientID    string
	SenderID       string
	SenderName     string
	ConversationID string
	MessageID      string
	Text           string
}

// NotifyNewMessage notifies a chat recipient of a new message. Chat traffic
// is high volume, so delivery is limited to realtime and web push; email and
// SMS stay quiet.
func (s *Service) NotifyNewMessage(ctx context.Context, ev MessageEvent) (*Notification, error) {
	senderName := ev.SenderName
	if senderName == "" {
		senderName = "Someone"
	}

	return s.Notify(ctx, Request{
		UserID:   ev.RecipientID,
		SenderID: ev.SenderID,
		Title:    "New message from " + senderName,
		Message:  messageSnippet(ev.Text),
		Type:     TypeChatMessage,
		Payload: map[string]any{
			"conversationId": ev.ConversationID,
			"messageId":      ev.MessageID,
			"link":           "/chats/" + ev.ConversationID,
		},
		SendEmail: boolPtr(false),
		SendSMS:   boolPtr(false),
	})
}

// messageSnippet shortens chat text to fit a notification body.
func messageSnippet(text string) string {
	if text == "" {
		return "You received a new message"
	}
	runes := []rune(text)
	if len(runes) > 120 {
		return string(runes[:117]) + "…"
	}
	return text
}

func boolPtr(v bool) *bool {
	return &v
}
