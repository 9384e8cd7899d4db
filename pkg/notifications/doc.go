// Package notifications implements the notification fan-out engine: a
// durable per-recipient record plus best-effort delivery over realtime
// broadcast, web push, email and SMS.
//
// # Delivery model
//
// Notify persists the notification first; that write is the only step that
// can fail the call. The realtime event is pushed synchronously after the
// write, then channel delivery fans out in the background, detached from
// the caller's context. A channel failure is logged and swallowed because
// the record is already durable and readable over the REST surface.
//
// Channels are opt-out per request. A request with no toggles set goes to
// every configured channel; chat notifications, for example, disable email
// and SMS. Channels without a configured sender are skipped silently.
//
// # Usage
//
//	svc := notifications.NewService(storage, directory, subs,
//		notifications.WithBroadcaster(hub),
//		notifications.WithPushSender(push),
//		notifications.WithEmailSender(mailer),
//	)
//
//	notif, err := svc.Notify(ctx, notifications.Request{
//		UserID:  customerID,
//		Title:   "Booking created",
//		Message: "Your booking for Haircut has been created.",
//		Type:    notifications.TypeBookingCreated,
//		Payload: map[string]any{"bookingId": bookingID},
//	})
//
// On shutdown call Wait to drain in-flight deliveries:
//
//	svc.Wait()
package notifications
