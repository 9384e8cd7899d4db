// Package email provides transactional email delivery with a Postmark
// backend for production and a file-based sender for local development.
//
// The notification service renders bodies with RenderNotification and hands
// them to an EmailSender; swapping the backend never touches callers.
//
// Usage:
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if errors.Is(err, email.ErrNotConfigured) {
//		sender = email.NewDevSender("./tmp/emails")
//	}
//
//	body, _ := email.RenderNotification(email.NotificationEmail{
//		Title:   "New booking",
//		Message: "You have a new booking request",
//		Link:    "https://app.example.com/notifications",
//	})
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "New booking",
//		BodyHTML: body,
//		Tag:      "notification",
//	})
package email
