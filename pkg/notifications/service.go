package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localserve/notify/pkg/async"
	"github.com/localserve/notify/pkg/email"
	"github.com/localserve/notify/pkg/logger"
	"github.com/localserve/notify/pkg/subscriptions"
	"github.com/localserve/notify/pkg/users"
	"github.com/localserve/notify/pkg/webpush"
)

// Request describes one notification to create and deliver. Only UserID is
// required; everything else is defaulted. The channel toggles follow
// tri-state semantics: nil means enabled, so callers opt channels out
// rather than in.
type Request struct {
	UserID   string
	SenderID string
	Title    string // defaults to DefaultTitle
	Message  string
	Type     string // defaults to DefaultType
	Payload  map[string]any

	SendPush  *bool
	SendEmail *bool
	SendSMS   *bool
}

// PushSender delivers a message to one push subscription.
type PushSender interface {
	Send(ctx context.Context, sub subscriptions.Subscription, msg webpush.Message) error
}

// SMSSender delivers a short text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}

// Broadcaster pushes an event to a user's active realtime connections.
type Broadcaster interface {
	Broadcast(ctx context.Context, userID, event string, payload any) error
}

// Service orchestrates notification creation: it persists the record, pushes
// a realtime event to the recipient's connections, and fans delivery out to
// the configured channels. Persistence is the only step that can fail the
// call; everything after it is best effort.
type Service struct {
	storage     Storage
	users       users.Directory
	subs        subscriptions.Store
	broadcaster Broadcaster
	push        PushSender
	email       email.EmailSender
	sms         SMSSender
	unread      *UnreadCache

	appName string
	appURL  string
	log     *slog.Logger

	wg sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithBroadcaster sets the realtime broadcaster.
func WithBroadcaster(b Broadcaster) ServiceOption {
	return func(s *Service) { s.broadcaster = b }
}

// WithPushSender enables the web push channel.
func WithPushSender(p PushSender) ServiceOption {
	return func(s *Service) { s.push = p }
}

// WithEmailSender enables the email channel.
func WithEmailSender(e email.EmailSender) ServiceOption {
	return func(s *Service) { s.email = e }
}

// WithSMSSender enables the SMS channel.
func WithSMSSender(sender SMSSender) ServiceOption {
	return func(s *Service) { s.sms = sender }
}

// WithUnreadCache enables unread-count caching.
func WithUnreadCache(c *UnreadCache) ServiceOption {
	return func(s *Service) { s.unread = c }
}

// WithAppName sets the name used in email attribution.
func WithAppName(name string) ServiceOption {
	return func(s *Service) { s.appName = name }
}

// WithAppURL sets the base URL used for default email links.
func WithAppURL(url string) ServiceOption {
	return func(s *Service) { s.appURL = url }
}

// WithServiceLogger sets the logger for the Service.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// NewService creates a notification service. Channels without a configured
// sender are disabled; requests targeting them are silently skipped.
func NewService(storage Storage, directory users.Directory, subs subscriptions.Store, opts ...ServiceOption) *Service {
	s := &Service{
		storage: storage,
		users:   directory,
		subs:    subs,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for channel, enabled := range map[string]bool{
		"push":  s.push != nil,
		"email": s.email != nil,
		"sms":   s.sms != nil,
	} {
		if !enabled {
			s.log.Info("Notification channel disabled: no sender configured", logger.Channel(channel))
		}
	}

	return s
}

// Notify creates a notification for one recipient and triggers delivery.
// It returns once the record is persisted and the realtime event is pushed;
// channel delivery continues in the background and survives cancellation of
// the caller's context. A channel failure never surfaces here.
func (s *Service) Notify(ctx context.Context, req Request) (*Notification, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: UserID is required", ErrInvalidRequest)
	}

	recipient, err := s.users.Resolve(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, errors.Join(ErrRecipientNotFound, err)
		}
		return nil, fmt.Errorf("failed to resolve recipient: %w", err)
	}

	notif := Notification{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		SenderID:  req.SenderID,
		Title:     req.Title,
		Message:   req.Message,
		Type:      req.Type,
		Payload:   req.Payload,
		CreatedAt: time.Now(),
	}
	if notif.Title == "" {
		notif.Title = DefaultTitle
	}
	if notif.Type == "" {
		notif.Type = DefaultType
	}
	if notif.Payload == nil {
		notif.Payload = map[string]any{}
	}

	if err := s.storage.Create(ctx, notif); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}
	if s.unread != nil {
		s.unread.Invalidate(ctx, notif.UserID)
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.Broadcast(ctx, notif.UserID, EventNotificationNew, notif); err != nil {
			s.log.WarnContext(ctx, "Failed to broadcast notification, but it was stored successfully",
				logger.NotificationID(notif.ID),
				logger.UserID(notif.UserID),
				logger.Error(err),
			)
		}
	}

	// Delivery outlives the caller's request; only persistence is tied to it.
	dctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.fanOut(dctx, notif, *recipient, req)
	}()

	return &notif, nil
}

// Wait blocks until all in-flight channel deliveries have finished.
// Used for graceful shutdown draining.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Get retrieves one notification owned by the user.
func (s *Service) Get(ctx context.Context, userID, notifID string) (*Notification, error) {
	return s.storage.Get(ctx, userID, notifID)
}

// List returns one page of the user's notifications, newest first, along
// with the total count for pagination.
func (s *Service) List(ctx context.Context, userID string, opts ListOptions) ([]Notification, int64, error) {
	items, err := s.storage.List(ctx, userID, opts)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.storage.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountUnread returns the user's unread notification count, served from the
// cache when one is configured.
func (s *Service) CountUnread(ctx context.Context, userID string) (int64, error) {
	if s.unread != nil {
		if count, ok := s.unread.Get(ctx, userID); ok {
			return count, nil
		}
	}

	count, err := s.storage.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.unread != nil {
		s.unread.Set(ctx, userID, count)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notifID string) error {
	if err := s.storage.MarkRead(ctx, userID, notifID); err != nil {
		return err
	}
	if s.unread != nil {
		s.unread.Invalidate(ctx, userID)
	}
	return nil
}

// fanOut runs the enabled channels concurrently and waits for all of them.
func (s *Service) fanOut(ctx context.Context, notif Notification, recipient users.User, req Request) {
	var wg sync.WaitGroup

	if enabled(req.SendPush) && s.push != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.deliverPush(ctx, notif)
		}()
	}

	if enabled(req.SendEmail) && s.email != nil && recipient.Email != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.deliverEmail(ctx, notif, recipient)
		}()
	}

	if enabled(req.SendSMS) && s.sms != nil && recipient.Phone != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.deliverSMS(ctx, notif, recipient)
		}()
	}

	wg.Wait()
}

// deliverPush sends the message to every push subscription of the recipient
// concurrently. Subscriptions the push service reports as gone are detached;
// other failures are logged and do not affect the remaining subscriptions.
func (s *Service) deliverPush(ctx context.Context, notif Notification) {
	subs, err := s.subs.ListForUser(ctx, notif.UserID)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to list push subscriptions",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
		return
	}
	if len(subs) == 0 {
		return
	}

	data := make(map[string]any, len(notif.Payload)+2)
	maps.Copy(data, notif.Payload)
	data["notificationId"] = notif.ID
	data["type"] = notif.Type

	msg := webpush.Message{
		Title: notif.Title,
		Body:  notif.Message,
		Data:  data,
	}

	futures := make([]*async.Future[string], 0, len(subs))
	for _, sub := range subs {
		futures = append(futures, async.Async(ctx, sub, func(ctx context.Context, sub subscriptions.Subscription) (string, error) {
			if err := s.push.Send(ctx, sub, msg); err != nil {
				if errors.Is(err, webpush.ErrSubscriptionGone) {
					s.evictSubscription(ctx, sub)
					return sub.Endpoint, nil
				}
				return sub.Endpoint, err
			}
			return sub.Endpoint, nil
		}))
	}

	for _, res := range async.SettleAll(futures...) {
		if res.Err != nil {
			s.log.WarnContext(ctx, "Failed to deliver push notification",
				logger.NotificationID(notif.ID),
				logger.UserID(notif.UserID),
				logger.Endpoint(res.Value),
				logger.Error(res.Err),
			)
		}
	}
}

func (s *Service) evictSubscription(ctx context.Context, sub subscriptions.Subscription) {
	if err := s.subs.DetachByEndpoint(ctx, sub.Endpoint); err != nil {
		s.log.WarnContext(ctx, "Failed to remove stale push subscription",
			logger.Endpoint(sub.Endpoint),
			logger.Error(err),
		)
		return
	}
	s.log.InfoContext(ctx, "Removed stale push subscription",
		logger.UserID(sub.UserID),
		logger.Endpoint(sub.Endpoint),
	)
}

func (s *Service) deliverEmail(ctx context.Context, notif Notification, recipient users.User) {
	link, _ := notif.Payload["link"].(string)
	if link == "" {
		link = s.appURL + "/notifications"
	}

	body, err := email.RenderNotification(email.NotificationEmail{
		Title:   notif.Title,
		Message: notif.Message,
		Link:    link,
		AppName: s.appName,
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to render notification email",
			logger.NotificationID(notif.ID),
			logger.Error(err),
		)
		return
	}

	err = s.email.SendEmail(ctx, email.SendEmailParams{
		SendTo:   recipient.Email,
		Subject:  notif.Title,
		BodyHTML: body,
		Tag:      notif.Type,
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to deliver email notification",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
	}
}

func (s *Service) deliverSMS(ctx context.Context, notif Notification, recipient users.User) {
	text := notif.Title + " - " + notif.Message
	if err := s.sms.Send(ctx, recipient.Phone, text); err != nil {
		s.log.WarnContext(ctx, "Failed to deliver SMS notification",
			logger.NotificationID(notif.ID),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
	}
}

// enabled interprets a tri-state channel toggle; nil means enabled.
func enabled(flag *bool) bool {
	return flag == nil || *flag
}
