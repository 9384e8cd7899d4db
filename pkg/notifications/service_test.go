package notifications_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localserve/notify/pkg/email"
	"github.com/localserve/notify/pkg/notifications"
	"github.com/localserve/notify/pkg/subscriptions"
	"github.com/localserve/notify/pkg/users"
	"github.com/localserve/notify/pkg/webpush"
)

type fakePush struct {
	mu     sync.Mutex
	sent   []subscriptions.Subscription
	errFor map[string]error // endpoint -> error
}

func (f *fakePush) Send(ctx context.Context, sub subscriptions.Subscription, msg webpush.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sub)
	return f.errFor[sub.Endpoint]
}

func (f *fakePush) sentEndpoints() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	endpoints := make([]string, len(f.sent))
	for i, sub := range f.sent {
		endpoints[i] = sub.Endpoint
	}
	return endpoints
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return f.err
}

func (f *fakeEmail) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type smsCall struct {
	to   string
	text string
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []smsCall
	err  error
}

func (f *fakeSMS) Send(ctx context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, smsCall{to: to, text: text})
	return f.err
}

func (f *fakeSMS) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type broadcastCall struct {
	userID  string
	event   string
	payload any
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (f *fakeBroadcaster) Broadcast(ctx context.Context, userID, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, broadcastCall{userID: userID, event: event, payload: payload})
	return nil
}

type serviceFixture struct {
	service     *notifications.Service
	storage     *notifications.MemoryStorage
	subs        *subscriptions.MemoryStore
	push        *fakePush
	email       *fakeEmail
	sms         *fakeSMS
	broadcaster *fakeBroadcaster
}

func newServiceFixture(t *testing.T, recipients ...users.User) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		storage:     notifications.NewMemoryStorage(),
		subs:        subscriptions.NewMemoryStore(),
		push:        &fakePush{errFor: map[string]error{}},
		email:       &fakeEmail{},
		sms:         &fakeSMS{},
		broadcaster: &fakeBroadcaster{},
	}
	f.service = notifications.NewService(
		f.storage,
		users.NewMemoryDirectory(recipients...),
		f.subs,
		notifications.WithBroadcaster(f.broadcaster),
		notifications.WithPushSender(f.push),
		notifications.WithEmailSender(f.email),
		notifications.WithSMSSender(f.sms),
		notifications.WithAppURL("https://app.localserve.example"),
	)
	return f
}

func fullContactUser(id string) users.User {
	return users.User{ID: id, Name: "Jamie", Email: id + "@example.com", Phone: "+15550001111"}
}

func TestService_Notify_Validation(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	t.Run("missing user ID", func(t *testing.T) {
		_, err := f.service.Notify(context.Background(), notifications.Request{Message: "hi"})
		assert.ErrorIs(t, err, notifications.ErrInvalidRequest)
	})

	t.Run("empty message is allowed", func(t *testing.T) {
		notif, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1"})
		require.NoError(t, err)
		f.service.Wait()

		stored, err := f.storage.Get(context.Background(), "u1", notif.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Message)
	})
}

func TestService_Notify_UnknownRecipient(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Notify(context.Background(), notifications.Request{UserID: "ghost", Message: "hi"})
	assert.ErrorIs(t, err, notifications.ErrRecipientNotFound)

	total, err := f.storage.Count(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestService_Notify_PersistsWithDefaults(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	notif, err := f.service.Notify(context.Background(), notifications.Request{
		UserID:  "u1",
		Message: "Something happened",
	})
	require.NoError(t, err)
	f.service.Wait()

	assert.NotEmpty(t, notif.ID)
	assert.Equal(t, notifications.DefaultTitle, notif.Title)
	assert.Equal(t, notifications.DefaultType, notif.Type)
	assert.NotNil(t, notif.Payload)
	assert.Empty(t, notif.Payload)
	assert.False(t, notif.Read)

	stored, err := f.storage.Get(context.Background(), "u1", notif.ID)
	require.NoError(t, err)
	assert.Equal(t, notif.Message, stored.Message)
}

func TestService_Notify_BroadcastsRealtimeEvent(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	notif, err := f.service.Notify(context.Background(), notifications.Request{
		UserID:  "u1",
		Message: "hi",
	})
	require.NoError(t, err)
	f.service.Wait()

	require.Len(t, f.broadcaster.calls, 1)
	call := f.broadcaster.calls[0]
	assert.Equal(t, "u1", call.userID)
	assert.Equal(t, notifications.EventNotificationNew, call.event)

	payload, ok := call.payload.(notifications.Notification)
	require.True(t, ok)
	assert.Equal(t, notif.ID, payload.ID)
}

func TestService_Notify_FansOutToAllChannels(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	_, err := f.subs.Upsert(context.Background(), "https://push.example/ep1", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
	require.NoError(t, err)
	_, err = f.subs.Upsert(context.Background(), "https://push.example/ep2", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
	require.NoError(t, err)

	_, err = f.service.Notify(context.Background(), notifications.Request{
		UserID:  "u1",
		Title:   "Booking created",
		Message: "Your booking has been created.",
		Payload: map[string]any{"link": "/bookings/42"},
	})
	require.NoError(t, err)
	f.service.Wait()

	assert.ElementsMatch(t, []string{"https://push.example/ep1", "https://push.example/ep2"}, f.push.sentEndpoints())

	require.Equal(t, 1, f.email.sentCount())
	sent := f.email.sent[0]
	assert.Equal(t, "u1@example.com", sent.SendTo)
	assert.Equal(t, "Booking created", sent.Subject)
	assert.Contains(t, sent.BodyHTML, "/bookings/42")

	require.Equal(t, 1, f.sms.sentCount())
	assert.Equal(t, "+15550001111", f.sms.sent[0].to)
	assert.Equal(t, "Booking created - Your booking has been created.", f.sms.sent[0].text)
}

func TestService_Notify_ChannelToggles(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))
	_, err := f.subs.Upsert(context.Background(), "https://push.example/ep1", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
	require.NoError(t, err)
	off := false

	notif, err := f.service.Notify(context.Background(), notifications.Request{
		UserID:    "u1",
		Message:   "hi",
		SendPush:  &off,
		SendEmail: &off,
		SendSMS:   &off,
	})
	require.NoError(t, err)
	f.service.Wait()

	// The record and the realtime event still happen; only channel
	// deliveries are suppressed.
	_, err = f.storage.Get(context.Background(), "u1", notif.ID)
	require.NoError(t, err)
	assert.Empty(t, f.push.sentEndpoints())
	assert.Zero(t, f.email.sentCount())
	assert.Zero(t, f.sms.sentCount())
}

func TestService_Notify_SkipsChannelsWithoutContact(t *testing.T) {
	f := newServiceFixture(t, users.User{ID: "u1"}) // no email, no phone

	_, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	f.service.Wait()

	assert.Zero(t, f.email.sentCount())
	assert.Zero(t, f.sms.sentCount())
}

func TestService_Notify_DeliveryFailureDoesNotFailCall(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))
	f.email.err = errors.New("postmark down")

	notif, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	f.service.Wait()

	stored, err := f.storage.Get(context.Background(), "u1", notif.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Message)

	// Sibling channels are unaffected by the email failure.
	assert.Equal(t, 1, f.sms.sentCount())
}

func TestService_Notify_EvictsGonePushSubscriptions(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	_, err := f.subs.Upsert(context.Background(), "https://push.example/stale", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
	require.NoError(t, err)
	_, err = f.subs.Upsert(context.Background(), "https://push.example/live", subscriptions.Keys{P256dh: "p", Auth: "a"}, "u1")
	require.NoError(t, err)
	f.push.errFor["https://push.example/stale"] = webpush.ErrSubscriptionGone

	_, err = f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	f.service.Wait()

	remaining, err := f.subs.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "https://push.example/live", remaining[0].Endpoint)
}

func TestService_Notify_DeliverySurvivesCallerCancellation(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := f.service.Notify(ctx, notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	cancel()
	f.service.Wait()

	assert.Equal(t, 1, f.email.sentCount())
	assert.Equal(t, 1, f.sms.sentCount())
}

func TestService_MarkRead(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	notif, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
	require.NoError(t, err)
	f.service.Wait()

	require.NoError(t, f.service.MarkRead(context.Background(), "u1", notif.ID))

	unread, err := f.service.CountUnread(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)

	err = f.service.MarkRead(context.Background(), "u2", notif.ID)
	assert.ErrorIs(t, err, notifications.ErrNotificationNotFound)
}

func TestService_List_ReturnsTotal(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	for i := 0; i < 3; i++ {
		_, err := f.service.Notify(context.Background(), notifications.Request{UserID: "u1", Message: "hi"})
		require.NoError(t, err)
	}
	f.service.Wait()

	items, total, err := f.service.List(context.Background(), "u1", notifications.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.EqualValues(t, 3, total)
}

func TestService_NotifyNewMessage(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("u1"))

	t.Run("push only", func(t *testing.T) {
		notif, err := f.service.NotifyNewMessage(context.Background(), notifications.MessageEvent{
			RecipientID:    "u1",
			SenderID:       "u2",
			SenderName:     "Alex",
			ConversationID: "c1",
			MessageID:      "m1",
			Text:           "hello there",
		})
		require.NoError(t, err)
		f.service.Wait()

		assert.Equal(t, "New message from Alex", notif.Title)
		assert.Equal(t, notifications.TypeChatMessage, notif.Type)
		assert.Equal(t, "u2", notif.SenderID)
		assert.Equal(t, "/chats/c1", notif.Payload["link"])
		assert.Zero(t, f.email.sentCount())
		assert.Zero(t, f.sms.sentCount())
	})

	t.Run("long text is truncated", func(t *testing.T) {
		notif, err := f.service.NotifyNewMessage(context.Background(), notifications.MessageEvent{
			RecipientID: "u1",
			Text:        strings.Repeat("x", 200),
		})
		require.NoError(t, err)
		f.service.Wait()

		runes := []rune(notif.Message)
		assert.Len(t, runes, 118)
		assert.True(t, strings.HasSuffix(notif.Message, "…"))
	})

	t.Run("empty text gets placeholder", func(t *testing.T) {
		notif, err := f.service.NotifyNewMessage(context.Background(), notifications.MessageEvent{RecipientID: "u1"})
		require.NoError(t, err)
		f.service.Wait()

		assert.Equal(t, "You received a new message", notif.Message)
		assert.Equal(t, "New message from Someone", notif.Title)
	})
}

func TestService_NotifyBookingCreated(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("customer"), fullContactUser("provider"))

	err := f.service.NotifyBookingCreated(context.Background(), notifications.BookingEvent{
		BookingID:    "b1",
		CustomerID:   "customer",
		ProviderID:   "provider",
		ServiceTitle: "Haircut",
	})
	require.NoError(t, err)
	f.service.Wait()

	customerItems, _, err := f.service.List(context.Background(), "customer", notifications.ListOptions{})
	require.NoError(t, err)
	require.Len(t, customerItems, 1)
	assert.Equal(t, notifications.TypeBookingCreated, customerItems[0].Type)
	assert.Equal(t, "Your booking for Haircut has been created.", customerItems[0].Message)
	assert.Equal(t, "/bookings/b1", customerItems[0].Payload["link"])

	providerItems, _, err := f.service.List(context.Background(), "provider", notifications.ListOptions{})
	require.NoError(t, err)
	require.Len(t, providerItems, 1)
	assert.Equal(t, notifications.TypeBookingReceived, providerItems[0].Type)
	assert.Equal(t, "/provider/bookings/b1", providerItems[0].Payload["link"])
}

func TestService_NotifyBookingCreated_PartialFailure(t *testing.T) {
	f := newServiceFixture(t, fullContactUser("customer")) // provider unknown

	err := f.service.NotifyBookingCreated(context.Background(), notifications.BookingEvent{
		BookingID:  "b1",
		CustomerID: "customer",
		ProviderID: "ghost",
	})
	assert.ErrorIs(t, err, notifications.ErrRecipientNotFound)
	f.service.Wait()

	// Customer side still went through.
	items, _, listErr := f.service.List(context.Background(), "customer", notifications.ListOptions{})
	require.NoError(t, listErr)
	assert.Len(t, items, 1)
}
