package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	wp "github.com/SherClockHolmes/webpush-go"

	"github.com/localserve/notify/pkg/subscriptions"
)

// Message is the payload shown by the browser's service worker:
// a title, a body line, and arbitrary data interpreted by the client.
type Message struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender delivers web push messages using the VAPID protocol.
type Sender struct {
	cfg    Config
	client *http.Client
}

// New creates a web push sender. It returns ErrNotConfigured when the VAPID
// key pair is absent, so the composition root can leave the channel disabled.
func New(cfg Config) (*Sender, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, ErrNotConfigured
	}
	return &Sender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// PublicKey returns the VAPID public key clients need to subscribe.
func (s *Sender) PublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send delivers one message to one subscription. A permanently invalid
// subscription (HTTP 404/410 from the push service) yields an error matching
// ErrSubscriptionGone so the caller can evict the registration; any other
// failure is transient.
func (s *Sender) Send(ctx context.Context, sub subscriptions.Subscription, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webpush: failed to marshal payload: %w", err)
	}

	resp, err := wp.SendNotificationWithContext(ctx, payload, &wp.Subscription{
		Endpoint: sub.Endpoint,
		Keys: wp.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &wp.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subject,
		TTL:             s.cfg.TTL,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
	})
	if err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: push service returned %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: push service returned %d", ErrDeliveryFailed, resp.StatusCode)
	}

	return nil
}

// GenerateVAPIDKeys creates a new VAPID key pair. Exposed for operational
// tooling; the keys are expected to be provisioned via the environment.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return wp.GenerateVAPIDKeys()
}
