package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers SMS messages through Twilio.
type Sender struct {
	client *twilio.RestClient
	from   string
}

// New creates a Twilio-backed SMS sender. It returns ErrNotConfigured when
// the account credentials or sender number are absent, so the composition
// root can leave the SMS channel disabled.
func New(cfg Config) (*Sender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil, ErrNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Sender{client: client, from: cfg.FromNumber}, nil
}

// Send delivers one text message. The Twilio REST client does not accept a
// context, so cancellation is honored only before the request is issued.
func (s *Sender) Send(ctx context.Context, to, text string) error {
	if to == "" {
		return fmt.Errorf("%w: recipient number is required", ErrInvalidRecipient)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(text)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return errors.Join(ErrDeliveryFailed, err)
	}
	return nil
}
