package sms

// Config contains Twilio credentials loaded from the environment.
// All fields are optional; without them the SMS channel is disabled.
type Config struct {
	AccountSID string `env:"TWILIO_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_PHONE_FROM"`
}
