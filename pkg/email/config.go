package email

// Config holds email service configuration.
// The Postmark tokens are optional; without them the email channel is
// disabled and notifications fall back to their other delivery channels.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@localserve.example"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@localserve.example"`
}
