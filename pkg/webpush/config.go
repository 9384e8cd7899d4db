package webpush

import "time"

// Config contains web push settings loaded from the environment.
// The VAPID key pair is optional; without it the push channel is disabled.
type Config struct {
	VAPIDPublicKey  string        `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string        `env:"VAPID_PRIVATE_KEY"`
	Subject         string        `env:"VAPID_SUBJECT" envDefault:"mailto:admin@localserve.example"`
	TTL             int           `env:"WEBPUSH_TTL" envDefault:"86400"`
	Timeout         time.Duration `env:"WEBPUSH_TIMEOUT" envDefault:"10s"`
}
