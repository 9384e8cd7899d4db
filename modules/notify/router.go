package notify

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/localserve/notify/pkg/jwt"
	"github.com/localserve/notify/pkg/notifications"
	"github.com/localserve/notify/pkg/subscriptions"
)

// RouterConfig wires the notification REST surface.
type RouterConfig struct {
	Service       *notifications.Service
	Subscriptions subscriptions.Store
	JWT           *jwt.Service

	// VAPIDPublicKey is served to clients for push registration.
	// Leave empty when the push channel is disabled.
	VAPIDPublicKey string

	Logger *slog.Logger
}

// Router creates the notification module router, meant to be mounted under
// /api/notifications.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/api/notifications", notify.Router(notify.RouterConfig{
//		Service:       svc,
//		Subscriptions: subs,
//		JWT:           jwtSvc,
//	}))
func Router(cfg RouterConfig) chi.Router {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := &handlers{
		service:        cfg.Service,
		subs:           cfg.Subscriptions,
		vapidPublicKey: cfg.VAPIDPublicKey,
		log:            log,
	}

	r := chi.NewRouter()

	r.Get("/vapid", h.vapid)

	// Subscribe endpoints accept anonymous callers; the identity is attached
	// when a valid token is present.
	r.Group(func(r chi.Router) {
		r.Use(jwt.OptionalMiddleware(cfg.JWT))
		r.Post("/subscribe", h.subscribe)
		r.Post("/unsubscribe", h.unsubscribe)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(cfg.JWT))
		r.Get("/", h.list)
		r.Get("/unread-count", h.unreadCount)
		r.Put("/{id}/read", h.markRead)
	})

	return r
}
