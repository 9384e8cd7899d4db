package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/localserve/notify/modules/notify"
	"github.com/localserve/notify/pkg/config"
	"github.com/localserve/notify/pkg/email"
	"github.com/localserve/notify/pkg/httpserver"
	"github.com/localserve/notify/pkg/jwt"
	"github.com/localserve/notify/pkg/logger"
	"github.com/localserve/notify/pkg/mongo"
	"github.com/localserve/notify/pkg/notifications"
	"github.com/localserve/notify/pkg/presence"
	"github.com/localserve/notify/pkg/redis"
	"github.com/localserve/notify/pkg/sms"
	"github.com/localserve/notify/pkg/subscriptions"
	"github.com/localserve/notify/pkg/users"
	"github.com/localserve/notify/pkg/webpush"
)

type appConfig struct {
	AppName     string `env:"APP_NAME" envDefault:"localserve-notify"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// WebAppURL is the public frontend URL, used for default email links.
	WebAppURL string `env:"WEBAPP_URL"`

	// JWTSecret verifies access tokens issued by the auth service.
	JWTSecret string `env:"JWT_SECRET,required"`

	// DevEmailDir enables the file-based email sender when Postmark is not
	// configured. Empty leaves the email channel disabled instead.
	DevEmailDir string `env:"DEV_EMAIL_DIR"`

	UnreadCacheTTL time.Duration `env:"UNREAD_CACHE_TTL" envDefault:"1m"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}
	var httpCfg httpserver.Config
	var mongoCfg mongo.Config
	var redisCfg redis.Config
	var pushCfg webpush.Config
	var emailCfg email.Config
	var smsCfg sms.Config
	for _, err := range []error{
		config.Load(&httpCfg),
		config.Load(&mongoCfg),
		config.Load(&redisCfg),
		config.Load(&pushCfg),
		config.Load(&emailCfg),
		config.Load(&smsCfg),
	} {
		if err != nil {
			return err
		}
	}

	log := logger.New(logger.WithEnvironment(appCfg.Environment, appCfg.AppName))
	logger.SetAsDefault(log)

	ctx := context.Background()

	client, err := mongo.New(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error("Failed to disconnect from mongo", logger.Error(err))
		}
	}()
	db := client.Database(mongoCfg.Database)

	storage := notifications.NewMongoStorage(db)
	if err := storage.EnsureIndexes(ctx); err != nil {
		return err
	}
	subs := subscriptions.NewMongoStore(db)
	if err := subs.EnsureIndexes(ctx); err != nil {
		return err
	}
	directory := users.NewMongoDirectory(db)

	healthChecks := []func(context.Context) error{mongo.Healthcheck(client)}

	jwtService, err := jwt.NewFromString(appCfg.JWTSecret)
	if err != nil {
		return err
	}

	hub := presence.NewHub(presence.WithLogger(log))
	defer hub.Close()

	serviceOpts := []notifications.ServiceOption{
		notifications.WithBroadcaster(hub),
		notifications.WithServiceLogger(log),
		notifications.WithAppName(appCfg.AppName),
		notifications.WithAppURL(appCfg.WebAppURL),
	}

	var vapidPublicKey string
	pushSender, err := webpush.New(pushCfg)
	switch {
	case err == nil:
		vapidPublicKey = pushSender.PublicKey()
		serviceOpts = append(serviceOpts, notifications.WithPushSender(pushSender))
	case errors.Is(err, webpush.ErrNotConfigured):
		log.Info("Web push disabled: VAPID keys not configured")
	default:
		return err
	}

	emailSender, err := email.NewPostmarkClient(emailCfg)
	switch {
	case err == nil:
		serviceOpts = append(serviceOpts, notifications.WithEmailSender(emailSender))
	case errors.Is(err, email.ErrNotConfigured):
		if appCfg.DevEmailDir != "" {
			serviceOpts = append(serviceOpts, notifications.WithEmailSender(email.NewDevSender(appCfg.DevEmailDir)))
			log.Info("Email channel using development file sender", slog.String("dir", appCfg.DevEmailDir))
		} else {
			log.Info("Email disabled: Postmark tokens not configured")
		}
	default:
		return err
	}

	smsSender, err := sms.New(smsCfg)
	switch {
	case err == nil:
		serviceOpts = append(serviceOpts, notifications.WithSMSSender(smsSender))
	case errors.Is(err, sms.ErrNotConfigured):
		log.Info("SMS disabled: Twilio credentials not configured")
	default:
		return err
	}

	if redisCfg.ConnectionURL != "" {
		redisClient, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		serviceOpts = append(serviceOpts,
			notifications.WithUnreadCache(notifications.NewUnreadCache(redisClient, appCfg.UnreadCacheTTL)))
		healthChecks = append(healthChecks, redis.Healthcheck(redisClient))
	}

	service := notifications.NewService(storage, directory, subs, serviceOpts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, healthChecks...))
	r.Get("/ws", notify.WSHandler(jwtService, hub, log))
	r.Mount("/api/notifications", notify.Router(notify.RouterConfig{
		Service:        service,
		Subscriptions:  subs,
		JWT:            jwtService,
		VAPIDPublicKey: vapidPublicKey,
		Logger:         log,
	}))

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("Draining in-flight notification deliveries")
			service.Wait()
			hub.Close()
		}),
	)

	return srv.Run(ctx, r)
}
