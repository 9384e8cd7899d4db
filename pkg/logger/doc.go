// Package logger builds configured slog.Logger instances and provides
// attribute helpers shared across the notification engine.
//
// Loggers default to JSON output at INFO level, which suits production log
// aggregation. Development setups switch to text output at DEBUG level via
// WithDevelopment or WithEnvironment.
//
// Usage:
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "notify"))
//	log.Info("push delivered", logger.UserID(userID), logger.Endpoint(sub.Endpoint))
package logger
