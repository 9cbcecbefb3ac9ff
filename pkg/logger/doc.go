// Package logger builds configured log/slog loggers with environment presets,
// static service attributes and optional per-record context extraction.
//
// Typed attribute helpers (Error, NotificationID, Recipient, ...) keep log
// field names consistent across the codebase.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Environment, "notify"),
//	    logger.WithContextValue("request_id", middleware.RequestIDKey),
//	)
//	logger.SetAsDefault(log)
package logger
