// Package logger provides structured logging on top of log/slog with
// context extraction and optional Sentry error reporting.
//
// Context extractors inject request-scoped values (request ID, principal
// ID) into every log record at handle time, so authorization decisions can
// always be traced back to an identity:
//
//	log := logger.New(middlewares.PrincipalExtractor())
//	log.InfoContext(ctx, "access denied", slog.String("ability", "post.update"))
//
// For production error tracking, NewWithSentry routes warnings and errors
// to Sentry while keeping stdout JSON logs:
//
//	log := logger.NewWithSentry(logger.SentryConfig{
//	    DSN:         os.Getenv("SENTRY_DSN"),
//	    Environment: "production",
//	    MinLevel:    slog.LevelWarn,
//	})
//
// When no DSN is configured the Sentry path degrades to stdout-only
// logging, keeping local development friction-free.
package logger
