package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig carries the error-reporting knobs. An empty DSN disables
// reporting entirely; every CaptureException call becomes a no-op.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// SetupSentry initializes the Sentry client and returns the flush function
// for the shutdown path. With no DSN it returns a no-op flush and no error.
func SetupSentry(cfg SentryConfig) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
	})
	if err != nil {
		return noop, err
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}
