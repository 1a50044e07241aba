// Package telemetry reports errors and spans to Sentry when a DSN is configured.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/akolanti/docsync/pkg/logger_i"
)

const serviceName = "docsync"

type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
}

var enabled bool

// Init returns a flush function. With an empty DSN both Init and the
// returned function are no-ops.
func Init(cfg Config) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		ServerName:       serviceName,
	})
	if err != nil {
		logger_i.NewLogger("telemetry").Warn("sentry init failed, continuing without it", "error", err)
		return func() {}, nil
	}
	enabled = true

	logger_i.NewLogger("telemetry").Info("sentry initialized", "environment", cfg.Environment)
	return func() { sentry.Flush(5 * time.Second) }, nil
}

func Enabled() bool {
	return enabled
}

func CaptureError(ctx context.Context, err error) {
	if !enabled || err == nil {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

func AddBreadcrumb(ctx context.Context, category, message string) {
	if !enabled {
		return
	}
	breadcrumb := &sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.AddBreadcrumb(breadcrumb, nil)
		return
	}
	sentry.AddBreadcrumb(breadcrumb)
}

type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	if s != nil && s.inner != nil {
		s.inner.Finish()
	}
}

func (s *Span) SetError(err error) {
	if s == nil || s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	CaptureError(s.inner.Context(), err)
}

// StartSpan opens a child span when ctx already carries one, a transaction otherwise.
func StartSpan(ctx context.Context, op, name string) (context.Context, *Span) {
	if !enabled {
		return ctx, &Span{}
	}
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(op, sentry.WithDescription(name))
	} else {
		span = sentry.StartSpan(ctx, op, sentry.WithTransactionName(name))
	}
	return span.Context(), &Span{inner: span}
}
