package sentry

import (
	"time"

	"coupon-drop/pkg/config"
	"coupon-drop/pkg/logger"

	"github.com/getsentry/sentry-go"
)

// Service reports unexpected errors to Sentry when enabled
type Service struct {
	enabled bool
	logger  *logger.Logger
}

// NewSentryService initializes the Sentry SDK if cfg enables it
func NewSentryService(cfg config.SentryConfig, log *logger.Logger) (*Service, error) {
	svc := &Service{enabled: cfg.Enabled, logger: log}
	if !cfg.Enabled {
		log.Info("Sentry is disabled")
		return svc, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    false,
		SampleRate:       cfg.SampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}

	log.Infow("Sentry initialized successfully",
		"environment", cfg.Environment,
		"sample_rate", cfg.SampleRate,
	)
	return svc, nil
}

// CaptureException captures an error in Sentry
func (s *Service) CaptureException(err error, tags map[string]string) {
	if s == nil || !s.enabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events before shutdown
func (s *Service) Flush() {
	if s == nil || !s.enabled {
		return
	}
	s.logger.Info("Flushing Sentry events before shutdown")
	sentry.Flush(2 * time.Second)
}
