// Package service runs the validation state machine: normalize, format
// check, cache, registry, cache write.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"rfcheck/internal/registry"
	"rfcheck/internal/validation/metrics"
	"rfcheck/internal/validation/models"
	"rfcheck/pkg/domain"
)

// Upstream checks a format-valid RFC against the registry.
type Upstream interface {
	Check(ctx context.Context, rfc domain.RFC) (*registry.Result, error)
}

// VerdictCache is the result cache keyed by normalized RFC.
type VerdictCache interface {
	Get(ctx context.Context, rfc string) (*models.Verdict, bool)
	Set(ctx context.Context, rfc string, verdict *models.Verdict) error
}

type Service struct {
	upstream Upstream
	cache    VerdictCache
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	group    singleflight.Group
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the clock used for responseTime.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(upstream Upstream, cache VerdictCache, opts ...Option) (*Service, error) {
	if upstream == nil {
		return nil, errors.New("upstream is required")
	}
	if cache == nil {
		return nil, errors.New("verdict cache is required")
	}
	s := &Service{
		upstream: upstream,
		cache:    cache,
		logger:   slog.Default(),
		tracer:   otel.Tracer("rfcheck/validation"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Validate always returns a verdict. Malformed input and registry failures
// are reported in the verdict, never as an error.
func (s *Service) Validate(ctx context.Context, req models.Request) *models.Verdict {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "validation.Validate",
		trace.WithAttributes(
			attribute.Bool("validation.force_refresh", req.ForceRefresh),
			attribute.Bool("validation.use_cache", req.CacheEnabled()),
		),
	)
	defer span.End()

	verdict := s.validate(ctx, req)

	span.SetAttributes(
		attribute.String("validation.outcome", verdict.Outcome()),
		attribute.String("validation.source", string(verdict.Source)),
		attribute.Bool("validation.cached", verdict.Cached),
	)
	if verdict.Valid == nil {
		span.SetStatus(codes.Error, verdict.Message)
	}
	s.metrics.IncrementValidation(verdict.Outcome(), string(verdict.Source))
	s.metrics.ObserveDuration(s.now().Sub(start).Seconds())
	return verdict
}

func (s *Service) validate(ctx context.Context, req models.Request) *models.Verdict {
	rfc, err := domain.ParseRFC(req.RFC)
	if err != nil {
		return &models.Verdict{
			Success: false,
			Valid:   models.Bool(false),
			RFC:     echoRFC(req.RFC),
			Message: models.MessageInvalidFormat,
		}
	}

	if !req.ForceRefresh && req.CacheEnabled() {
		if cached, ok := s.cache.Get(ctx, rfc.String()); ok {
			cached.Cached = true
			cached.Source = models.SourceCache
			// responseTime only describes a live call.
			cached.ResponseTime = 0
			return cached
		}
	}

	// A caller that is already gone must not start registry work.
	if ctx.Err() != nil {
		return cancelled(rfc)
	}
	if req.ForceRefresh {
		return s.live(ctx, rfc)
	}
	return s.shared(ctx, rfc)
}

// shared collapses concurrent misses for the same RFC into one registry call.
// The call outlives whichever caller started it; a caller whose context ends
// stops waiting and gets a cancelled verdict.
func (s *Service) shared(ctx context.Context, rfc domain.RFC) *models.Verdict {
	led := false
	ch := s.group.DoChan(rfc.String(), func() (any, error) {
		led = true
		return s.live(context.WithoutCancel(ctx), rfc), nil
	})
	select {
	case <-ctx.Done():
		return cancelled(rfc)
	case res := <-ch:
		// led is only written by this caller's own flight, before its result
		// is delivered.
		if !led {
			s.metrics.IncrementCollapsed()
		}
		out := *res.Val.(*models.Verdict)
		return &out
	}
}

func cancelled(rfc domain.RFC) *models.Verdict {
	return &models.Verdict{
		Success: false,
		Valid:   nil,
		RFC:     rfc.String(),
		Message: models.MessageCancelled,
	}
}

// live asks the registry and caches a successful answer, positive or negative.
func (s *Service) live(ctx context.Context, rfc domain.RFC) *models.Verdict {
	start := s.now()
	res, err := s.upstream.Check(ctx, rfc)
	elapsed := s.now().Sub(start).Milliseconds()
	if err != nil {
		s.logger.WarnContext(ctx, "registry lookup failed",
			"category", registry.GetCategory(err),
			"error", err,
		)
		return &models.Verdict{
			Success:      false,
			Valid:        nil,
			RFC:          rfc.String(),
			Message:      models.MessageUpstreamError,
			Source:       models.SourceLive,
			ResponseTime: elapsed,
		}
	}

	verdict := &models.Verdict{
		Success:      true,
		Valid:        models.Bool(res.Valid),
		RFC:          rfc.String(),
		Message:      res.Message,
		Source:       models.SourceLive,
		ResponseTime: elapsed,
		Name:         res.Name,
		Regime:       res.Regime,
		StartDate:    res.StartDate,
	}
	if err := s.cache.Set(ctx, rfc.String(), verdict); err != nil {
		s.logger.WarnContext(ctx, "verdict cache write failed", "error", err)
	}
	return verdict
}

// echoRFC returns the normalized input for the response, unless it is too
// long to echo back.
func echoRFC(input string) string {
	if len(input) > domain.MaxRFCInputLength {
		return ""
	}
	return domain.NormalizeRFC(input)
}
