// Package service resolves a caller's quota for an operation and charges the
// fixed-window counter.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rfcheck/internal/audit"
	"rfcheck/internal/platform/config"
	"rfcheck/internal/ratelimit/metrics"
	"rfcheck/internal/ratelimit/models"
	"rfcheck/pkg/domain"
	platformstrings "rfcheck/pkg/platform/strings"
	"rfcheck/pkg/requestcontext"
)

// Counter is the fixed-window primitive.
type Counter interface {
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Policies maps caller kind and operation to a quota. A missing entry
// denies the call.
type Policies map[domain.CallerKind]map[models.Operation]models.Policy

// PoliciesFromConfig builds the tier table. Anonymous callers get no bulk
// quota.
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	return Policies{
		domain.CallerAnonymous: {
			models.OperationValidate: {Limit: cfg.AnonymousValidate, Window: cfg.ValidateWindow},
		},
		domain.CallerUser: {
			models.OperationValidate: {Limit: cfg.UserValidate, Window: cfg.ValidateWindow},
			models.OperationBulk:     {Limit: cfg.UserBulk, Window: cfg.BulkWindow},
		},
		domain.CallerAPIKey: {
			models.OperationValidate: {Limit: cfg.APIKeyValidate, Window: cfg.ValidateWindow},
			models.OperationBulk:     {Limit: cfg.APIKeyBulk, Window: cfg.BulkWindow},
		},
	}
}

func (p Policies) lookup(kind domain.CallerKind, op models.Operation) (models.Policy, bool) {
	ops, ok := p[kind]
	if !ok {
		return models.Policy{}, false
	}
	policy, ok := ops[op]
	return policy, ok
}

type Service struct {
	counter        Counter
	policies       Policies
	allowlist      map[string]struct{}
	auditPublisher AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAllowlist exempts caller ids (IPs, user ids or key ids) from limits.
func WithAllowlist(ids []string) Option {
	return func(s *Service) {
		for _, id := range platformstrings.DedupeAndTrim(ids) {
			s.allowlist[id] = struct{}{}
		}
	}
}

func New(counter Counter, policies Policies, opts ...Option) (*Service, error) {
	if counter == nil {
		return nil, errors.New("counter is required")
	}
	if policies == nil {
		return nil, errors.New("policies are required")
	}
	s := &Service{
		counter:   counter,
		policies:  policies,
		allowlist: make(map[string]struct{}),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check charges one request for caller against op.
func (s *Service) Check(ctx context.Context, caller domain.Caller, op models.Operation) (*models.Result, error) {
	if _, ok := s.allowlist[caller.ID]; ok {
		s.metrics.RecordBypass(caller.Kind.String())
		return models.Unlimited(requestcontext.Now(ctx)), nil
	}

	policy, ok := s.policies.lookup(caller.Kind, op)
	if !ok || policy.Window <= 0 {
		s.logger.WarnContext(ctx, "no rate limit policy, denying",
			"caller_kind", caller.Kind,
			"operation", op,
		)
		s.metrics.RecordDecision(caller.Kind.String(), string(op), false)
		return &models.Result{
			Allowed:      false,
			ResetSeconds: 60,
			ResetAt:      requestcontext.Now(ctx).Add(time.Minute),
			RetryAfter:   60,
		}, nil
	}

	key := models.Key(caller.Kind, caller.ID, op)
	res, err := s.counter.CheckAndIncrement(ctx, key, policy.Limit, policy.Window)
	if err != nil {
		s.metrics.IncrementCheckErrors()
		return nil, fmt.Errorf("check rate limit: %w", err)
	}
	s.metrics.RecordDecision(caller.Kind.String(), string(op), res.Allowed)

	if !res.Allowed && s.auditPublisher != nil {
		s.auditPublisher.Emit(ctx, audit.Event{
			Action:     audit.ActionRateLimitExceeded,
			CallerKind: caller.Kind,
			CallerID:   caller.ID,
			Subject:    key,
			Decision:   "denied",
			Reason:     fmt.Sprintf("limit %d per %s", policy.Limit, policy.Window),
		})
	}
	return res, nil
}
