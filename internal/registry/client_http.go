package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"rfcheck/internal/platform/config"
	"rfcheck/pkg/domain"
)

// maxBody bounds how much of a registry response is read.
const maxBody = 2 << 20

// HTTPClient posts the RFC as a form to the registry endpoint. Every call
// carries its own timeout and waits on an outbound rate limiter.
type HTTPClient struct {
	endpoint   string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	tracer     trace.Tracer
}

type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		h.httpClient = c
	}
}

// WithLimiter replaces the outbound limiter. A nil limiter disables throttling.
func WithLimiter(l *rate.Limiter) HTTPOption {
	return func(h *HTTPClient) {
		h.limiter = l
	}
}

func NewHTTPClient(cfg config.UpstreamConfig, opts ...HTTPOption) (*HTTPClient, error) {
	if cfg.URL == "" {
		return nil, errors.New("upstream URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("upstream timeout must be positive")
	}

	c := &HTTPClient{
		endpoint:  cfg.URL,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		tracer: otel.Tracer("rfcheck/registry"),
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Fetch(ctx context.Context, rfc domain.RFC) (*RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "registry.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool("rfc.person", rfc.IsPerson())),
	)
	defer span.End()

	raw, err := c.fetch(ctx, rfc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(GetCategory(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", raw.StatusCode))
	return raw, nil
}

func (c *HTTPClient) fetch(ctx context.Context, rfc domain.RFC) (*RawResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewProviderError(ErrorTimeout, providerID, "outbound throttle wait exceeded timeout", err)
		}
	}

	form := url.Values{"rfc": {rfc.String()}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewProviderError(ErrorInternal, providerID, "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, NewProviderError(ErrorTimeout, providerID, "registry request timed out", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, providerID, "registry unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewProviderError(ErrorRateLimited, providerID, "registry throttled the request", nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, NewProviderError(ErrorProviderOutage, providerID, fmt.Sprintf("registry returned status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, NewProviderError(ErrorTimeout, providerID, "registry response timed out", err)
		}
		return nil, NewProviderError(ErrorBadData, providerID, "read response body", err)
	}
	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
