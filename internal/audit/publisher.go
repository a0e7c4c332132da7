package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"rfcheck/pkg/requestcontext"
)

// Sink ships events off-process.
type Sink interface {
	Publish(ctx context.Context, events []Event) error
}

// Publisher logs every event and, when a sink is set, queues it for the
// background worker. Emit never blocks on the sink.
type Publisher struct {
	logger *slog.Logger
	sink   Sink
	buffer *RingBuffer
	notify chan struct{}
	batch  int

	retryInterval time.Duration
	maxRetry      time.Duration
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSink enables off-process delivery through s.
func WithSink(s Sink) Option {
	return func(p *Publisher) {
		p.sink = s
	}
}

// WithBufferSize bounds how many undelivered events are kept.
func WithBufferSize(n int) Option {
	return func(p *Publisher) {
		p.buffer = NewRingBuffer(n)
	}
}

// WithRetryInterval sets the first wait after a failed delivery. Later waits
// grow exponentially up to 30s.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Publisher) {
		p.retryInterval = d
	}
}

func NewPublisher(opts ...Option) *Publisher {
	p := &Publisher{
		logger:        slog.Default(),
		notify:        make(chan struct{}, 1),
		batch:         100,
		retryInterval: 500 * time.Millisecond,
		maxRetry:      30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer == nil {
		p.buffer = NewRingBuffer(0)
	}
	return p
}

// Emit records event. A nil Publisher only drops the event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	p.logger.InfoContext(ctx, string(event.Action),
		"log_type", "audit",
		"event", event.Action,
		"category", event.Category,
		"caller_kind", event.CallerKind,
		"caller_id", event.CallerID,
		"subject", event.Subject,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)

	if p.sink == nil {
		return
	}
	if p.buffer.Enqueue(event) {
		p.logger.WarnContext(ctx, "audit buffer full, dropped oldest event")
	}
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// Run delivers queued events to the sink until ctx is done, then makes one
// last bounded flush attempt. A failed batch goes back to the buffer and is
// retried on an exponential schedule; new events do not trigger attempts
// while a retry is pending.
func (p *Publisher) Run(ctx context.Context) error {
	if p.sink == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.retryInterval
	policy.MaxInterval = p.maxRetry
	policy.MaxElapsedTime = 0

	var retry *time.Timer
	var retryC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if retry != nil {
				retry.Stop()
			}
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			_ = p.flush(flushCtx)
			cancel()
			if n := p.buffer.Len(); n > 0 {
				p.logger.WarnContext(ctx, "audit events undelivered at shutdown", "count", n)
			}
			return ctx.Err()
		case <-p.notify:
			if retryC != nil {
				continue
			}
		case <-retryC:
			retryC = nil
		}

		if err := p.flush(ctx); err != nil {
			wait := policy.NextBackOff()
			if retry == nil {
				retry = time.NewTimer(wait)
			} else {
				retry.Reset(wait)
			}
			retryC = retry.C
			continue
		}
		policy.Reset()
	}
}

// flush publishes batches until the buffer is empty. On failure the batch is
// requeued and the error returned.
func (p *Publisher) flush(ctx context.Context) error {
	for {
		events := p.buffer.Drain(p.batch)
		if len(events) == 0 {
			return nil
		}
		if err := p.sink.Publish(ctx, events); err != nil {
			lost := p.buffer.Requeue(events)
			p.logger.ErrorContext(ctx, "failed to publish audit events",
				"error", err,
				"count", len(events),
				"dropped", lost,
			)
			return err
		}
	}
}

// Pending reports how many events are waiting for the sink.
func (p *Publisher) Pending() int {
	return p.buffer.Len()
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.buffer.Dropped()
}
