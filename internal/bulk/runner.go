package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"rfcheck/internal/denylist"
	"rfcheck/internal/validation/models"
)

// ErrBatchTooLarge is returned before any item is processed.
var ErrBatchTooLarge = errors.New("batch too large")

type Validator interface {
	Validate(ctx context.Context, req models.Request) *models.Verdict
}

// DenylistStore is the subset of denylist.Store the runner needs.
type DenylistStore interface {
	Lookup(ctx context.Context, rfc string) (denylist.Entry, error)
}

// Item is one row of the batch response.
type Item struct {
	RFC             string          `json:"rfc"`
	IsValid         bool            `json:"is_valid"`
	BlacklistStatus denylist.Status `json:"blacklist_status"`
	Description     string          `json:"description"`
}

type Runner struct {
	validator   Validator
	denylist    DenylistStore
	maxItems    int
	concurrency int
	logger      *slog.Logger
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithConcurrency bounds how many items run at once. 1 keeps the batch
// sequential.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func NewRunner(validator Validator, store DenylistStore, maxItems int, opts ...Option) (*Runner, error) {
	if validator == nil {
		return nil, errors.New("validator is required")
	}
	if store == nil {
		return nil, errors.New("denylist store is required")
	}
	if maxItems <= 0 {
		return nil, errors.New("max items must be positive")
	}
	r := &Runner{
		validator:   validator,
		denylist:    store,
		maxItems:    maxItems,
		concurrency: 1,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// MaxItems is the batch ceiling.
func (r *Runner) MaxItems() int {
	return r.maxItems
}

// Run checks every candidate and returns results in input order. A failing
// item is reported in its slot; it never aborts the batch.
//
// When ctx ends, no further items are started. Items already running finish
// with whatever their lookups returned, the rest are marked unprocessed, and
// the context error is returned alongside the full result slice.
func (r *Runner) Run(ctx context.Context, candidates []string) ([]Item, error) {
	if len(candidates) > r.maxItems {
		return nil, fmt.Errorf("%w: %d candidates, limit %d", ErrBatchTooLarge, len(candidates), r.maxItems)
	}

	results := make([]Item, len(candidates))
	var (
		g         errgroup.Group
		processed atomic.Int64
	)
	g.SetLimit(r.concurrency)
	scheduled := 0
	for i, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while the pool is full, so ctx is checked again once the
		// item actually gets a slot.
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = unprocessed(candidate, err)
				return nil
			}
			results[i] = r.check(ctx, candidate)
			processed.Add(1)
			return nil
		})
		scheduled++
	}
	_ = g.Wait()

	done := int(processed.Load())
	if done == len(candidates) {
		return results, nil
	}
	err := ctx.Err()
	for i := scheduled; i < len(candidates); i++ {
		results[i] = unprocessed(candidates[i], err)
	}
	r.logger.WarnContext(ctx, "bulk run interrupted",
		"processed", done,
		"total", len(candidates),
		"error", err,
	)
	return results, fmt.Errorf("bulk run interrupted after %d of %d items: %w", done, len(candidates), err)
}

func unprocessed(candidate string, cause error) Item {
	return Item{
		RFC:             candidate,
		IsValid:         false,
		BlacklistStatus: denylist.StatusUnknown,
		Description:     "not processed: " + cause.Error(),
	}
}

func (r *Runner) check(ctx context.Context, candidate string) Item {
	verdict := r.validator.Validate(ctx, models.Request{RFC: candidate})
	rfc := verdict.RFC
	if rfc == "" {
		rfc = candidate
	}
	item := Item{RFC: rfc, IsValid: verdict.IsValid()}

	entry, err := r.denylist.Lookup(ctx, rfc)
	if err != nil {
		r.logger.WarnContext(ctx, "denylist lookup failed", "error", err)
		item.BlacklistStatus = denylist.StatusUnknown
		item.Description = err.Error()
		return item
	}
	item.BlacklistStatus = entry.Status
	item.Description = entry.Description
	return item
}
