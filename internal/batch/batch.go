// Package batch runs many classification requests through the engine
// with bounded concurrency.
package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/miwake-ai/miwake/internal/model"
)

// Resolver is the slice of the engine the processor needs.
type Resolver interface {
	Resolve(ctx context.Context, req model.Request) (*model.Result, error)
}

// Item is the outcome for one request in a batch. Exactly one of Result
// and Error is set.
type Item struct {
	RequestID string        `json:"request_id"`
	Result    *model.Result `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Processor fans a batch out over a bounded worker pool. Items are
// isolated: one failing request never aborts its siblings, only context
// cancellation stops the batch early.
type Processor struct {
	resolver    Resolver
	concurrency int
	logger      *slog.Logger
}

// New creates a processor. concurrency caps the number of requests
// resolved in parallel.
func New(resolver Resolver, concurrency int, logger *slog.Logger) *Processor {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{resolver: resolver, concurrency: concurrency, logger: logger}
}

// Process resolves all requests and returns one item per request, in
// input order.
func (p *Processor) Process(ctx context.Context, reqs []model.Request) []Item {
	start := time.Now()
	items := make([]Item, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			items[i].RequestID = req.RequestID
			if err := ctx.Err(); err != nil {
				items[i].Error = err.Error()
				return nil
			}
			res, err := p.resolver.Resolve(ctx, req)
			if err != nil {
				p.logger.Warn("batch: request failed",
					"request_id", req.RequestID,
					"error", err,
				)
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
		}
	}
	p.logger.Info("batch: processed",
		"total", len(reqs),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items
}
