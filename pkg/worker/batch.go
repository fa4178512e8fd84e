// Package worker runs the queue-driven pipeline stages, either by polling
// SQS or as a Lambda SQS event handler.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/genrelay/pkg/queue"
	"golang.org/x/sync/errgroup"
)

const batchConcurrency = 4

// ProcessFunc handles a single message. A returned error fails only that
// message.
type ProcessFunc func(ctx context.Context, m queue.Message) error

// Failure is a message that could not be processed.
type Failure struct {
	Message queue.Message
	Err     error
}

type BatchResult struct {
	Succeeded []queue.Message
	Failed    []Failure
}

// Batch runs fn for every message and collects per-message outcomes in
// input order. A failing or panicking message does not affect the others.
func Batch(ctx context.Context, msgs []queue.Message, fn ProcessFunc) *BatchResult {
	errs := make([]error, len(msgs))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, m := range msgs {
		g.Go(func() error {
			errs[i] = safeProcess(ctx, m, fn)
			return nil
		})
	}
	_ = g.Wait()

	r := &BatchResult{}
	for i, m := range msgs {
		if errs[i] != nil {
			slog.Error("message failed", "id", m.ID, "error", errs[i])
			r.Failed = append(r.Failed, Failure{Message: m, Err: errs[i]})
			continue
		}
		r.Succeeded = append(r.Succeeded, m)
	}
	return r
}

func safeProcess(ctx context.Context, m queue.Message, fn ProcessFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing message %s: %v", m.ID, r)
		}
	}()
	return fn(ctx, m)
}
