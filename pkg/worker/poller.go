package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mchmarny/genrelay/pkg/queue"
)

const errorBackoff = 5 * time.Second

// Consumer receives and deletes messages from one queue.
type Consumer interface {
	Receive(ctx context.Context) ([]queue.Message, error)
	Delete(ctx context.Context, m queue.Message) error
}

// Poller feeds received messages to a ProcessFunc until its context ends.
// Failed messages are left on the queue and reappear after their visibility
// timeout.
type Poller struct {
	Consumer Consumer
	Process  ProcessFunc
	Name     string
	// Backoff is the pause after a receive error.
	Backoff time.Duration
}

func (p *Poller) Run(ctx context.Context) error {
	if p.Consumer == nil || p.Process == nil {
		return errors.New("consumer and process func required")
	}
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = errorBackoff
	}

	log := slog.With("worker", p.Name)
	log.Info("poller started")
	for {
		if ctx.Err() != nil {
			log.Info("poller stopped")
			return nil
		}

		if err := p.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			log.Error("poll failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
		}
	}
}

// poll processes one received batch.
func (p *Poller) poll(ctx context.Context) error {
	msgs, err := p.Consumer.Receive(ctx)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	r := Batch(ctx, msgs, p.Process)
	for _, m := range r.Succeeded {
		if err := p.Consumer.Delete(ctx, m); err != nil {
			slog.Error("delete failed", "worker", p.Name, "id", m.ID, "error", err)
		}
	}
	slog.Info("batch processed", "worker", p.Name, "succeeded", len(r.Succeeded), "failed", len(r.Failed))
	return nil
}
