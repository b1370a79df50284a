package transfer

import (
	"context"
	"fmt"
	"time"

	"wsdrop/internal/config"
	"wsdrop/internal/observability"
	"wsdrop/internal/processor"
	"wsdrop/internal/transport"
	"wsdrop/pkg/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Sender is the outbound half of the channel
type Sender interface {
	SendControl(msg transport.Message) error
	SendChunk(p []byte) error
}

// Engine drives one transfer at a time through its chunk sequence
type Engine struct {
	sender    Sender
	loader    processor.Loader
	chunkSize int
	delay     time.Duration
	metrics   *observability.Metrics
}

func NewEngine(cfg *config.Config, sender Sender, loader processor.Loader, metrics *observability.Metrics) *Engine {
	return &Engine{
		sender:    sender,
		loader:    loader,
		chunkSize: cfg.Transfer.ChunkSize,
		delay:     cfg.Transfer.ChunkDelay,
		metrics:   metrics,
	}
}

// Run announces task, loads its content and sends it chunk by chunk, waiting
// the pacing delay between chunks. progress, if not nil, follows the actual
// percent. The caller must not run two transfers on one Sender concurrently.
func (e *Engine) Run(ctx context.Context, task types.Task, progress *Progress) (*Transfer, error) {
	id := uuid.NewString()
	logger := log.With().
		Str("transfer_id", id).
		Str("file", task.Name).
		Int64("size", task.Size).
		Logger()

	t, err := e.run(ctx, id, task, progress)
	e.metrics.ObserveTransfer(err)
	if err != nil {
		logger.Error().Err(err).Msg("transfer failed")
		return nil, err
	}

	logger.Info().Int("frames", t.Cursor()).Msg("transfer sent")
	return t, nil
}

func (e *Engine) run(ctx context.Context, id string, task types.Task, progress *Progress) (*Transfer, error) {
	progress.Set(0)

	if err := e.sender.SendControl(transport.FileMessage{File: task.Name, Size: task.Size}); err != nil {
		return nil, fmt.Errorf("failed to announce %s: %w", task.Name, err)
	}

	buffer, err := e.loader.Load(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", task.Name, err)
	}

	t, err := New(task, buffer, e.chunkSize)
	if err != nil {
		return nil, err
	}
	t.ID = id

	for {
		chunk, ok := t.NextChunk()
		if !ok {
			return t, nil
		}
		if err := e.sender.SendChunk(chunk); err != nil {
			return nil, fmt.Errorf("failed to send chunk %d of %s: %w", t.Cursor(), task.Name, err)
		}
		t.Advance()
		progress.Set(t.Percent())
		e.metrics.ObserveChunk(len(chunk))

		if t.Done() {
			return t, nil
		}
		if err := e.pace(ctx); err != nil {
			return nil, err
		}
	}
}

func (e *Engine) pace(ctx context.Context) error {
	if e.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
