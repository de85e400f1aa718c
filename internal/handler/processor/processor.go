// Package processor provides the steps an invocation passes through, applied in order to a shared models.Bus.
package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/bridge-sync/internal/models"
)

// Option is a function that applies an option to a Processor.
type Option = func(Processor)

// Processor is an interface that defines a method to process a bus.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, bus *models.Bus) error
}

// Process runs the processors in order and stops at the first error.
func Process(ctx context.Context, logger *slog.Logger, bus *models.Bus, processors ...Processor) error {
	for _, p := range processors {
		p.SetLogger(logger)
		if err := p.Process(ctx, bus); err != nil {
			return err
		}
	}
	return nil
}

// ProcessAll runs every processor. Errors are logged and do not stop the remaining processors.
func ProcessAll(ctx context.Context, logger *slog.Logger, bus *models.Bus, processors ...Processor) {
	for _, p := range processors {
		p.SetLogger(logger)
		if err := p.Process(ctx, bus); err != nil {
			logger.Warn("post-processor failed", slog.Any("error", err))
		}
	}
}

// WithLogger sets the processor's logger at construction time.
func WithLogger(logger *slog.Logger) Option {
	return func(p Processor) {
		p.SetLogger(logger)
	}
}

func applyOpts(m Processor, opts ...Option) {
	for _, opt := range opts {
		opt(m)
	}
}
