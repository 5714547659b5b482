// Package indexer follows the chain head and hands triggering blocks to the
// orchestrator.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/observability"
)

// Defaults for RunnerOptions.
const (
	DefaultPollInterval = 12 * time.Second
	DefaultMaxCatchUp   = 64
)

// BlockSource resolves block numbers to block references.
type BlockSource interface {
	Latest(ctx context.Context) (domain.BlockRef, error)
	BlockRef(ctx context.Context, number uint64) (domain.BlockRef, error)
}

// BlockProcessor evaluates all pairs at one block.
type BlockProcessor interface {
	ProcessBlock(ctx context.Context, block domain.BlockRef) []domain.EvaluationOutcome
}

// Runner polls the head and processes every block whose number is a
// multiple of the block step, in ascending order.
type Runner struct {
	blocks       BlockSource
	processor    BlockProcessor
	blockStep    uint64
	pollInterval time.Duration
	maxCatchUp   uint64
	log          *logrus.Entry

	next uint64 // next triggering block; 0 until the first poll
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Blocks       BlockSource
	Processor    BlockProcessor
	BlockStep    uint64        // Default: 1 (every block)
	PollInterval time.Duration // Default: 12s
	StartBlock   uint64        // Default: first triggering block at or after the head
	MaxCatchUp   uint64        // Default: 64 triggering blocks; older ones are skipped
	Logger       logrus.FieldLogger
}

// NewRunner creates a new head poller.
func NewRunner(opts RunnerOptions) *Runner {
	step := opts.BlockStep
	if step == 0 {
		step = 1
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	maxCatchUp := opts.MaxCatchUp
	if maxCatchUp == 0 {
		maxCatchUp = DefaultMaxCatchUp
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Runner{
		blocks:       opts.Blocks,
		processor:    opts.Processor,
		blockStep:    step,
		pollInterval: interval,
		maxCatchUp:   maxCatchUp,
		log:          logger.WithField("component", "indexer"),
		next:         alignUp(opts.StartBlock, step),
	}
}

// Run polls until ctx is cancelled. Head lookup failures are logged and
// retried on the next tick.
func (r *Runner) Run(ctx context.Context) error {
	r.log.WithFields(logrus.Fields{
		"block_step":    r.blockStep,
		"poll_interval": r.pollInterval.String(),
	}).Info("indexer started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if err := r.Poll(ctx); err != nil && ctx.Err() == nil {
			r.log.WithError(err).Warn("poll failed")
		}

		select {
		case <-ctx.Done():
			r.log.Info("indexer stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll processes every triggering block up to the current head.
func (r *Runner) Poll(ctx context.Context) error {
	head, err := r.blocks.Latest(ctx)
	if err != nil {
		return fmt.Errorf("get head: %w", err)
	}
	observability.UpdateHeadBlock(head.Number)

	if r.next == 0 {
		r.next = alignUp(head.Number, r.blockStep)
	}

	if head.Number >= r.next {
		if lag := (head.Number - r.next) / r.blockStep; lag > r.maxCatchUp {
			skipTo := alignDown(head.Number, r.blockStep) - (r.maxCatchUp-1)*r.blockStep
			r.log.WithFields(logrus.Fields{
				"from": r.next,
				"to":   skipTo,
			}).Warn("indexer behind head, skipping blocks")
			r.next = skipTo
		}
	}

	for r.next <= head.Number {
		if err := ctx.Err(); err != nil {
			return err
		}

		block := head
		if r.next != head.Number {
			block, err = r.blocks.BlockRef(ctx, r.next)
			if err != nil {
				return fmt.Errorf("get block %d: %w", r.next, err)
			}
		}

		r.processor.ProcessBlock(ctx, block)
		r.next += r.blockStep
	}
	return nil
}

// Next returns the next block number the runner will process.
func (r *Runner) Next() uint64 {
	return r.next
}

// ProcessOne resolves number and processes it once, independent of the poller.
func ProcessOne(ctx context.Context, blocks BlockSource, processor BlockProcessor, number uint64) ([]domain.EvaluationOutcome, error) {
	block, err := blocks.BlockRef(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", number, err)
	}
	return processor.ProcessBlock(ctx, block), nil
}

func alignUp(n, step uint64) uint64 {
	if n%step == 0 {
		return n
	}
	return n + step - n%step
}

func alignDown(n, step uint64) uint64 {
	return n - n%step
}
