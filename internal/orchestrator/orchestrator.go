// Package orchestrator runs the price pipeline for every registered pair
// at each triggering block: fetch → compute → convert → persist.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/observability"
	"github.com/vistastaking/indexers/internal/oracle"
	"github.com/vistastaking/indexers/internal/pairs"
	"github.com/vistastaking/indexers/internal/pricing"
	"github.com/vistastaking/indexers/internal/storage"
	"github.com/vistastaking/indexers/internal/twap"
)

// DefaultConcurrency bounds the number of pairs evaluated at once.
const DefaultConcurrency = 4

// LatestCache receives every point after it was persisted.
type LatestCache interface {
	SetLatest(ctx context.Context, p *domain.PricePoint) (bool, error)
}

// Orchestrator evaluates registered pairs per block.
// ProcessBlock is safe for concurrent use.
type Orchestrator struct {
	registry    *Registry
	fetcher     oracle.Fetcher
	store       storage.PriceStore
	cache       LatestCache
	log         *logrus.Entry
	concurrency int
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Fetcher oracle.Fetcher
	Store   storage.PriceStore

	// Optional
	Cache       LatestCache
	Logger      logrus.FieldLogger
	Concurrency int // defaults to DefaultConcurrency
}

// New creates a new Orchestrator with an empty registry.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	return &Orchestrator{
		registry:    NewRegistry(),
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		cache:       opts.Cache,
		log:         logger.WithField("component", "orchestrator"),
		concurrency: concurrency,
	}
}

// Register validates pair and adds the standard evaluation for it.
func (o *Orchestrator) Register(pair domain.PairDescriptor) error {
	if err := pairs.Validate(pair); err != nil {
		return err
	}
	return o.registry.Add(pair, func(ctx context.Context, block domain.BlockRef) domain.EvaluationOutcome {
		return o.evaluate(ctx, pair, block)
	})
}

// RegisterEvaluation adds a custom evaluation for pair.
func (o *Orchestrator) RegisterEvaluation(pair domain.PairDescriptor, eval Evaluation) error {
	return o.registry.Add(pair, eval)
}

// Pairs returns the registered pairs in registration order.
func (o *Orchestrator) Pairs() []domain.PairDescriptor {
	return o.registry.Pairs()
}

// ProcessBlock evaluates every registered pair at block and returns one
// outcome per pair in registration order. A failing pair never affects
// the others.
func (o *Orchestrator) ProcessBlock(ctx context.Context, block domain.BlockRef) []domain.EvaluationOutcome {
	entries := o.registry.snapshot()
	outcomes := make([]domain.EvaluationOutcome, len(entries))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			outcomes[i] = runEvaluation(ctx, e, block)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, out := range outcomes {
		if out.Skipped() {
			failed++
		}
	}
	observability.RecordBlock(block.Number, block.Timestamp, failed == 0)
	o.log.WithFields(logrus.Fields{
		"block":     block.Number,
		"timestamp": block.Timestamp,
		"pairs":     len(outcomes),
		"skipped":   failed,
	}).Debug("block processed")

	return outcomes
}

// runEvaluation turns a panicking evaluation into a skipped outcome.
func runEvaluation(ctx context.Context, e registration, block domain.BlockRef) (out domain.EvaluationOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = domain.EvaluationOutcome{
				Pair:  e.pair,
				Block: block,
				Stage: domain.StageFetching,
				Err:   fmt.Errorf("evaluation panicked: %v", r),
			}
		}
	}()
	return e.eval(ctx, block)
}

func (o *Orchestrator) evaluate(ctx context.Context, pair domain.PairDescriptor, block domain.BlockRef) (out domain.EvaluationOutcome) {
	start := time.Now()
	out = domain.EvaluationOutcome{Pair: pair, Block: block, Stage: domain.StageFetching}
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("panic while %s: %v", out.Stage, r)
		}
		o.report(out, time.Since(start))
	}()

	obs, err := o.fetcher.Observe(ctx, pair, block)
	if err != nil {
		out.Err = err
		return out
	}

	out.Stage = domain.StageComputing
	tick, err := twap.FromObservations(obs)
	if err != nil {
		out.Err = err
		return out
	}
	out.Tick = tick

	out.Stage = domain.StageConverting
	price, priceFloat, err := pricing.Convert(tick, pair)
	if err != nil {
		out.Err = err
		return out
	}
	out.Point = &domain.PricePoint{
		BaseToken:      pair.Base.Symbol,
		QuoteToken:     pair.Quote.Symbol,
		Price:          priceFloat,
		PriceDecimal:   price,
		BlockNumber:    block.Number,
		BlockTimestamp: block.Timestamp,
	}

	out.Stage = domain.StagePersisting
	if err := ctx.Err(); err != nil {
		out.Err = fmt.Errorf("write not attempted: %w", err)
		return out
	}
	inserted, err := o.store.Insert(ctx, out.Point)
	if err != nil {
		out.Err = err
		return out
	}
	out.Inserted = inserted
	out.Stage = domain.StageDone

	if o.cache != nil {
		if _, err := o.cache.SetLatest(ctx, out.Point); err != nil {
			o.log.WithFields(logrus.Fields{
				"pair":  pair.ID(),
				"block": block.Number,
			}).WithError(err).Warn("latest price cache update failed")
		}
	}

	return out
}

func (o *Orchestrator) report(out domain.EvaluationOutcome, elapsed time.Duration) {
	id := out.Pair.ID()

	if out.Skipped() {
		observability.RecordEvaluation(id, "skipped", string(out.Stage), elapsed.Seconds())
		o.log.WithFields(logrus.Fields{
			"pair":      id,
			"block":     out.Block.Number,
			"timestamp": out.Block.Timestamp,
			"stage":     out.Stage,
			"reason":    out.Err.Error(),
		}).Warn("pair skipped")
		return
	}

	observability.RecordEvaluation(id, "ok", string(out.Stage), elapsed.Seconds())
	observability.RecordPersisted(id, out.Inserted, out.Point.Price)
	o.log.WithFields(logrus.Fields{
		"pair":      id,
		"price":     out.Point.PriceDecimal.String(),
		"tick":      out.Tick,
		"block":     out.Block.Number,
		"timestamp": out.Block.Timestamp,
		"inserted":  out.Inserted,
	}).Info("price recorded")
}
