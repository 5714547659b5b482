package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vistastaking/indexers/internal/domain"
)

// ErrDuplicatePair is returned when a pair ID is registered twice.
var ErrDuplicatePair = errors.New("pair already registered")

// Evaluation runs the full pipeline of one pair for one block.
// It never panics out and reports every failure in the outcome.
type Evaluation func(ctx context.Context, block domain.BlockRef) domain.EvaluationOutcome

type registration struct {
	pair domain.PairDescriptor
	eval Evaluation
}

// Registry is the ordered table of pairs and their evaluation closures.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
	ids     map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Add registers eval for pair. Pair IDs ("BASE/QUOTE") must be unique.
func (r *Registry) Add(pair domain.PairDescriptor, eval Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := pair.ID()
	if _, exists := r.ids[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePair, id)
	}
	r.ids[id] = struct{}{}
	r.entries = append(r.entries, registration{pair: pair, eval: eval})
	return nil
}

// Len returns the number of registered pairs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Pairs returns the registered descriptors in registration order.
func (r *Registry) Pairs() []domain.PairDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.PairDescriptor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.pair
	}
	return out
}

func (r *Registry) snapshot() []registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registration, len(r.entries))
	copy(out, r.entries)
	return out
}
