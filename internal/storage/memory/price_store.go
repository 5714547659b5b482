package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/storage"
)

// priceKey is the unique key of a price point.
type priceKey struct {
	base, quote string
	timestamp   int64
}

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu   sync.RWMutex
	data map[priceKey]*domain.PricePoint

	now func() time.Time
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{
		data: make(map[priceKey]*domain.PricePoint),
		now:  time.Now,
	}
}

// Insert stores a copy of p unless its key is present.
func (s *PriceStore) Insert(ctx context.Context, p *domain.PricePoint) (bool, error) {
	if err := storage.Validate(p); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, storage.Failure(p, err)
	}

	key := priceKey{p.BaseToken, p.QuoteToken, p.BlockTimestamp}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return false, nil
	}

	pointCopy := *p
	pointCopy.CreatedAt = s.now().UnixMilli()
	s.data[key] = &pointCopy
	return true, nil
}

// GetByPair retrieves all points of a pair, ordered by block_timestamp ASC.
func (s *PriceStore) GetByPair(_ context.Context, baseToken, quoteToken string) ([]*domain.PricePoint, error) {
	return s.filter(func(p *domain.PricePoint) bool {
		return p.BaseToken == baseToken && p.QuoteToken == quoteToken
	}), nil
}

// GetByTimeRange retrieves points of a pair within [start, end] (inclusive).
func (s *PriceStore) GetByTimeRange(_ context.Context, baseToken, quoteToken string, start, end int64) ([]*domain.PricePoint, error) {
	return s.filter(func(p *domain.PricePoint) bool {
		return p.BaseToken == baseToken && p.QuoteToken == quoteToken &&
			p.BlockTimestamp >= start && p.BlockTimestamp <= end
	}), nil
}

// Len returns the number of stored points.
func (s *PriceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *PriceStore) filter(match func(*domain.PricePoint) bool) []*domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data {
		if match(p) {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BlockTimestamp < result[j].BlockTimestamp
	})

	return result
}

var _ storage.PriceStore = (*PriceStore)(nil)
