package storage

import (
	"context"

	"github.com/vistastaking/indexers/internal/domain"
)

// Mirror is a secondary store that receives every point the primary accepted.
type Mirror struct {
	Name  string
	Store PriceStore
}

// MirrorErrorFunc is called when a mirror write fails.
type MirrorErrorFunc func(name string, p *domain.PricePoint, err error)

// MultiStore writes to a primary store and then to mirrors.
// The primary alone decides the Insert result; mirror failures are reported
// through onError and never fail the write.
type MultiStore struct {
	primary PriceStore
	mirrors []Mirror
	onError MirrorErrorFunc
}

// Compile-time interface check.
var _ PriceStore = (*MultiStore)(nil)

// NewMultiStore creates a MultiStore. onError may be nil.
func NewMultiStore(primary PriceStore, onError MirrorErrorFunc, mirrors ...Mirror) *MultiStore {
	return &MultiStore{primary: primary, mirrors: mirrors, onError: onError}
}

// Insert writes to the primary, then mirrors every point the primary holds.
// Mirrors also receive points the primary already had so a mirror that
// missed an earlier write catches up; mirrors are idempotent too.
func (m *MultiStore) Insert(ctx context.Context, p *domain.PricePoint) (bool, error) {
	inserted, err := m.primary.Insert(ctx, p)
	if err != nil {
		return false, err
	}

	for _, mirror := range m.mirrors {
		if _, err := mirror.Store.Insert(ctx, p); err != nil && m.onError != nil {
			m.onError(mirror.Name, p, err)
		}
	}
	return inserted, nil
}

// GetByPair reads from the primary.
func (m *MultiStore) GetByPair(ctx context.Context, baseToken, quoteToken string) ([]*domain.PricePoint, error) {
	return m.primary.GetByPair(ctx, baseToken, quoteToken)
}

// GetByTimeRange reads from the primary.
func (m *MultiStore) GetByTimeRange(ctx context.Context, baseToken, quoteToken string, start, end int64) ([]*domain.PricePoint, error) {
	return m.primary.GetByTimeRange(ctx, baseToken, quoteToken, start, end)
}
