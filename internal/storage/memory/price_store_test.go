package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/storage"
)

func point(base, quote string, ts int64, price float64) *domain.PricePoint {
	return &domain.PricePoint{
		BaseToken:      base,
		QuoteToken:     quote,
		Price:          price,
		PriceDecimal:   decimal.NewFromFloat(price),
		BlockTimestamp: ts,
	}
}

func TestPriceStore_InsertAndGet(t *testing.T) {
	store := NewPriceStore()
	ctx := context.Background()

	for _, p := range []*domain.PricePoint{
		point("WETH", "USDC", 2000, 2001),
		point("WETH", "USDC", 1000, 2000),
	} {
		inserted, err := store.Insert(ctx, p)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		if !inserted {
			t.Fatalf("Expected inserted=true for %d", p.BlockTimestamp)
		}
	}

	result, err := store.GetByPair(ctx, "WETH", "USDC")
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].BlockTimestamp != 1000 || result[1].BlockTimestamp != 2000 {
		t.Errorf("Expected ascending timestamps, got %d, %d", result[0].BlockTimestamp, result[1].BlockTimestamp)
	}
	if result[0].CreatedAt == 0 {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestPriceStore_DoubleInsert(t *testing.T) {
	store := NewPriceStore()
	ctx := context.Background()

	if _, err := store.Insert(ctx, point("WETH", "USDC", 1000, 1.0)); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	inserted, err := store.Insert(ctx, point("WETH", "USDC", 1000, 2.0))
	if err != nil {
		t.Fatalf("Second insert returned error: %v", err)
	}
	if inserted {
		t.Error("Expected inserted=false for existing key")
	}

	result, _ := store.GetByPair(ctx, "WETH", "USDC")
	if len(result) != 1 || result[0].Price != 1.0 {
		t.Errorf("Expected single original row, got %+v", result)
	}
}

func TestPriceStore_ConcurrentInserts(t *testing.T) {
	store := NewPriceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	insertedCount := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := store.Insert(ctx, point("RPL", "WETH", 42, 0.01))
			if err != nil {
				t.Errorf("Insert failed: %v", err)
				return
			}
			if inserted {
				mu.Lock()
				insertedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if insertedCount != 1 {
		t.Errorf("Expected exactly one insert, got %d", insertedCount)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 stored point, got %d", store.Len())
	}
}

func TestPriceStore_InvalidInput(t *testing.T) {
	store := NewPriceStore()

	_, err := store.Insert(context.Background(), nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	_, err = store.Insert(context.Background(), point("WETH", "", 1, 1))
	if !errors.Is(err, storage.ErrPersistence) {
		t.Errorf("Expected ErrPersistence, got %v", err)
	}
}

func TestPriceStore_CancelledContext(t *testing.T) {
	store := NewPriceStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, point("WETH", "USDC", 1, 1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("Expected nothing stored")
	}
}

func TestPriceStore_GetByTimeRange(t *testing.T) {
	store := NewPriceStore()
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000, 4000} {
		_, _ = store.Insert(ctx, point("WETH", "USDC", ts, 1))
	}
	_, _ = store.Insert(ctx, point("RPL", "WETH", 2500, 1))

	result, err := store.GetByTimeRange(ctx, "WETH", "USDC", 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if result[0].BlockTimestamp != 2000 || result[1].BlockTimestamp != 3000 {
		t.Errorf("Unexpected timestamps %d, %d", result[0].BlockTimestamp, result[1].BlockTimestamp)
	}
}

func TestPriceStore_ReturnsCopies(t *testing.T) {
	store := NewPriceStore()
	ctx := context.Background()

	p := point("WETH", "USDC", 1, 1)
	_, _ = store.Insert(ctx, p)
	p.Price = 99

	result, _ := store.GetByPair(ctx, "WETH", "USDC")
	result[0].Price = 42

	again, _ := store.GetByPair(ctx, "WETH", "USDC")
	if again[0].Price != 1 {
		t.Errorf("Expected stored price 1, got %v", again[0].Price)
	}
}
