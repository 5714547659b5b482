package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vistastaking/indexers/internal/cache"
	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/storage/memory"
)

type fakeLatest struct {
	price *cache.LatestPrice
	err   error
}

func (f *fakeLatest) GetLatest(context.Context, string, string) (*cache.LatestPrice, error) {
	return f.price, f.err
}

func seededStore(t *testing.T) *memory.PriceStore {
	t.Helper()
	store := memory.NewPriceStore()
	for i, price := range []string{"2000.5", "2001.25", "2002"} {
		d := decimal.RequireFromString(price)
		f, _ := d.Float64()
		_, err := store.Insert(context.Background(), &domain.PricePoint{
			BaseToken:      "WETH",
			QuoteToken:     "USDC",
			Price:          f,
			PriceDecimal:   d,
			BlockNumber:    uint64(100 + i),
			BlockTimestamp: int64(1000 + 12*i),
		})
		require.NoError(t, err)
	}
	return store
}

func newTestServer(t *testing.T, latest LatestReader) http.Handler {
	logger, _ := logtest.NewNullLogger()
	return NewServer(seededStore(t), latest, logger).Handler()
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHandlePrices(t *testing.T) {
	h := newTestServer(t, nil)

	rec := get(t, h, "/prices?base=WETH&quote=USDC")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "2000.5", got[0].PriceDecimal)
	assert.Equal(t, int64(1024), got[2].BlockTimestamp)

	rec = get(t, h, "/prices?base=WETH&quote=USDC&from=1010&to=1024")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(101), got[0].BlockNumber)

	rec = get(t, h, "/prices?base=RPL&quote=WETH")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestHandlePrices_BadRequests(t *testing.T) {
	h := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/prices?base=WETH").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/prices?base=WETH&quote=USDC&from=x").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/prices?base=WETH&quote=USDC&from=10&to=5").Code)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/prices?base=WETH&quote=USDC", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleLatest_FromStore(t *testing.T) {
	h := newTestServer(t, nil)

	rec := get(t, h, "/prices/latest?base=WETH&quote=USDC")
	require.Equal(t, http.StatusOK, rec.Code)

	var got PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "2002", got.PriceDecimal)
	assert.Equal(t, "store", got.Source)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/prices/latest?base=RPL&quote=WETH").Code)
}

func TestHandleLatest_FromCache(t *testing.T) {
	h := newTestServer(t, &fakeLatest{price: &cache.LatestPrice{
		BaseToken:      "WETH",
		QuoteToken:     "USDC",
		Price:          decimal.RequireFromString("2100.125"),
		BlockNumber:    200,
		BlockTimestamp: 5000,
	}})

	rec := get(t, h, "/prices/latest?base=WETH&quote=USDC")
	require.Equal(t, http.StatusOK, rec.Code)

	var got PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "cache", got.Source)
	assert.Equal(t, "2100.125", got.PriceDecimal)
	assert.Equal(t, 2100.125, got.Price)
}

func TestHandleLatest_CacheErrorFallsBack(t *testing.T) {
	h := newTestServer(t, &fakeLatest{err: errors.New("redis down")})

	rec := get(t, h, "/prices/latest?base=WETH&quote=USDC")
	require.Equal(t, http.StatusOK, rec.Code)

	var got PriceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "store", got.Source)
}

func TestHandleStatus(t *testing.T) {
	h := newTestServer(t, nil)
	get(t, h, "/prices?base=WETH&quote=USDC")

	rec := get(t, h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var got StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "running", got.Status)
	assert.Equal(t, int64(1), got.Requests)
	assert.False(t, got.Cache)

	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)
}
