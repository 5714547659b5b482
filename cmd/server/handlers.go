package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vistastaking/indexers/internal/cache"
	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/observability"
	"github.com/vistastaking/indexers/internal/storage"
)

// LatestReader is the read side of the latest-price cache.
type LatestReader interface {
	GetLatest(ctx context.Context, base, quote string) (*cache.LatestPrice, error)
}

// Server serves stored prices over HTTP.
type Server struct {
	store   storage.PriceStore
	latest  LatestReader // optional
	log     *logrus.Entry
	started time.Time

	requests atomic.Int64
}

// PriceResponse is the JSON form of a stored price point.
type PriceResponse struct {
	BaseToken      string  `json:"base_token"`
	QuoteToken     string  `json:"quote_token"`
	Price          float64 `json:"price"`
	PriceDecimal   string  `json:"price_decimal"`
	BlockNumber    uint64  `json:"block_number"`
	BlockTimestamp int64   `json:"block_timestamp"`
	Source         string  `json:"source,omitempty"`
}

// StatusResponse is the response of /status.
type StatusResponse struct {
	Status   string    `json:"status"`
	Uptime   string    `json:"uptime"`
	Started  time.Time `json:"started"`
	Requests int64     `json:"requests"`
	Cache    bool      `json:"cache"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer creates a Server. latest may be nil.
func NewServer(store storage.PriceStore, latest LatestReader, logger logrus.FieldLogger) *Server {
	return &Server{
		store:   store,
		latest:  latest,
		log:     logger.WithField("component", "server"),
		started: time.Now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/prices", s.counted(s.handlePrices))
	mux.HandleFunc("/prices/latest", s.counted(s.handleLatest))
	return mux
}

func (s *Server) counted(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		h(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:   "running",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Started:  s.started,
		Requests: s.requests.Load(),
		Cache:    s.latest != nil,
	})
}

// handlePrices serves GET /prices?base=WETH&quote=USDC[&from=ts&to=ts].
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	base, quote, ok := pairParams(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var (
		points []*domain.PricePoint
		err    error
	)
	if q.Has("from") || q.Has("to") {
		from, to, perr := rangeParams(q.Get("from"), q.Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		points, err = s.store.GetByTimeRange(r.Context(), base, quote, from, to)
	} else {
		points, err = s.store.GetByPair(r.Context(), base, quote)
	}
	if err != nil {
		s.log.WithError(err).WithField("pair", base+"/"+quote).Error("query prices failed")
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	resp := make([]PriceResponse, 0, len(points))
	for _, p := range points {
		resp = append(resp, toResponse(p, ""))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLatest serves GET /prices/latest?base=WETH&quote=USDC, preferring the cache.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	base, quote, ok := pairParams(w, r)
	if !ok {
		return
	}

	if s.latest != nil {
		lp, err := s.latest.GetLatest(r.Context(), base, quote)
		if err != nil {
			s.log.WithError(err).Warn("cache read failed, falling back to store")
		} else if lp != nil {
			f, _ := lp.Price.Float64()
			writeJSON(w, http.StatusOK, PriceResponse{
				BaseToken:      lp.BaseToken,
				QuoteToken:     lp.QuoteToken,
				Price:          f,
				PriceDecimal:   lp.Price.String(),
				BlockNumber:    lp.BlockNumber,
				BlockTimestamp: lp.BlockTimestamp,
				Source:         "cache",
			})
			return
		}
	}

	points, err := s.store.GetByPair(r.Context(), base, quote)
	if err != nil {
		s.log.WithError(err).WithField("pair", base+"/"+quote).Error("query latest price failed")
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if len(points) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no prices for %s/%s", base, quote))
		return
	}
	writeJSON(w, http.StatusOK, toResponse(points[len(points)-1], "store"))
}

func pairParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	base := r.URL.Query().Get("base")
	quote := r.URL.Query().Get("quote")
	if base == "" || quote == "" {
		writeError(w, http.StatusBadRequest, "base and quote are required")
		return "", "", false
	}
	return base, quote, true
}

func rangeParams(fromStr, toStr string) (int64, int64, error) {
	from := int64(0)
	to := int64(1<<63 - 1)
	var err error
	if fromStr != "" {
		if from, err = strconv.ParseInt(fromStr, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid from: %q", fromStr)
		}
	}
	if toStr != "" {
		if to, err = strconv.ParseInt(toStr, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("invalid to: %q", toStr)
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("from %d is after to %d", from, to)
	}
	return from, to, nil
}

func toResponse(p *domain.PricePoint, source string) PriceResponse {
	return PriceResponse{
		BaseToken:      p.BaseToken,
		QuoteToken:     p.QuoteToken,
		Price:          p.Price,
		PriceDecimal:   p.PriceDecimal.String(),
		BlockNumber:    p.BlockNumber,
		BlockTimestamp: p.BlockTimestamp,
		Source:         source,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
