package domain

import "github.com/shopspring/decimal"

// PricePoint is the durable TWAP record.
// Corresponds to the "UniswapTWAP" table in PostgreSQL.
// At most one row exists per (BaseToken, QuoteToken, BlockTimestamp).
type PricePoint struct {
	BaseToken      string          // base token symbol
	QuoteToken     string          // quote token symbol
	Price          float64         // PriceDecimal converted for the double precision column
	PriceDecimal   decimal.Decimal // quote per base, 18 significant digits
	BlockNumber    uint64          // block the oracle was read at
	BlockTimestamp int64           // block timestamp, unix seconds
	CreatedAt      int64           // record creation timestamp (ms), set by the store
}
