// Package pricing converts an average tick into a fixed-precision decimal price.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/vistastaking/indexers/internal/domain"
	"github.com/vistastaking/indexers/internal/tickmath"
)

// SignificantDigits is the precision prices are rounded to, half up.
const SignificantDigits = 18

// ErrPriceOutOfRange is returned when a tick and decimals combination has no
// representable price.
var ErrPriceOutOfRange = errors.New("price out of range")

// PriceOutOfRangeError carries the tick that could not be converted.
type PriceOutOfRangeError struct {
	Tick int32
	Err  error
}

func (e *PriceOutOfRangeError) Error() string {
	return fmt.Sprintf("price out of range at tick %d: %v", e.Tick, e.Err)
}

func (e *PriceOutOfRangeError) Unwrap() []error {
	return []error{ErrPriceOutOfRange, e.Err}
}

var ten = big.NewInt(10)

// TickToPrice returns the price of one base token in quote tokens at tick,
// adjusted for token decimals and rounded to SignificantDigits.
//
// The pool tick prices token1 in token0, so the ratio is inverted when the
// base token is token1.
func TickToPrice(tick int32, base, quote domain.Token) (decimal.Decimal, error) {
	sqrtRatio, err := tickmath.GetSqrtRatioAtTick(tick)
	if err != nil {
		return decimal.Decimal{}, &PriceOutOfRangeError{Tick: tick, Err: err}
	}

	ratioX192 := new(big.Int).Mul(sqrtRatio, sqrtRatio)

	var num, den *big.Int
	if base.SortsBefore(quote) {
		num, den = ratioX192, new(big.Int).Set(tickmath.Q192)
	} else {
		num, den = new(big.Int).Set(tickmath.Q192), ratioX192
	}

	num.Mul(num, pow10(int64(base.Decimals)))
	den.Mul(den, pow10(int64(quote.Decimals)))

	price, err := ToSignificant(num, den, SignificantDigits)
	if err != nil {
		return decimal.Decimal{}, &PriceOutOfRangeError{Tick: tick, Err: err}
	}
	return price, nil
}

// Convert prices the pair at tick and also returns the double precision
// value derived from the rounded decimal.
func Convert(tick int32, pair domain.PairDescriptor) (decimal.Decimal, float64, error) {
	price, err := TickToPrice(tick, pair.Base, pair.Quote)
	if err != nil {
		return decimal.Decimal{}, 0, err
	}

	f, _ := price.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) || f == 0 {
		return decimal.Decimal{}, 0, &PriceOutOfRangeError{
			Tick: tick,
			Err:  fmt.Errorf("%s does not fit a double", price.String()),
		}
	}
	return price, f, nil
}

// ToSignificant rounds num/den half up to digits significant digits.
// num and den must be positive.
func ToSignificant(num, den *big.Int, digits int32) (decimal.Decimal, error) {
	if num.Sign() <= 0 || den.Sign() <= 0 {
		return decimal.Decimal{}, fmt.Errorf("ratio %s/%s is not positive", num, den)
	}
	if digits <= 0 {
		return decimal.Decimal{}, fmt.Errorf("significant digits must be positive, got %d", digits)
	}

	// exp = floor(log10(num/den))
	exp := int64(len(num.String()) - len(den.String()))
	if !atLeastPow10(num, den, exp) {
		exp--
	}

	// Scale so the integer quotient has exactly digits digits.
	scale := int64(digits) - 1 - exp
	n, d := new(big.Int).Set(num), new(big.Int).Set(den)
	if scale >= 0 {
		n.Mul(n, pow10(scale))
	} else {
		d.Mul(d, pow10(-scale))
	}

	q, r := new(big.Int).QuoRem(n, d, new(big.Int))
	if r.Lsh(r, 1).Cmp(d) >= 0 {
		q.Add(q, big.NewInt(1))
	}

	if scale > math.MaxInt32 || scale < math.MinInt32 {
		return decimal.Decimal{}, fmt.Errorf("exponent %d overflows", -scale)
	}
	return decimal.NewFromBigInt(q, int32(-scale)), nil
}

// atLeastPow10 reports whether num/den >= 10^exp.
func atLeastPow10(num, den *big.Int, exp int64) bool {
	if exp >= 0 {
		return num.Cmp(new(big.Int).Mul(den, pow10(exp))) >= 0
	}
	return new(big.Int).Mul(num, pow10(-exp)).Cmp(den) >= 0
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(n), nil)
}
