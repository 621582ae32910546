// Package fixedpoint provides the Amount and Rate value types that underlie
// every calculation in the loan engine.
//
// An Amount is a non-negative, arbitrary-precision integer count of the
// smallest currency unit (e.g. wei for an 18-decimal token). All monetary
// values use shopspring/decimal — never float64 for money. Every lossy
// operation (division, percentage application) truncates toward zero; that
// single rounding rule applies across the whole engine.
//
// A Rate is an interest or fee percentage expressed in integer basis points
// (1 bp = 0.01%, 10 000 bps = 100%). Loan rates may exceed 10 000 bps;
// negative rates are rejected at construction.
package fixedpoint

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeAmount is returned when constructing an Amount from a
	// negative value.
	ErrNegativeAmount = errors.New("fixedpoint: amount must be non-negative")

	// ErrFractionalAmount is returned when constructing an Amount from a
	// value that is not a whole number of smallest units.
	ErrFractionalAmount = errors.New("fixedpoint: amount must be a whole number of smallest units")

	// ErrNegativeResult is returned by Sub when the subtrahend exceeds the
	// minuend; Amounts cannot go below zero.
	ErrNegativeResult = errors.New("fixedpoint: subtraction would produce a negative amount")

	// ErrNegativeRate is returned when constructing a Rate from negative
	// basis points.
	ErrNegativeRate = errors.New("fixedpoint: rate must be non-negative")

	// ErrDivisionByZero is returned by DivInt when the divisor is zero.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
)

// BpsDenominator is the number of basis points in 100%.
const BpsDenominator = 10000

// Amount is an immutable, non-negative integer count of the smallest
// currency unit. The zero value is a valid zero Amount.
type Amount struct {
	v decimal.Decimal
}

// Zero is the zero Amount.
var Zero = Amount{}

// NewAmount creates an Amount from a non-negative int64. Negative input
// yields the zero Amount; use AmountFromDecimal when rejection is needed.
func NewAmount(n int64) Amount {
	if n < 0 {
		return Zero
	}
	return Amount{v: decimal.NewFromInt(n)}
}

// AmountFromDecimal creates an Amount from a decimal, rejecting negative or
// fractional values.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, d)
	}
	if !d.Equal(d.Truncate(0)) {
		return Zero, fmt.Errorf("%w: %s", ErrFractionalAmount, d)
	}
	return Amount{v: d}, nil
}

// TruncateToAmount converts a non-negative decimal intermediate result to an
// Amount by truncating toward zero. This is the engine's documented rounding
// rule for all lossy arithmetic.
func TruncateToAmount(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, d)
	}
	return Amount{v: d.Truncate(0)}, nil
}

// ParseAmount parses a base-10 integer string into an Amount. Used for
// values too large for int64 (e.g. 18-decimal token amounts).
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("fixedpoint: parse amount %q: %w", s, err)
	}
	return AmountFromDecimal(d)
}

// MustAmount parses a base-10 integer string, panicking on error.
// For constants and tests only.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.v }

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{v: a.v.Add(b.v)}
}

// Sub returns a - b, or ErrNegativeResult if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	r := a.v.Sub(b.v)
	if r.IsNegative() {
		return Zero, ErrNegativeResult
	}
	return Amount{v: r}, nil
}

// SubSaturating returns a - b, clamped at zero.
func (a Amount) SubSaturating(b Amount) Amount {
	r := a.v.Sub(b.v)
	if r.IsNegative() {
		return Zero
	}
	return Amount{v: r}
}

// MulInt returns a * n. Negative n yields the zero Amount.
func (a Amount) MulInt(n int64) Amount {
	if n < 0 {
		return Zero
	}
	return Amount{v: a.v.Mul(decimal.NewFromInt(n))}
}

// DivInt returns a / n truncated toward zero.
func (a Amount) DivInt(n int64) (Amount, error) {
	if n == 0 {
		return Zero, ErrDivisionByZero
	}
	if n < 0 {
		return Zero, ErrNegativeAmount
	}
	return Amount{v: a.v.Div(decimal.NewFromInt(n)).Truncate(0)}, nil
}

// ApplyBps returns a * r / 10000 truncated toward zero — the portion of the
// amount described by a basis-point rate.
func (a Amount) ApplyBps(r Rate) Amount {
	return Amount{v: a.v.Mul(decimal.NewFromInt(r.Bps())).
		Div(decimal.NewFromInt(BpsDenominator)).Truncate(0)}
}

// Min returns the smaller of a and b.
func (a Amount) Min(b Amount) Amount {
	if a.v.LessThan(b.v) {
		return a
	}
	return b
}

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(b.v) }

// Equal reports whether a == b.
func (a Amount) Equal(b Amount) bool { return a.v.Equal(b.v) }

// GreaterThan reports whether a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.v.GreaterThan(b.v) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.v.LessThan(b.v) }

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool { return a.v.IsPositive() }

// String renders the amount as a base-10 integer string.
func (a Amount) String() string { return a.v.String() }

// MarshalJSON renders the amount as a JSON string to avoid precision loss
// in JavaScript consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("fixedpoint: unmarshal amount: %w", err)
	}
	parsed, err := AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Rate is a percentage in integer basis points. Rates above 10 000 bps
// (100%) are legal for loan pricing.
type Rate int64

// NewRate creates a Rate, rejecting negative basis points.
func NewRate(bps int64) (Rate, error) {
	if bps < 0 {
		return 0, fmt.Errorf("%w: %d bps", ErrNegativeRate, bps)
	}
	return Rate(bps), nil
}

// Bps returns the rate in basis points.
func (r Rate) Bps() int64 { return int64(r) }

// Fraction returns the rate as a decimal fraction (500 bps → 0.05).
func (r Rate) Fraction() decimal.Decimal {
	return decimal.NewFromInt(int64(r)).Div(decimal.NewFromInt(BpsDenominator))
}

// Percent returns the rate as a decimal percentage (500 bps → 5).
func (r Rate) Percent() decimal.Decimal {
	return decimal.NewFromInt(int64(r)).Div(decimal.NewFromInt(100))
}

// String renders the rate as basis points.
func (r Rate) String() string {
	return fmt.Sprintf("%dbps", int64(r))
}
