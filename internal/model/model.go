// Package model defines the core domain value types shared across the loan
// engine. All monetary values use shopspring/decimal via fixedpoint.Amount —
// never float64 for money.
//
// Every type here is a plain value: no entity holds a reference to another,
// nothing is mutated after construction, and nothing carries behaviour beyond
// derived accessors. The calculation packages receive these values as
// parameters and return new values.
package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
)

var (
	// ErrZeroPrincipal is returned when a loan term is created with a zero
	// principal.
	ErrZeroPrincipal = errors.New("model: principal must be positive")

	// ErrZeroDuration is returned when a loan term is created with a zero
	// duration.
	ErrZeroDuration = errors.New("model: duration must be positive")
)

// LoanTerm describes the immutable parameters of a loan. Terms never change
// in place; renegotiation produces a new LoanTerm.
type LoanTerm struct {
	Principal       fixedpoint.Amount `json:"principal"`
	RateBps         fixedpoint.Rate   `json:"rate_bps"`
	DurationSeconds uint64            `json:"duration_seconds"`
	StartTimestamp  uint64            `json:"start_timestamp"` // unix seconds
}

// NewLoanTerm validates and constructs a LoanTerm. Principal and duration
// must be positive; the rate is already non-negative by construction.
func NewLoanTerm(principal fixedpoint.Amount, rate fixedpoint.Rate, durationSeconds, startTimestamp uint64) (LoanTerm, error) {
	if !principal.IsPositive() {
		return LoanTerm{}, ErrZeroPrincipal
	}
	if durationSeconds == 0 {
		return LoanTerm{}, ErrZeroDuration
	}
	return LoanTerm{
		Principal:       principal,
		RateBps:         rate,
		DurationSeconds: durationSeconds,
		StartTimestamp:  startTimestamp,
	}, nil
}

// EndTimestamp returns the unix second at which the loan matures.
func (t LoanTerm) EndTimestamp() uint64 {
	return t.StartTimestamp + t.DurationSeconds
}

// CollateralAsset is one asset backing a loan. The price is held as an
// integer number of micro-USD (1e-6 USD) per whole unit of the asset, never
// as a float.
type CollateralAsset struct {
	Symbol         string            `json:"symbol"`
	Amount         fixedpoint.Amount `json:"amount"`           // smallest units
	Decimals       uint8             `json:"decimals"`         // smallest units per whole unit = 10^Decimals
	PriceUSDMicros uint64            `json:"price_usd_micros"` // micro-USD per whole unit
}

// WholeUnits returns the asset amount expressed in whole units as an exact
// decimal (a scale change, not a division — nothing is lost).
func (a CollateralAsset) WholeUnits() decimal.Decimal {
	return a.Amount.Decimal().Shift(-int32(a.Decimals))
}

// ValueUSDMicros returns the asset's value in micro-USD, truncated toward
// zero. Each asset term is truncated independently so rounding error never
// compounds across a position.
func (a CollateralAsset) ValueUSDMicros() fixedpoint.Amount {
	v := a.WholeUnits().Mul(decimal.NewFromUint64(a.PriceUSDMicros)).Truncate(0)
	amt, err := fixedpoint.AmountFromDecimal(v)
	if err != nil {
		// Amount and price are both non-negative; unreachable.
		return fixedpoint.Zero
	}
	return amt
}

// CollateralPosition is the ordered set of assets backing one loan.
type CollateralPosition []CollateralAsset

// Validate rejects assets with out-of-range decimals.
func (p CollateralPosition) Validate() error {
	for i, a := range p {
		if a.Decimals > 36 {
			return fmt.Errorf("model: asset %d (%s): decimals %d out of range", i, a.Symbol, a.Decimals)
		}
	}
	return nil
}
