// Package interest implements interest accrual and rate conversion for loan
// terms: simple, compound, and continuous interest, daily/annual rate
// derivation, and APR↔APY conversion.
//
// Simple interest and all rate scalings are exact integer/decimal arithmetic
// with the engine's truncate-toward-zero rounding rule. Compound and
// continuous interest require fractional exponentiation, which has no exact
// decimal form; that math is confined to the float64 bridge at the bottom of
// this file and results are immediately truncated back to integer Amounts.
// Nothing else in the engine is allowed to touch float64.
//
// A year is fixed at 365 days (no leap-year adjustment). This is a
// deliberate simplification shared with the on-chain settlement logic: both
// sides must derive identical figures from identical terms.
package interest

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
)

// SecondsPerYear uses a fixed 365-day year.
const SecondsPerYear = 365 * 86400

var (
	// ErrNegativeRate rejects negative interest rates.
	ErrNegativeRate = errors.New("interest: rate must be non-negative")

	// ErrZeroPeriods rejects compounding with zero periods per year.
	ErrZeroPeriods = errors.New("interest: periods per year must be positive")

	// ErrInvalidCompounding rejects an unknown compounding frequency.
	ErrInvalidCompounding = errors.New("interest: invalid compounding frequency")
)

// rateScale is the decimal precision for converted rates (APR/APY, daily
// rates). Money is never rounded to this scale — only rates.
const rateScale int32 = 8

// Simple computes simple interest accrued over a duration:
//
//	interest = principal * rateBps * durationSeconds / (10000 * SecondsPerYear)
//
// Integer arithmetic throughout, truncated toward zero. A zero duration
// accrues zero interest — that is a valid state, not an error.
func Simple(principal fixedpoint.Amount, rate fixedpoint.Rate, durationSeconds uint64) (fixedpoint.Amount, error) {
	if rate < 0 {
		return fixedpoint.Zero, ErrNegativeRate
	}
	if durationSeconds == 0 {
		return fixedpoint.Zero, nil
	}

	num := principal.Decimal().
		Mul(decimal.NewFromInt(rate.Bps())).
		Mul(decimal.NewFromUint64(durationSeconds))
	den := decimal.NewFromInt(fixedpoint.BpsDenominator).
		Mul(decimal.NewFromInt(SecondsPerYear))

	return fixedpoint.TruncateToAmount(num.Div(den).Truncate(0))
}

// Compound computes compound interest with discrete compounding:
//
//	interest = principal * ((1 + rate/periodsPerYear)^(periodsPerYear*years) - 1)
//
// The exponentiation goes through the float bridge; the result is truncated
// to an integer Amount.
func Compound(principal fixedpoint.Amount, rate fixedpoint.Rate, durationSeconds uint64, periodsPerYear int) (fixedpoint.Amount, error) {
	if rate < 0 {
		return fixedpoint.Zero, ErrNegativeRate
	}
	if periodsPerYear <= 0 {
		return fixedpoint.Zero, ErrZeroPeriods
	}
	if durationSeconds == 0 {
		return fixedpoint.Zero, nil
	}

	r := rateFraction(rate)
	n := float64(periodsPerYear)
	years := yearsOf(durationSeconds)

	growth := math.Pow(1+r/n, n*years)
	return applyGrowth(principal, growth)
}

// Continuous computes continuously compounded interest:
//
//	interest = principal * (e^(rate*years) - 1)
func Continuous(principal fixedpoint.Amount, rate fixedpoint.Rate, durationSeconds uint64) (fixedpoint.Amount, error) {
	if rate < 0 {
		return fixedpoint.Zero, ErrNegativeRate
	}
	if durationSeconds == 0 {
		return fixedpoint.Zero, nil
	}

	growth := math.Exp(rateFraction(rate) * yearsOf(durationSeconds))
	return applyGrowth(principal, growth)
}

// AnnualToDaily converts an annual rate to a daily rate in basis points.
// Pure linear scaling (annual/365), kept as a decimal so nothing is lost
// beyond the declared rate precision.
func AnnualToDaily(annual fixedpoint.Rate) decimal.Decimal {
	return decimal.NewFromInt(annual.Bps()).
		Div(decimal.NewFromInt(365)).Round(rateScale)
}

// DailyToAnnual converts a daily rate in basis points back to annual.
func DailyToAnnual(dailyBps decimal.Decimal) decimal.Decimal {
	return dailyBps.Mul(decimal.NewFromInt(365)).Round(rateScale)
}

// BpsToPercent converts basis points to a percentage (1250 bps → 12.5).
func BpsToPercent(r fixedpoint.Rate) decimal.Decimal {
	return r.Percent()
}

// PercentToBps converts a percentage to integer basis points, rounding to
// the nearest basis point.
func PercentToBps(percent decimal.Decimal) (fixedpoint.Rate, error) {
	if percent.IsNegative() {
		return 0, fmt.Errorf("%w: %s%%", ErrNegativeRate, percent)
	}
	bps := percent.Mul(decimal.NewFromInt(100)).Round(0)
	return fixedpoint.NewRate(bps.IntPart())
}

// Compounding identifies a compounding frequency for APR/APY conversion.
// Discrete frequencies carry their periods-per-year directly; Continuous is
// a sentinel handled with the exponential form.
type Compounding int

const (
	Continuously Compounding = -1
	Annually     Compounding = 1
	Semiannually Compounding = 2
	Quarterly    Compounding = 4
	Monthly      Compounding = 12
	Daily        Compounding = 365
)

func (c Compounding) valid() bool {
	return c == Continuously || c > 0
}

// APRToAPY converts a nominal annual rate (APR) to the effective annual
// yield (APY) under the given compounding frequency. The result is in basis
// points as a decimal, rounded to rateScale — APY is generally fractional.
//
//	discrete:   apy = (1 + apr/n)^n - 1
//	continuous: apy = e^apr - 1
func APRToAPY(apr fixedpoint.Rate, c Compounding) (decimal.Decimal, error) {
	if apr < 0 {
		return decimal.Zero, ErrNegativeRate
	}
	if !c.valid() {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidCompounding, c)
	}

	r := rateFraction(apr)
	var apy float64
	if c == Continuously {
		apy = math.Exp(r) - 1
	} else {
		n := float64(c)
		apy = math.Pow(1+r/n, n) - 1
	}
	return fractionToBps(apy), nil
}

// APYToAPR inverts APRToAPY: given an effective annual yield in basis points,
// it recovers the nominal rate under the given compounding frequency.
//
//	discrete:   apr = n * ((1 + apy)^(1/n) - 1)
//	continuous: apr = ln(1 + apy)
func APYToAPR(apyBps decimal.Decimal, c Compounding) (decimal.Decimal, error) {
	if apyBps.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}
	if !c.valid() {
		return decimal.Zero, fmt.Errorf("%w: %d", ErrInvalidCompounding, c)
	}

	apy := bpsToFraction(apyBps)
	var apr float64
	if c == Continuously {
		apr = math.Log(1 + apy)
	} else {
		n := float64(c)
		apr = n * (math.Pow(1+apy, 1/n) - 1)
	}
	return fractionToBps(apr), nil
}

// --- float bridge ---
//
// The only place in the engine where non-integer arithmetic happens.
// Fixed-point values go in, a float64 transcendental result comes out, and
// it is converted straight back with the documented truncation rule.

// rateFraction converts basis points to a float fraction (1000 bps → 0.10).
func rateFraction(r fixedpoint.Rate) float64 {
	return float64(r.Bps()) / fixedpoint.BpsDenominator
}

// yearsOf converts a duration to fractional years under the 365-day year.
func yearsOf(durationSeconds uint64) float64 {
	return float64(durationSeconds) / SecondsPerYear
}

// applyGrowth computes principal * (growth - 1) truncated toward zero.
// growth < 1 cannot occur with non-negative rates; it is clamped to zero
// interest rather than producing a negative Amount.
func applyGrowth(principal fixedpoint.Amount, growth float64) (fixedpoint.Amount, error) {
	if growth <= 1 {
		return fixedpoint.Zero, nil
	}
	factor := decimal.NewFromFloat(growth - 1)
	return fixedpoint.TruncateToAmount(principal.Decimal().Mul(factor).Truncate(0))
}

// fractionToBps converts a float rate fraction to decimal basis points.
func fractionToBps(frac float64) decimal.Decimal {
	return decimal.NewFromFloat(frac).
		Mul(decimal.NewFromInt(fixedpoint.BpsDenominator)).Round(rateScale)
}

// bpsToFraction converts decimal basis points to a float rate fraction.
func bpsToFraction(bps decimal.Decimal) float64 {
	return bps.Div(decimal.NewFromInt(fixedpoint.BpsDenominator)).InexactFloat64()
}
