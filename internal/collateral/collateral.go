// Package collateral computes collateral valuation and position health:
// collateralization ratio, liquidation price, health factor, and the
// required/additional collateral for a target ratio.
//
// Degenerate inputs are meaningful financial states here, not errors: a zero
// loan value means there is no debt and therefore no collateral risk (the
// ratio is reported as unbounded and safe), and a zero collateral amount
// means the position is already liquidatable at any price (liquidation price
// zero).
//
// All level classifications in this package flow through a single threshold
// comparison (levelFor); IsLiquidatable is derived from the ratio's level so
// the two can never disagree.
package collateral

import (
	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
	"github.com/lendfi/loan-engine/internal/model"
)

// Level classifies a collateralization ratio.
type Level string

const (
	LevelSafe     Level = "safe"
	LevelModerate Level = "moderate"
	LevelWarning  Level = "warning"
	LevelDanger   Level = "danger"
)

// Ratio thresholds in percent. A position at or above SafeThreshold is
// fully healthy; below WarningThreshold it is liquidatable.
var (
	SafeThreshold     = decimal.NewFromInt(200)
	ModerateThreshold = decimal.NewFromInt(150)
	WarningThreshold  = decimal.NewFromInt(130)
)

// hundred is the percent scale factor.
var hundred = decimal.NewFromInt(100)

// RatioResult is the collateralization ratio of a position. When the loan
// value is zero the ratio is unbounded: Unbounded is set, Ratio is zero and
// must be ignored, and the level is safe.
type RatioResult struct {
	Ratio     decimal.Decimal `json:"ratio"` // percent
	Unbounded bool            `json:"unbounded"`
	Level     Level           `json:"level"`
}

// ValueUSD values a collateral position in micro-USD. Each asset is valued
// with integer arithmetic and truncated independently, so error cannot
// compound across many assets.
func ValueUSD(position model.CollateralPosition) fixedpoint.Amount {
	total := fixedpoint.Zero
	for _, asset := range position {
		total = total.Add(asset.ValueUSDMicros())
	}
	return total
}

// Ratio computes collateralValue / loanValue as a percentage and classifies
// it. A fully repaid or not-yet-funded loan (loanValue zero) carries no
// collateral risk: the ratio is unbounded and safe, not an error.
//
// Classification happens on the exact quotient, never on the rounded display
// figure: a position at 129.999999% must classify danger even though the
// reported ratio rounds to 130.
func Ratio(collateralValue, loanValue fixedpoint.Amount) RatioResult {
	if loanValue.IsZero() {
		return RatioResult{Unbounded: true, Level: LevelSafe}
	}

	scaled := collateralValue.Decimal().Mul(hundred)
	ratio := scaled.Div(loanValue.Decimal()).Round(4)

	return RatioResult{Ratio: ratio, Level: levelFor(scaled, loanValue.Decimal())}
}

// levelFor is the single site classifying a position. It compares
// collateralValue*100 against loanValue*threshold — exact integer
// arithmetic, no division, no rounding. Everything that cares about
// thresholds (IsLiquidatable included) derives from it.
func levelFor(collateralTimes100, loanValue decimal.Decimal) Level {
	switch {
	case collateralTimes100.GreaterThanOrEqual(loanValue.Mul(SafeThreshold)):
		return LevelSafe
	case collateralTimes100.GreaterThanOrEqual(loanValue.Mul(ModerateThreshold)):
		return LevelModerate
	case collateralTimes100.GreaterThanOrEqual(loanValue.Mul(WarningThreshold)):
		return LevelWarning
	default:
		return LevelDanger
	}
}

// IsLiquidatable reports whether the position's ratio has fallen below the
// warning threshold. Defined as "the ratio classifies as danger" — not a
// separate comparison — so it cannot drift from Ratio.
func IsLiquidatable(collateralValue, loanValue fixedpoint.Amount) bool {
	return Ratio(collateralValue, loanValue).Level == LevelDanger
}

// LiquidationPrice returns the price per whole unit of collateral (in
// micro-USD) at which the position becomes liquidatable:
//
//	price = loanValue * liquidationRatioPercent / 100 / collateralUnits
//
// A zero collateral amount yields zero: no collateral means the position is
// liquidatable at any price, which is a defined state rather than an error.
func LiquidationPrice(collateralUnits decimal.Decimal, loanValue fixedpoint.Amount, liquidationRatioPercent decimal.Decimal) decimal.Decimal {
	if collateralUnits.IsZero() || collateralUnits.IsNegative() {
		return decimal.Zero
	}
	return loanValue.Decimal().
		Mul(liquidationRatioPercent).
		Div(hundred).
		Div(collateralUnits).
		Round(6)
}

// HealthFactor normalizes the ratio against the warning threshold: 1.0 means
// the position sits exactly on the liquidation boundary, above 1.0 is
// healthy. Unbounded (zero-debt) positions report Unbounded with a zero
// factor.
type HealthFactor struct {
	Factor    decimal.Decimal `json:"factor"`
	Unbounded bool            `json:"unbounded"`
}

// Health computes the health factor for a position.
func Health(collateralValue, loanValue fixedpoint.Amount) HealthFactor {
	r := Ratio(collateralValue, loanValue)
	if r.Unbounded {
		return HealthFactor{Unbounded: true}
	}
	return HealthFactor{Factor: r.Ratio.Div(WarningThreshold).Round(4)}
}

// RequiredCollateral returns the collateral value needed to reach the target
// ratio: loanValue * targetRatioPercent / 100, truncated toward zero (the
// engine's single rounding rule — callers wanting slack add their own).
func RequiredCollateral(loanValue fixedpoint.Amount, targetRatioPercent decimal.Decimal) fixedpoint.Amount {
	if targetRatioPercent.IsNegative() {
		return fixedpoint.Zero
	}
	required := loanValue.Decimal().Mul(targetRatioPercent).Div(hundred).Truncate(0)
	amt, err := fixedpoint.AmountFromDecimal(required)
	if err != nil {
		return fixedpoint.Zero
	}
	return amt
}

// AdditionalCollateralNeeded returns how much more collateral value is
// needed to reach the target ratio; zero when the position already meets it.
func AdditionalCollateralNeeded(collateralValue, loanValue fixedpoint.Amount, targetRatioPercent decimal.Decimal) fixedpoint.Amount {
	return RequiredCollateral(loanValue, targetRatioPercent).SubSaturating(collateralValue)
}

// LiquidationPenalty returns the penalty taken from collateral on
// liquidation: collateralValue * penaltyPercent / 100, truncated.
func LiquidationPenalty(collateralValue fixedpoint.Amount, penaltyPercent decimal.Decimal) fixedpoint.Amount {
	if penaltyPercent.IsNegative() {
		return fixedpoint.Zero
	}
	p := collateralValue.Decimal().Mul(penaltyPercent).Div(hundred).Truncate(0)
	amt, err := fixedpoint.AmountFromDecimal(p)
	if err != nil {
		return fixedpoint.Zero
	}
	return amt
}
