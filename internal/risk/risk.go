// Package risk scores the default risk of a loan from a fixed set of
// weighted factors: collateralization, borrower reputation, time remaining,
// interest rate, loan size, and market volatility.
//
// Factor scores and the overall score live on a 0..100 scale where higher
// means riskier. Weights are normalized by their actual sum before use, so a
// caller-supplied table that does not total exactly 1.0 still produces a
// well-defined weighted mean.
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
)

// Level classifies an overall risk score.
type Level string

const (
	LevelLow      Level = "low"      // score ≤ 25
	LevelMedium   Level = "medium"   // 25 < score ≤ 50
	LevelHigh     Level = "high"     // 50 < score ≤ 75
	LevelCritical Level = "critical" // score > 75
)

// Impact tags a factor's contribution direction.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNeutral  Impact = "neutral"
	ImpactNegative Impact = "negative"
)

// Factor names, stable across API responses.
const (
	FactorCollateral    = "collateral_ratio"
	FactorReputation    = "borrower_reputation"
	FactorTimeRemaining = "time_remaining"
	FactorInterestRate  = "interest_rate"
	FactorLoanAmount    = "loan_amount"
	FactorVolatility    = "market_volatility"
)

// Factor is one scored risk dimension.
type Factor struct {
	Name   string          `json:"name"`
	Score  decimal.Decimal `json:"score"`  // 0..100, higher is riskier
	Weight decimal.Decimal `json:"weight"` // as supplied, pre-normalization
	Impact Impact          `json:"impact"`
}

// Weights is the per-factor weight table.
type Weights struct {
	Collateral    decimal.Decimal `json:"collateral"`
	Reputation    decimal.Decimal `json:"reputation"`
	TimeRemaining decimal.Decimal `json:"time_remaining"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	Volatility    decimal.Decimal `json:"volatility"`
}

// DefaultWeights returns the baseline weight table. It sums to 1.0, but
// Assess normalizes by the actual sum regardless, so divergent caller
// tables degrade gracefully instead of skewing the score.
func DefaultWeights() Weights {
	return Weights{
		Collateral:    decimal.NewFromFloat(0.25),
		Reputation:    decimal.NewFromFloat(0.20),
		TimeRemaining: decimal.NewFromFloat(0.15),
		Rate:          decimal.NewFromFloat(0.10),
		Amount:        decimal.NewFromFloat(0.15),
		Volatility:    decimal.NewFromFloat(0.15),
	}
}

// DefaultReferenceCeiling is the loan size at which the amount factor
// saturates at 100 risk, in whole currency units.
var DefaultReferenceCeiling = fixedpoint.NewAmount(100_000)

// Input carries the raw observations feeding an assessment.
type Input struct {
	// CollateralRatioPercent is the current collateralization ratio.
	CollateralRatioPercent decimal.Decimal `json:"collateral_ratio_percent"`
	// ReputationScore is the borrower's reputation, 0..100.
	ReputationScore decimal.Decimal `json:"reputation_score"`
	// PercentTimeRemaining is how much of the loan term is left, 0..100.
	PercentTimeRemaining decimal.Decimal `json:"percent_time_remaining"`
	// InterestRatePercent is the loan rate as a percentage.
	InterestRatePercent decimal.Decimal `json:"interest_rate_percent"`
	// LoanAmount is the principal, in the same whole units as the
	// reference ceiling.
	LoanAmount fixedpoint.Amount `json:"loan_amount"`
	// MarketVolatility is an externally supplied 0..100 volatility gauge.
	MarketVolatility decimal.Decimal `json:"market_volatility"`
	// ReferenceCeiling overrides DefaultReferenceCeiling when positive.
	ReferenceCeiling fixedpoint.Amount `json:"reference_ceiling"`
}

// Assessment is the result of scoring one loan.
type Assessment struct {
	Score                decimal.Decimal   `json:"score"` // 0..100, 2 decimals
	Level                Level             `json:"level"`
	Factors              []Factor          `json:"factors"`
	Recommendations      []string          `json:"recommendations"`
	ProbabilityOfDefault decimal.Decimal   `json:"probability_of_default"` // score/100
	ExpectedLoss         fixedpoint.Amount `json:"expected_loss"`
}

var (
	hundred = decimal.NewFromInt(100)
	onefive = decimal.NewFromFloat(1.5)
)

// Assess scores the loan described by input under the given weight table.
func Assess(input Input, weights Weights) Assessment {
	factors := []Factor{
		{Name: FactorCollateral, Score: collateralRisk(input.CollateralRatioPercent), Weight: weights.Collateral},
		{Name: FactorReputation, Score: reputationRisk(input.ReputationScore), Weight: weights.Reputation},
		{Name: FactorTimeRemaining, Score: timeRemainingRisk(input.PercentTimeRemaining), Weight: weights.TimeRemaining},
		{Name: FactorInterestRate, Score: rateRisk(input.InterestRatePercent), Weight: weights.Rate},
		{Name: FactorLoanAmount, Score: amountRisk(input.LoanAmount, input.ReferenceCeiling), Weight: weights.Amount},
		{Name: FactorVolatility, Score: clamp(input.MarketVolatility), Weight: weights.Volatility},
	}

	for i := range factors {
		factors[i].Impact = impactOf(factors[i].Score)
	}

	// Weighted mean over the actual weight sum.
	var weighted, weightSum decimal.Decimal
	for _, f := range factors {
		weighted = weighted.Add(f.Score.Mul(f.Weight))
		weightSum = weightSum.Add(f.Weight)
	}

	var score decimal.Decimal
	if weightSum.IsPositive() {
		score = weighted.Div(weightSum).Round(2)
	}

	level := levelFor(score)
	pod := score.Div(hundred).Round(4)
	loss := expectedLoss(pod, input.LoanAmount)

	return Assessment{
		Score:                score,
		Level:                level,
		Factors:              factors,
		Recommendations:      recommendations(factors, level),
		ProbabilityOfDefault: pod,
		ExpectedLoss:         loss,
	}
}

// levelFor maps a score to its band. Band edges are inclusive on the lower
// band: 25.00 is still low, 25.01 is medium.
func levelFor(score decimal.Decimal) Level {
	switch {
	case score.LessThanOrEqual(decimal.NewFromInt(25)):
		return LevelLow
	case score.LessThanOrEqual(decimal.NewFromInt(50)):
		return LevelMedium
	case score.LessThanOrEqual(decimal.NewFromInt(75)):
		return LevelHigh
	default:
		return LevelCritical
	}
}

// --- factor transforms ---

// collateralRisk: lower ratio means higher risk. A 150% ratio scores 0;
// every point below adds risk scaled so 0% collateral is 100 risk:
// max(0, 150 - ratio) / 1.5, clamped to 0..100.
func collateralRisk(ratioPercent decimal.Decimal) decimal.Decimal {
	return clamp(decimal.NewFromInt(150).Sub(ratioPercent).Div(onefive))
}

// reputationRisk inverts the 0..100 reputation score.
func reputationRisk(reputation decimal.Decimal) decimal.Decimal {
	return clamp(hundred.Sub(reputation))
}

// timeRemainingRisk: risk grows as the loan nears maturity.
func timeRemainingRisk(percentRemaining decimal.Decimal) decimal.Decimal {
	return clamp(hundred.Sub(percentRemaining))
}

// rateRisk treats very high rates as a red flag, not a reward: up to 20%
// the risk equals the rate; beyond that it doubles, saturating at 100.
func rateRisk(ratePercent decimal.Decimal) decimal.Decimal {
	if ratePercent.LessThanOrEqual(decimal.NewFromInt(20)) {
		return clamp(ratePercent)
	}
	return clamp(ratePercent.Mul(decimal.NewFromInt(2)))
}

// amountRisk normalizes the principal against the reference ceiling:
// a loan at or above the ceiling scores 100.
func amountRisk(amount, ceiling fixedpoint.Amount) decimal.Decimal {
	if !ceiling.IsPositive() {
		ceiling = DefaultReferenceCeiling
	}
	return clamp(amount.Decimal().Mul(hundred).Div(ceiling.Decimal()))
}

// impactOf tags a factor score's direction: under 33 helps the borrower,
// over 66 hurts, in between is neutral.
func impactOf(score decimal.Decimal) Impact {
	switch {
	case score.LessThan(decimal.NewFromInt(33)):
		return ImpactPositive
	case score.GreaterThan(decimal.NewFromInt(66)):
		return ImpactNegative
	default:
		return ImpactNeutral
	}
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}

// expectedLoss = probabilityOfDefault * principal, truncated toward zero.
func expectedLoss(pod decimal.Decimal, principal fixedpoint.Amount) fixedpoint.Amount {
	loss, err := fixedpoint.TruncateToAmount(principal.Decimal().Mul(pod).Truncate(0))
	if err != nil {
		return fixedpoint.Zero
	}
	return loss
}

// recommendations is a deterministic rule list keyed on which factors
// landed in negative impact, plus two overall-level rules. Order is fixed.
func recommendations(factors []Factor, level Level) []string {
	byName := make(map[string]Factor, len(factors))
	for _, f := range factors {
		byName[f.Name] = f
	}

	var recs []string
	add := func(name, text string) {
		if byName[name].Impact == ImpactNegative {
			recs = append(recs, text)
		}
	}

	add(FactorCollateral, "Increase collateral to raise the collateralization ratio above the moderate threshold.")
	add(FactorReputation, "Require additional guarantees: borrower reputation is weak.")
	add(FactorTimeRemaining, "Monitor repayment closely as the loan approaches maturity.")
	add(FactorInterestRate, "Re-evaluate pricing: a rate this high signals borrower distress.")
	add(FactorLoanAmount, "Consider splitting the request into smaller loans.")
	add(FactorVolatility, "Apply a volatility haircut to collateral valuation.")

	switch level {
	case LevelCritical:
		recs = append(recs, "Do not fund without substantial additional collateral or a guarantor.")
	case LevelHigh:
		recs = append(recs, "Fund at reduced principal or shorter duration only.")
	}

	return recs
}
