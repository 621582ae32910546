// Package reputation scores borrowers and lenders from five independent
// components: payment history, loan completion, time on platform, volume,
// and community standing. Each component is 0..100; a weighted sum yields
// the total score, mapped to a letter grade.
//
// Accounts with no history score a neutral 50 on history-based components,
// never 0 — a brand-new borrower is unknown, not untrustworthy. That rule is
// load-bearing: risk scoring consumes reputation, and defaulting new users
// to 0 would price every first loan as if it were already delinquent.
//
// The logarithmic curves (time on platform, volume) go through float64
// math.Log10 — the same isolated-bridge policy as the interest package —
// and scores are rounded to 2 decimals.
package reputation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
)

// Grade is the letter classification of a reputation score.
type Grade string

const (
	GradeS Grade = "S" // ≥ 95
	GradeA Grade = "A" // ≥ 85
	GradeB Grade = "B" // ≥ 70
	GradeC Grade = "C" // ≥ 55
	GradeD Grade = "D" // ≥ 40
	GradeF Grade = "F"
)

// Trend describes score movement against a previous observation.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// neutralScore is what history-based components report when there is no
// history to judge.
var neutralScore = decimal.NewFromInt(50)

var hundred = decimal.NewFromInt(100)

// Components holds the five sub-scores, each 0..100.
type Components struct {
	PaymentHistory decimal.Decimal `json:"payment_history"`
	LoanCompletion decimal.Decimal `json:"loan_completion"`
	TimeOnPlatform decimal.Decimal `json:"time_on_platform"`
	Volume         decimal.Decimal `json:"volume"`
	Community      decimal.Decimal `json:"community"`
}

// Weights is the per-component weight table.
type Weights struct {
	PaymentHistory decimal.Decimal `json:"payment_history"`
	LoanCompletion decimal.Decimal `json:"loan_completion"`
	TimeOnPlatform decimal.Decimal `json:"time_on_platform"`
	Volume         decimal.Decimal `json:"volume"`
	Community      decimal.Decimal `json:"community"`
}

// DefaultWeights weights payment history heaviest: 35/25/15/15/10.
func DefaultWeights() Weights {
	return Weights{
		PaymentHistory: decimal.NewFromFloat(0.35),
		LoanCompletion: decimal.NewFromFloat(0.25),
		TimeOnPlatform: decimal.NewFromFloat(0.15),
		Volume:         decimal.NewFromFloat(0.15),
		Community:      decimal.NewFromFloat(0.10),
	}
}

// Result is a computed reputation score.
type Result struct {
	Score      decimal.Decimal `json:"score"` // 0..100, 2 decimals
	Grade      Grade           `json:"grade"`
	Components Components      `json:"components"`
}

// PaymentHistoryScore computes the weighted hit rate of past payments:
// on-time counts fully, late counts half, missed counts nothing. No history
// scores a neutral 50.
func PaymentHistoryScore(onTime, late, missed int) decimal.Decimal {
	total := onTime + late + missed
	if total <= 0 {
		return neutralScore
	}
	hits := decimal.NewFromInt(int64(onTime)).
		Add(decimal.NewFromInt(int64(late)).Div(decimal.NewFromInt(2)))
	return hits.Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
}

// LoanCompletionScore scales the completion rate to 100, adds a volume
// bonus of one point per completed loan (capped at 10), and deducts two
// points per active loan beyond five (capped at 10). No finished loans
// scores a neutral 50.
func LoanCompletionScore(completed, defaulted, active int) decimal.Decimal {
	finished := completed + defaulted
	if finished <= 0 {
		return clamp(neutralScore.Sub(overextensionPenalty(active)))
	}

	rate := decimal.NewFromInt(int64(completed)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(finished)))

	bonus := decimal.NewFromInt(int64(min(10, completed)))

	return clamp(rate.Add(bonus).Sub(overextensionPenalty(active))).Round(2)
}

func overextensionPenalty(active int) decimal.Decimal {
	if active <= 5 {
		return decimal.Zero
	}
	over := int64(active-5) * 2
	if over > 10 {
		over = 10
	}
	return decimal.NewFromInt(over)
}

// TimeOnPlatformScore rewards account age with diminishing returns:
// min(100, log10(days+1) * 40). Roughly: 1 week ≈ 36, 3 months ≈ 79,
// a year and beyond saturates toward 100.
func TimeOnPlatformScore(firstActivityTimestamp, now uint64) decimal.Decimal {
	var days float64
	if now > firstActivityTimestamp {
		days = float64((now - firstActivityTimestamp) / 86400)
	}
	score := math.Log10(days+1) * 40
	return clamp(decimal.NewFromFloat(score)).Round(2)
}

// VolumeScore compares lifetime volume to the platform median:
// min(100, 50 + log10(total/median) * 25), floored at 0. Median volume
// scores exactly 50; an account with no volume (or an unknown median)
// scores the neutral 50.
func VolumeScore(totalVolume, medianVolume fixedpoint.Amount) decimal.Decimal {
	if totalVolume.IsZero() || medianVolume.IsZero() {
		return neutralScore
	}
	ratio := totalVolume.Decimal().Div(medianVolume.Decimal()).InexactFloat64()
	score := 50 + math.Log10(ratio)*25
	return clamp(decimal.NewFromFloat(score)).Round(2)
}

// CommunityScore scales the upvote ratio to 100 (no votes → neutral 50)
// and adds five points per referral, capped at 20 bonus points. The sum is
// clamped to 100.
func CommunityScore(upvotes, downvotes, referrals int) decimal.Decimal {
	votes := upvotes + downvotes

	base := neutralScore
	if votes > 0 {
		base = decimal.NewFromInt(int64(upvotes)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(votes)))
	}

	bonus := int64(referrals) * 5
	if bonus > 20 {
		bonus = 20
	}
	if bonus < 0 {
		bonus = 0
	}

	return clamp(base.Add(decimal.NewFromInt(bonus))).Round(2)
}

// Score combines components under the weight table. Weights are normalized
// by their actual sum, mirroring the risk package's defensive policy.
func Score(c Components, w Weights) Result {
	type pair struct{ score, weight decimal.Decimal }
	pairs := []pair{
		{c.PaymentHistory, w.PaymentHistory},
		{c.LoanCompletion, w.LoanCompletion},
		{c.TimeOnPlatform, w.TimeOnPlatform},
		{c.Volume, w.Volume},
		{c.Community, w.Community},
	}

	var weighted, weightSum decimal.Decimal
	for _, p := range pairs {
		weighted = weighted.Add(clamp(p.score).Mul(p.weight))
		weightSum = weightSum.Add(p.weight)
	}

	var score decimal.Decimal
	if weightSum.IsPositive() {
		score = weighted.Div(weightSum).Round(2)
	}

	return Result{Score: score, Grade: gradeFor(score), Components: c}
}

// gradeFor maps a score to its letter band.
func gradeFor(score decimal.Decimal) Grade {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(95)):
		return GradeS
	case score.GreaterThanOrEqual(decimal.NewFromInt(85)):
		return GradeA
	case score.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return GradeB
	case score.GreaterThanOrEqual(decimal.NewFromInt(55)):
		return GradeC
	case score.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return GradeD
	default:
		return GradeF
	}
}

// TrendOf compares a score to a previous observation: more than 5 points up
// is improving, more than 5 down is declining, anything else is stable.
// Only meaningful when a previous score actually exists; callers without
// one should not call this.
func TrendOf(current, previous decimal.Decimal) Trend {
	five := decimal.NewFromInt(5)
	switch {
	case current.GreaterThan(previous.Add(five)):
		return TrendImproving
	case current.LessThan(previous.Sub(five)):
		return TrendDeclining
	default:
		return TrendStable
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
