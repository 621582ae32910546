// Package amortization generates repayment schedules for fixed-payment
// (annuity) and lump-sum loans.
//
// Schedules are integer-exact: every entry's principal and interest are
// whole smallest-currency-units truncated toward zero, and the final period
// absorbs the accumulated rounding remainder so that the schedule's principal
// column sums to exactly the original principal and the remaining balance
// lands on exactly zero. Without that reconciliation step integer truncation
// would leave a residue of a few smallest units.
//
// The level payment itself comes from the standard annuity formula
//
//	payment = P * r(1+r)^n / ((1+r)^n - 1)
//
// whose exponentiation goes through the interest package's float bridge
// conventions: float64 in one expression, truncated straight back to an
// integer Amount.
package amortization

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
	"github.com/lendfi/loan-engine/internal/interest"
)

var (
	// ErrZeroPayments rejects a schedule with no payment periods. An empty
	// schedule is meaningless, not a degenerate success.
	ErrZeroPayments = errors.New("amortization: number of payments must be positive")

	// ErrZeroPeriodsPerYear rejects a zero compounding basis.
	ErrZeroPeriodsPerYear = errors.New("amortization: periods per year must be positive")

	// ErrZeroPrincipal rejects a zero-principal schedule.
	ErrZeroPrincipal = errors.New("amortization: principal must be positive")

	// ErrNegativeDuration rejects a negative lump-sum duration.
	ErrNegativeDuration = errors.New("amortization: duration must be non-negative")
)

// Entry is one period of a repayment schedule. Periods are 1-indexed and
// returned in ascending order; RemainingBalance is non-increasing and is
// exactly zero on the final entry.
type Entry struct {
	Period           uint32            `json:"period"`
	Payment          fixedpoint.Amount `json:"payment"`
	Principal        fixedpoint.Amount `json:"principal"`
	Interest         fixedpoint.Amount `json:"interest"`
	RemainingBalance fixedpoint.Amount `json:"remaining_balance"`
}

// FixedPaymentSchedule generates an equal-installment schedule: a level
// payment per period, decomposed into interest on the remaining balance and
// a principal portion, with the final period reconciled to land on zero.
func FixedPaymentSchedule(principal fixedpoint.Amount, rate fixedpoint.Rate, numberOfPayments, periodsPerYear int) ([]Entry, error) {
	if !principal.IsPositive() {
		return nil, ErrZeroPrincipal
	}
	if numberOfPayments <= 0 {
		return nil, ErrZeroPayments
	}
	if periodsPerYear <= 0 {
		return nil, ErrZeroPeriodsPerYear
	}
	if rate < 0 {
		return nil, interest.ErrNegativeRate
	}

	// Per-period rate as an exact decimal fraction.
	periodRate := rate.Fraction().Div(decimal.NewFromInt(int64(periodsPerYear)))

	payment, err := levelPayment(principal, periodRate, numberOfPayments)
	if err != nil {
		return nil, err
	}

	schedule := make([]Entry, 0, numberOfPayments)
	remaining := principal

	for period := 1; period <= numberOfPayments; period++ {
		// Interest accrues on the balance outstanding at period start.
		interestDue, err := fixedpoint.TruncateToAmount(
			remaining.Decimal().Mul(periodRate).Truncate(0))
		if err != nil {
			return nil, err
		}

		principalDue := payment.SubSaturating(interestDue)

		// Reconciliation: the last period absorbs the truncation residue so
		// the balance reaches exactly zero and Σprincipal == principal.
		// Clamping also covers the off case where truncation drift would
		// otherwise overshoot the balance before the final period.
		if period == numberOfPayments || principalDue.GreaterThan(remaining) {
			principalDue = remaining
		}

		remaining = remaining.SubSaturating(principalDue)

		schedule = append(schedule, Entry{
			Period:           uint32(period),
			Payment:          principalDue.Add(interestDue),
			Principal:        principalDue,
			Interest:         interestDue,
			RemainingBalance: remaining,
		})
	}

	return schedule, nil
}

// LumpSumSchedule generates a single-entry schedule: the whole principal
// plus simple interest over the full duration, due at start + duration.
func LumpSumSchedule(principal fixedpoint.Amount, rate fixedpoint.Rate, durationDays int) ([]Entry, error) {
	if !principal.IsPositive() {
		return nil, ErrZeroPrincipal
	}
	if durationDays < 0 {
		return nil, ErrNegativeDuration
	}

	interestDue, err := interest.Simple(principal, rate, uint64(durationDays)*86400)
	if err != nil {
		return nil, err
	}

	return []Entry{{
		Period:           1,
		Payment:          principal.Add(interestDue),
		Principal:        principal,
		Interest:         interestDue,
		RemainingBalance: fixedpoint.Zero,
	}}, nil
}

// levelPayment computes the annuity payment, truncated toward zero. The
// zero-rate case degenerates to an even principal split (with the remainder
// handled by final-period reconciliation).
func levelPayment(principal fixedpoint.Amount, periodRate decimal.Decimal, n int) (fixedpoint.Amount, error) {
	if periodRate.IsZero() {
		return principal.DivInt(int64(n))
	}

	// Annuity factor through the float bridge; the pow has no decimal form.
	r := periodRate.InexactFloat64()
	factor := math.Pow(1+r, float64(n))
	k := decimal.NewFromFloat(r * factor / (factor - 1))

	return fixedpoint.TruncateToAmount(principal.Decimal().Mul(k).Truncate(0))
}
