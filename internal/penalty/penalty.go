// Package penalty computes late-payment fees. A late loan moves through
// four zones as days late accumulate:
//
//	none → grace (late, zero fee) → warning (escalating daily fee) → critical (capped)
//
// A PenaltyResult is derived entirely from (principal, dueTimestamp, now,
// config): it is never stored and always recomputed, so the same late loan
// yields the same penalty on every node that evaluates it.
package penalty

import (
	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
)

// Zone names the severity band a late loan is in.
type Zone string

const (
	ZoneNone     Zone = "none"
	ZoneGrace    Zone = "grace"
	ZoneWarning  Zone = "warning"
	ZoneCritical Zone = "critical"
)

// Config carries the penalty policy. All percentages are plain percent
// values (5 means 5%). The zero value is not usable; start from
// DefaultConfig and override.
type Config struct {
	GracePeriodDays       uint32            `json:"grace_period_days"`
	EscalationThresholds  []uint32          `json:"escalation_thresholds"`  // effective days late
	EscalationMultipliers []decimal.Decimal `json:"escalation_multipliers"` // indexed by level, clamped
	BaseFeePercent        decimal.Decimal   `json:"base_fee_percent"`
	DailyFeePercent       decimal.Decimal   `json:"daily_fee_percent"`
	MaxPenaltyPercent     decimal.Decimal   `json:"max_penalty_percent"`
}

// DefaultConfig returns the baseline policy: 3 grace days, escalation at
// 7/14/30/60 effective days, multipliers 1→3, 5% base fee, 0.1% daily fee,
// capped at 25% of principal. These defaults are contract-level constants;
// settlement and display must agree on them exactly.
func DefaultConfig() Config {
	return Config{
		GracePeriodDays:      3,
		EscalationThresholds: []uint32{7, 14, 30, 60},
		EscalationMultipliers: []decimal.Decimal{
			decimal.NewFromInt(1),
			decimal.NewFromFloat(1.5),
			decimal.NewFromInt(2),
			decimal.NewFromFloat(2.5),
			decimal.NewFromInt(3),
		},
		BaseFeePercent:    decimal.NewFromInt(5),
		DailyFeePercent:   decimal.NewFromFloat(0.1),
		MaxPenaltyPercent: decimal.NewFromInt(25),
	}
}

// Result is the computed late fee for one loan at one instant.
type Result struct {
	BasePenalty      fixedpoint.Amount `json:"base_penalty"`
	EscalatedPenalty fixedpoint.Amount `json:"escalated_penalty"`
	TotalPenalty     fixedpoint.Amount `json:"total_penalty"`
	DaysLate         uint32            `json:"days_late"`
	EscalationLevel  uint8             `json:"escalation_level"`
	Zone             Zone              `json:"zone"`
}

// DaysLate returns whole days elapsed past the due timestamp, floored;
// zero when the loan is not yet due.
func DaysLate(dueTimestamp, now uint64) uint32 {
	if now <= dueTimestamp {
		return 0
	}
	return uint32((now - dueTimestamp) / 86400)
}

// EscalationLevel counts how many thresholds the effective days late have
// crossed.
func EscalationLevel(effectiveDaysLate uint32, thresholds []uint32) uint8 {
	var level uint8
	for _, th := range thresholds {
		if effectiveDaysLate >= th {
			level++
		}
	}
	return level
}

// LateFee computes the penalty owed on a late loan.
//
//	base      = principal * baseFeePercent / 100
//	escalated = principal * dailyFeePercent * effectiveDaysLate * multiplier / 100
//	total     = min(base + escalated, principal * maxPenaltyPercent / 100)
//
// Within the grace window every numeric field is zero — DaysLate included;
// only the zone distinguishes a grace-window loan from an on-time one. All
// divisions truncate toward zero.
func LateFee(principal fixedpoint.Amount, dueTimestamp uint64, cfg Config, now uint64) Result {
	daysLate := DaysLate(dueTimestamp, now)

	if daysLate == 0 {
		return Result{Zone: ZoneNone}
	}
	if daysLate <= cfg.GracePeriodDays {
		return Result{Zone: ZoneGrace}
	}

	effective := daysLate - cfg.GracePeriodDays
	level := EscalationLevel(effective, cfg.EscalationThresholds)
	multiplier := multiplierFor(level, cfg.EscalationMultipliers)

	hundred := decimal.NewFromInt(100)

	base := truncate(principal.Decimal().Mul(cfg.BaseFeePercent).Div(hundred))
	escalated := truncate(principal.Decimal().
		Mul(cfg.DailyFeePercent).
		Mul(decimal.NewFromInt(int64(effective))).
		Mul(multiplier).
		Div(hundred))
	cap := truncate(principal.Decimal().Mul(cfg.MaxPenaltyPercent).Div(hundred))

	total := base.Add(escalated).Min(cap)

	zone := ZoneWarning
	if total.Equal(cap) {
		zone = ZoneCritical
	}

	return Result{
		BasePenalty:      base,
		EscalatedPenalty: escalated,
		TotalPenalty:     total,
		DaysLate:         daysLate,
		EscalationLevel:  level,
		Zone:             zone,
	}
}

// multiplierFor looks up the escalation multiplier, clamping the index to
// the table's last entry.
func multiplierFor(level uint8, multipliers []decimal.Decimal) decimal.Decimal {
	if len(multipliers) == 0 {
		return decimal.NewFromInt(1)
	}
	idx := int(level)
	if idx >= len(multipliers) {
		idx = len(multipliers) - 1
	}
	return multipliers[idx]
}

// truncate applies the engine rounding rule to a non-negative intermediate.
func truncate(d decimal.Decimal) fixedpoint.Amount {
	amt, err := fixedpoint.TruncateToAmount(d)
	if err != nil {
		// Inputs are non-negative by construction; unreachable.
		return fixedpoint.Zero
	}
	return amt
}
