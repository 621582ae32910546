// Package limits validates loan requests against platform thresholds.
// Checks aggregate every violation instead of stopping at the first, so a
// caller can surface the complete list to the borrower in one round trip.
package limits

import (
	"fmt"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
	"github.com/lendfi/loan-engine/internal/model"
)

// ViolationType says which side of a bound was crossed.
type ViolationType string

const (
	BelowMinimum ViolationType = "below_minimum"
	AboveMaximum ViolationType = "above_maximum"
)

// Violation describes one failed threshold check.
type Violation struct {
	Field   string        `json:"field"`
	Value   string        `json:"value"`
	Limit   string        `json:"limit"`
	Type    ViolationType `json:"type"`
	Message string        `json:"message"`
}

// Config holds the platform thresholds. Zero-valued maxima disable the
// corresponding upper-bound check.
type Config struct {
	MinLoanAmount fixedpoint.Amount `json:"min_loan_amount"`
	MaxLoanAmount fixedpoint.Amount `json:"max_loan_amount"`

	MinDurationDays uint32 `json:"min_duration_days"`
	MaxDurationDays uint32 `json:"max_duration_days"`

	MinRateBps fixedpoint.Rate `json:"min_rate_bps"`
	MaxRateBps fixedpoint.Rate `json:"max_rate_bps"`

	MaxActiveLoans uint32 `json:"max_active_loans"`

	// MaxTotalExposure bounds a borrower's aggregate outstanding principal.
	MaxTotalExposure fixedpoint.Amount `json:"max_total_exposure"`
}

// DefaultConfig returns the platform defaults. Amounts are in smallest
// token units at 18 decimals: 0.001 to 1000 tokens.
func DefaultConfig() Config {
	return Config{
		MinLoanAmount:    fixedpoint.MustAmount("1000000000000000"),       // 0.001
		MaxLoanAmount:    fixedpoint.MustAmount("1000000000000000000000"), // 1000
		MinDurationDays:  1,
		MaxDurationDays:  365,
		MinRateBps:       1,
		MaxRateBps:       10000, // 100%
		MaxActiveLoans:   10,
		MaxTotalExposure: fixedpoint.MustAmount("5000000000000000000000"), // 5000
	}
}

// CheckLoanTerm validates a loan term against every threshold and returns
// all violations found. An empty slice means the term is acceptable.
func CheckLoanTerm(term model.LoanTerm, cfg Config) []Violation {
	var out []Violation

	if term.Principal.LessThan(cfg.MinLoanAmount) {
		out = append(out, Violation{
			Field:   "principal",
			Value:   term.Principal.String(),
			Limit:   cfg.MinLoanAmount.String(),
			Type:    BelowMinimum,
			Message: fmt.Sprintf("principal %s is below the minimum loan amount %s", term.Principal, cfg.MinLoanAmount),
		})
	}
	if cfg.MaxLoanAmount.IsPositive() && term.Principal.GreaterThan(cfg.MaxLoanAmount) {
		out = append(out, Violation{
			Field:   "principal",
			Value:   term.Principal.String(),
			Limit:   cfg.MaxLoanAmount.String(),
			Type:    AboveMaximum,
			Message: fmt.Sprintf("principal %s exceeds the maximum loan amount %s", term.Principal, cfg.MaxLoanAmount),
		})
	}

	days := term.DurationSeconds / 86400
	if days < uint64(cfg.MinDurationDays) {
		out = append(out, Violation{
			Field:   "duration_days",
			Value:   fmt.Sprintf("%d", days),
			Limit:   fmt.Sprintf("%d", cfg.MinDurationDays),
			Type:    BelowMinimum,
			Message: fmt.Sprintf("duration of %d whole days is below the %d day minimum", days, cfg.MinDurationDays),
		})
	}
	if cfg.MaxDurationDays > 0 && days > uint64(cfg.MaxDurationDays) {
		out = append(out, Violation{
			Field:   "duration_days",
			Value:   fmt.Sprintf("%d", days),
			Limit:   fmt.Sprintf("%d", cfg.MaxDurationDays),
			Type:    AboveMaximum,
			Message: fmt.Sprintf("duration of %d days exceeds the %d day maximum", days, cfg.MaxDurationDays),
		})
	}

	if term.RateBps < cfg.MinRateBps {
		out = append(out, Violation{
			Field:   "rate_bps",
			Value:   fmt.Sprintf("%d", term.RateBps),
			Limit:   fmt.Sprintf("%d", cfg.MinRateBps),
			Type:    BelowMinimum,
			Message: fmt.Sprintf("rate %s is below the minimum %s", term.RateBps, cfg.MinRateBps),
		})
	}
	if cfg.MaxRateBps > 0 && term.RateBps > cfg.MaxRateBps {
		out = append(out, Violation{
			Field:   "rate_bps",
			Value:   fmt.Sprintf("%d", term.RateBps),
			Limit:   fmt.Sprintf("%d", cfg.MaxRateBps),
			Type:    AboveMaximum,
			Message: fmt.Sprintf("rate %s exceeds the maximum %s", term.RateBps, cfg.MaxRateBps),
		})
	}

	return out
}

// CheckActiveLoans validates a borrower's open-loan count against the cap.
// The prospective new loan counts toward the total.
func CheckActiveLoans(activeLoans uint32, cfg Config) []Violation {
	if cfg.MaxActiveLoans == 0 || activeLoans+1 <= cfg.MaxActiveLoans {
		return nil
	}
	return []Violation{{
		Field:   "active_loans",
		Value:   fmt.Sprintf("%d", activeLoans),
		Limit:   fmt.Sprintf("%d", cfg.MaxActiveLoans),
		Type:    AboveMaximum,
		Message: fmt.Sprintf("borrower already holds %d active loans; the cap is %d", activeLoans, cfg.MaxActiveLoans),
	}}
}

// CheckExposure validates that current exposure plus the new principal stays
// within the aggregate exposure cap.
func CheckExposure(currentExposure, newPrincipal fixedpoint.Amount, cfg Config) []Violation {
	if !cfg.MaxTotalExposure.IsPositive() {
		return nil
	}
	total := currentExposure.Add(newPrincipal)
	if !total.GreaterThan(cfg.MaxTotalExposure) {
		return nil
	}
	return []Violation{{
		Field:   "total_exposure",
		Value:   total.String(),
		Limit:   cfg.MaxTotalExposure.String(),
		Type:    AboveMaximum,
		Message: fmt.Sprintf("total exposure %s would exceed the cap %s", total, cfg.MaxTotalExposure),
	}}
}

// CheckAll runs every validation for a new loan request and returns the
// combined violation list.
func CheckAll(term model.LoanTerm, activeLoans uint32, currentExposure fixedpoint.Amount, cfg Config) []Violation {
	out := CheckLoanTerm(term, cfg)
	out = append(out, CheckActiveLoans(activeLoans, cfg)...)
	out = append(out, CheckExposure(currentExposure, term.Principal, cfg)...)
	return out
}
