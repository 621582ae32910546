package limits

import (
	"testing"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
	"github.com/lendfi/loan-engine/internal/model"
)

func term(t *testing.T, principal string, rateBps fixedpoint.Rate, days uint64) model.LoanTerm {
	t.Helper()
	lt, err := model.NewLoanTerm(fixedpoint.MustAmount(principal), rateBps, days*86400, 1_700_000_000)
	if err != nil {
		t.Fatalf("NewLoanTerm: %v", err)
	}
	return lt
}

func TestCheckLoanTerm_Acceptable(t *testing.T) {
	got := CheckLoanTerm(term(t, "1000000000000000000", 500, 30), DefaultConfig())
	if len(got) != 0 {
		t.Errorf("expected no violations, got %v", got)
	}
}

func TestCheckLoanTerm_Boundaries(t *testing.T) {
	cfg := DefaultConfig()

	// Exactly at each bound is acceptable.
	for _, tt := range []model.LoanTerm{
		term(t, "1000000000000000", 500, 30),          // min amount
		term(t, "1000000000000000000000", 500, 30),    // max amount
		term(t, "1000000000000000000", 1, 30),         // min rate
		term(t, "1000000000000000000", 10000, 30),     // max rate
		term(t, "1000000000000000000", 500, 1),        // min duration
		term(t, "1000000000000000000", 500, 365),      // max duration
	} {
		if got := CheckLoanTerm(tt, cfg); len(got) != 0 {
			t.Errorf("boundary term should pass, got %v", got)
		}
	}
}

func TestCheckLoanTerm_ReportsEveryViolation(t *testing.T) {
	// Below minimum amount, above maximum rate, above maximum duration:
	// all three must be reported, not just the first.
	lt := term(t, "1", 20000, 400)
	got := CheckLoanTerm(lt, DefaultConfig())

	if len(got) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(got), got)
	}

	byField := map[string]Violation{}
	for _, v := range got {
		byField[v.Field] = v
	}
	if v := byField["principal"]; v.Type != BelowMinimum {
		t.Errorf("principal violation = %+v, want below_minimum", v)
	}
	if v := byField["rate_bps"]; v.Type != AboveMaximum {
		t.Errorf("rate violation = %+v, want above_maximum", v)
	}
	if v := byField["duration_days"]; v.Type != AboveMaximum {
		t.Errorf("duration violation = %+v, want above_maximum", v)
	}
}

func TestCheckLoanTerm_DurationFloorsToWholeDays(t *testing.T) {
	// 86399 seconds is zero whole days: below the one-day minimum.
	lt, err := model.NewLoanTerm(fixedpoint.MustAmount("1000000000000000000"), 500, 86399, 1_700_000_000)
	if err != nil {
		t.Fatalf("NewLoanTerm: %v", err)
	}
	got := CheckLoanTerm(lt, DefaultConfig())
	if len(got) != 1 || got[0].Field != "duration_days" || got[0].Type != BelowMinimum {
		t.Errorf("expected single below-minimum duration violation, got %v", got)
	}
}

func TestCheckLoanTerm_DisabledMaxima(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLoanAmount = fixedpoint.Zero
	cfg.MaxRateBps = 0
	cfg.MaxDurationDays = 0

	lt := term(t, "999999999999999999999999", 50000, 10000)
	if got := CheckLoanTerm(lt, cfg); len(got) != 0 {
		t.Errorf("zero maxima should disable upper-bound checks, got %v", got)
	}
}

func TestCheckActiveLoans(t *testing.T) {
	cfg := DefaultConfig() // cap 10

	// 9 active + the new one = 10: still within the cap.
	if got := CheckActiveLoans(9, cfg); len(got) != 0 {
		t.Errorf("9 active should pass, got %v", got)
	}
	// 10 active + the new one = 11: over.
	got := CheckActiveLoans(10, cfg)
	if len(got) != 1 || got[0].Type != AboveMaximum {
		t.Fatalf("10 active should violate, got %v", got)
	}

	cfg.MaxActiveLoans = 0
	if got := CheckActiveLoans(1000, cfg); len(got) != 0 {
		t.Errorf("zero cap should disable the check, got %v", got)
	}
}

func TestCheckExposure(t *testing.T) {
	cfg := DefaultConfig() // cap 5000 tokens

	current := fixedpoint.MustAmount("4000000000000000000000") // 4000
	within := fixedpoint.MustAmount("1000000000000000000000")  // +1000 = exactly at cap
	if got := CheckExposure(current, within, cfg); len(got) != 0 {
		t.Errorf("exposure exactly at cap should pass, got %v", got)
	}

	over := fixedpoint.MustAmount("1000000000000000000001")
	got := CheckExposure(current, over, cfg)
	if len(got) != 1 || got[0].Field != "total_exposure" {
		t.Errorf("expected exposure violation, got %v", got)
	}

	cfg.MaxTotalExposure = fixedpoint.Zero
	if got := CheckExposure(current, over, cfg); len(got) != 0 {
		t.Errorf("zero cap should disable the check, got %v", got)
	}
}

func TestCheckAll_Aggregates(t *testing.T) {
	cfg := DefaultConfig()
	lt := term(t, "1", 20000, 30) // amount + rate violations

	got := CheckAll(lt, 10, fixedpoint.MustAmount("5000000000000000000000"), cfg)

	// 2 term violations + active-loan cap + exposure cap.
	if len(got) != 4 {
		t.Fatalf("expected 4 aggregated violations, got %d: %v", len(got), got)
	}
	for _, v := range got {
		if v.Message == "" {
			t.Errorf("violation %s has empty message", v.Field)
		}
	}
}
