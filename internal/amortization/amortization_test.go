package amortization

import (
	"testing"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
)

func amt(s string) fixedpoint.Amount { return fixedpoint.MustAmount(s) }

func rate(bps int64) fixedpoint.Rate {
	r, err := fixedpoint.NewRate(bps)
	if err != nil {
		panic(err)
	}
	return r
}

// checkConservation verifies the two schedule invariants: the principal
// column sums to exactly the original principal, and the remaining balance
// is non-increasing and exactly zero at the end.
func checkConservation(t *testing.T, schedule []Entry, principal fixedpoint.Amount) {
	t.Helper()

	sum := fixedpoint.Zero
	prev := principal
	for i, e := range schedule {
		if e.Period != uint32(i+1) {
			t.Errorf("entry %d: period = %d, want %d (1-indexed ascending)", i, e.Period, i+1)
		}
		sum = sum.Add(e.Principal)
		if e.RemainingBalance.GreaterThan(prev) {
			t.Errorf("entry %d: balance %s increased from %s", i, e.RemainingBalance, prev)
		}
		prev = e.RemainingBalance

		if !e.Payment.Equal(e.Principal.Add(e.Interest)) {
			t.Errorf("entry %d: payment %s != principal %s + interest %s",
				i, e.Payment, e.Principal, e.Interest)
		}
	}

	if !sum.Equal(principal) {
		t.Errorf("principal conservation violated: Σ=%s, want %s", sum, principal)
	}
	final := schedule[len(schedule)-1]
	if !final.RemainingBalance.IsZero() {
		t.Errorf("final balance should be exactly zero, got %s", final.RemainingBalance)
	}
}

func TestFixedPaymentSchedule_Conservation(t *testing.T) {
	tests := []struct {
		name           string
		principal      fixedpoint.Amount
		rateBps        int64
		payments       int
		periodsPerYear int
	}{
		{"12 months at 12%", amt("1000000"), 1200, 12, 12},
		{"awkward principal", amt("999999999999999999"), 1000, 12, 12},
		{"1 token 18 decimals, 36 months", amt("1000000000000000000"), 850, 36, 12},
		{"single payment", amt("500000"), 1000, 1, 12},
		{"high rate", amt("1000000"), 15000, 24, 12},
		{"tiny principal many periods", amt("100"), 1200, 12, 12},
		{"quarterly periods", amt("750000"), 600, 8, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := FixedPaymentSchedule(tt.principal, rate(tt.rateBps), tt.payments, tt.periodsPerYear)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(schedule) != tt.payments {
				t.Fatalf("expected %d entries, got %d", tt.payments, len(schedule))
			}
			checkConservation(t, schedule, tt.principal)
		})
	}
}

func TestFixedPaymentSchedule_LevelPayments(t *testing.T) {
	schedule, err := FixedPaymentSchedule(amt("1000000"), rate(1200), 12, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All payments except the reconciled final one are identical.
	first := schedule[0].Payment
	for _, e := range schedule[:len(schedule)-1] {
		if !e.Payment.Equal(first) {
			t.Errorf("period %d payment %s differs from level payment %s", e.Period, e.Payment, first)
		}
	}
}

func TestFixedPaymentSchedule_InterestDeclines(t *testing.T) {
	schedule, _ := FixedPaymentSchedule(amt("1000000000"), rate(1200), 12, 12)
	for i := 1; i < len(schedule); i++ {
		if schedule[i].Interest.GreaterThan(schedule[i-1].Interest) {
			t.Errorf("interest should decline as balance falls: period %d %s > period %d %s",
				i+1, schedule[i].Interest, i, schedule[i-1].Interest)
		}
	}
}

func TestFixedPaymentSchedule_KnownAnnuity(t *testing.T) {
	// 1,000,000 at 12% annual, monthly for 12 months: payment ≈ 88,848.79.
	schedule, err := FixedPaymentSchedule(amt("1000000"), rate(1200), 12, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payment := schedule[0].Payment
	if payment.String() != "88848" {
		t.Errorf("expected truncated level payment 88848, got %s", payment)
	}
	// First period interest = 1,000,000 * 1% = 10,000.
	if schedule[0].Interest.String() != "10000" {
		t.Errorf("expected first-period interest 10000, got %s", schedule[0].Interest)
	}
}

func TestFixedPaymentSchedule_ZeroRateEvenSplit(t *testing.T) {
	schedule, err := FixedPaymentSchedule(amt("1000"), rate(0), 12, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkConservation(t, schedule, amt("1000"))

	// 1000/12 = 83 per period, final period absorbs the remainder (87).
	if schedule[0].Principal.String() != "83" {
		t.Errorf("expected 83 per period, got %s", schedule[0].Principal)
	}
	if schedule[11].Principal.String() != "87" {
		t.Errorf("expected final period 87, got %s", schedule[11].Principal)
	}
	for _, e := range schedule {
		if !e.Interest.IsZero() {
			t.Errorf("zero-rate schedule should accrue no interest, period %d has %s", e.Period, e.Interest)
		}
	}
}

func TestFixedPaymentSchedule_ZeroPaymentsIsError(t *testing.T) {
	if _, err := FixedPaymentSchedule(amt("1000"), rate(1000), 0, 12); err != ErrZeroPayments {
		t.Errorf("expected ErrZeroPayments, got %v", err)
	}
}

func TestFixedPaymentSchedule_ZeroPeriodsPerYearIsError(t *testing.T) {
	if _, err := FixedPaymentSchedule(amt("1000"), rate(1000), 12, 0); err != ErrZeroPeriodsPerYear {
		t.Errorf("expected ErrZeroPeriodsPerYear, got %v", err)
	}
}

func TestFixedPaymentSchedule_ZeroPrincipalIsError(t *testing.T) {
	if _, err := FixedPaymentSchedule(fixedpoint.Zero, rate(1000), 12, 12); err != ErrZeroPrincipal {
		t.Errorf("expected ErrZeroPrincipal, got %v", err)
	}
}

func TestLumpSumSchedule(t *testing.T) {
	// 1 token at 10% for 365 days: single entry, interest 1e17.
	principal := amt("1000000000000000000")
	schedule, err := LumpSumSchedule(principal, rate(1000), 365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedule) != 1 {
		t.Fatalf("expected single entry, got %d", len(schedule))
	}

	e := schedule[0]
	if e.Period != 1 {
		t.Errorf("expected period 1, got %d", e.Period)
	}
	if e.Interest.String() != "100000000000000000" {
		t.Errorf("expected interest 1e17, got %s", e.Interest)
	}
	if !e.Payment.Equal(principal.Add(e.Interest)) {
		t.Errorf("payment should be principal+interest, got %s", e.Payment)
	}
	if !e.RemainingBalance.IsZero() {
		t.Errorf("lump sum leaves zero balance, got %s", e.RemainingBalance)
	}
}

func TestLumpSumSchedule_ZeroDurationZeroInterest(t *testing.T) {
	schedule, err := LumpSumSchedule(amt("1000"), rate(1000), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !schedule[0].Interest.IsZero() {
		t.Errorf("zero duration should accrue zero interest, got %s", schedule[0].Interest)
	}
}
