package collateral

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lendfi/loan-engine/internal/fixedpoint"
	"github.com/lendfi/loan-engine/internal/model"
)

func amt(s string) fixedpoint.Amount { return fixedpoint.MustAmount(s) }

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// --- Valuation ---

func TestValueUSD_SingleAsset(t *testing.T) {
	// 2 ETH (18 decimals) at $3,200.00 → 6,400,000,000 micro-USD.
	position := model.CollateralPosition{
		{Symbol: "ETH", Amount: amt("2000000000000000000"), Decimals: 18, PriceUSDMicros: 3_200_000_000},
	}
	got := ValueUSD(position)
	if got.String() != "6400000000" {
		t.Errorf("expected 6400000000 micro-USD, got %s", got)
	}
}

func TestValueUSD_MultiAssetIntegerTruncation(t *testing.T) {
	// Each term truncates independently: 1.5 units at 3.333333 USD is
	// 4999999.5 micro-USD → 4999999, twice → 9999998 (not 9999999).
	asset := model.CollateralAsset{Symbol: "X", Amount: amt("1500000"), Decimals: 6, PriceUSDMicros: 3_333_333}
	position := model.CollateralPosition{asset, asset}
	got := ValueUSD(position)
	if got.String() != "9999998" {
		t.Errorf("expected per-term truncation to give 9999998, got %s", got)
	}
}

func TestValueUSD_EmptyPosition(t *testing.T) {
	if !ValueUSD(nil).IsZero() {
		t.Error("empty position should value to zero")
	}
}

// --- Ratio and levels ---

func TestRatio_Levels(t *testing.T) {
	tests := []struct {
		collateral, loan string
		want             Level
	}{
		{"2000", "1000", LevelSafe},     // 200%
		{"1999", "1000", LevelModerate}, // 199.9%
		{"1500", "1000", LevelModerate}, // 150%
		{"1499", "1000", LevelWarning},  // 149.9%
		{"1300", "1000", LevelWarning},  // 130%
		{"1299", "1000", LevelDanger},   // 129.9%
		{"0", "1000", LevelDanger},
	}
	for _, tt := range tests {
		got := Ratio(amt(tt.collateral), amt(tt.loan))
		if got.Level != tt.want {
			t.Errorf("Ratio(%s/%s): level = %s, want %s (ratio %s)",
				tt.collateral, tt.loan, got.Level, tt.want, got.Ratio)
		}
		if got.Unbounded {
			t.Errorf("Ratio(%s/%s) should not be unbounded", tt.collateral, tt.loan)
		}
	}
}

func TestRatio_ZeroLoanIsUnboundedSafe(t *testing.T) {
	got := Ratio(amt("1000"), fixedpoint.Zero)
	if !got.Unbounded {
		t.Error("zero loan value should report an unbounded ratio")
	}
	if got.Level != LevelSafe {
		t.Errorf("zero loan value should classify safe, got %s", got.Level)
	}
}

func TestRatio_ClassifiesExactQuotient(t *testing.T) {
	// 129999999/100000000 is 129.999999%: the reported figure rounds to 130
	// but the true ratio sits below the warning threshold, so the position
	// classifies danger and is liquidatable.
	below := Ratio(amt("129999999"), amt("100000000"))
	if !below.Ratio.Equal(d(130)) {
		t.Errorf("reported ratio = %s, want rounded 130", below.Ratio)
	}
	if below.Level != LevelDanger {
		t.Errorf("129.999999%% classified %s, want danger", below.Level)
	}
	if !IsLiquidatable(amt("129999999"), amt("100000000")) {
		t.Error("position just below the warning threshold must be liquidatable")
	}

	// And just above the threshold: warning, not liquidatable.
	above := Ratio(amt("130000001"), amt("100000000"))
	if above.Level != LevelWarning {
		t.Errorf("130.000001%% classified %s, want warning", above.Level)
	}
	if IsLiquidatable(amt("130000001"), amt("100000000")) {
		t.Error("position just above the warning threshold must not be liquidatable")
	}
}

// --- Liquidation consistency ---

func TestIsLiquidatable_AgreesWithRatio(t *testing.T) {
	// Invariant: IsLiquidatable(c,l) == (true ratio < warning threshold),
	// including the zero-loan case. The true ratio is checked by exact
	// cross-multiplication, not via the rounded display figure.
	pairs := []struct{ collateral, loan string }{
		{"0", "0"},
		{"1000", "0"},
		{"0", "1000"},
		{"1299", "1000"},
		{"1300", "1000"},
		{"1301", "1000"},
		{"2600", "2000"},
		{"1500", "1000"},
		{"2000", "1000"},
		{"129999999", "100000000"},
		{"130000001", "100000000"},
		{"123456789", "99999999"},
		{"1000000000000000000000", "769230769230769230769"},
	}
	for _, p := range pairs {
		c, l := amt(p.collateral), amt(p.loan)
		belowThreshold := !l.IsZero() &&
			c.Decimal().Mul(decimal.NewFromInt(100)).LessThan(l.Decimal().Mul(WarningThreshold))
		if IsLiquidatable(c, l) != belowThreshold {
			t.Errorf("IsLiquidatable(%s,%s) = %v disagrees with exact ratio comparison",
				p.collateral, p.loan, IsLiquidatable(c, l))
		}
	}
}

// --- Liquidation price ---

func TestLiquidationPrice(t *testing.T) {
	// 2 units of collateral, loan 1000 USD (1e9 micro), 130% threshold:
	// price = 1e9 * 130 / 100 / 2 = 650,000,000 micro-USD per unit.
	got := LiquidationPrice(d(2), amt("1000000000"), d(130))
	if !got.Equal(d(650000000)) {
		t.Errorf("expected 650000000, got %s", got)
	}
}

func TestLiquidationPrice_ZeroCollateral(t *testing.T) {
	got := LiquidationPrice(decimal.Zero, amt("1000000000"), d(130))
	if !got.IsZero() {
		t.Errorf("no collateral means liquidatable at any price (0), got %s", got)
	}
}

// --- Health factor ---

func TestHealth_BoundaryIsOne(t *testing.T) {
	// Ratio exactly 130% → health factor exactly 1.
	got := Health(amt("1300"), amt("1000"))
	if got.Unbounded {
		t.Fatal("unexpected unbounded health")
	}
	if !got.Factor.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected health 1 at the warning threshold, got %s", got.Factor)
	}
}

func TestHealth_ZeroLoanUnbounded(t *testing.T) {
	got := Health(amt("1300"), fixedpoint.Zero)
	if !got.Unbounded {
		t.Error("zero loan should give unbounded health")
	}
}

func TestHealth_AboveAndBelowOne(t *testing.T) {
	if !Health(amt("2600"), amt("1000")).Factor.GreaterThan(decimal.NewFromInt(1)) {
		t.Error("200%+ position should have health > 1")
	}
	if !Health(amt("650"), amt("1000")).Factor.LessThan(decimal.NewFromInt(1)) {
		t.Error("65% position should have health < 1")
	}
}

// --- Required / additional collateral ---

func TestRequiredCollateral(t *testing.T) {
	got := RequiredCollateral(amt("1000"), d(150))
	if got.String() != "1500" {
		t.Errorf("expected 1500, got %s", got)
	}
}

func TestAdditionalCollateralNeeded(t *testing.T) {
	got := AdditionalCollateralNeeded(amt("1200"), amt("1000"), d(150))
	if got.String() != "300" {
		t.Errorf("expected 300 more, got %s", got)
	}

	// Already above target → zero, never negative.
	got = AdditionalCollateralNeeded(amt("2000"), amt("1000"), d(150))
	if !got.IsZero() {
		t.Errorf("over-collateralized position needs nothing, got %s", got)
	}
}

func TestLiquidationPenalty(t *testing.T) {
	got := LiquidationPenalty(amt("1000"), d(5))
	if got.String() != "50" {
		t.Errorf("expected 50, got %s", got)
	}

	// Truncation: 999 * 5% = 49.95 → 49.
	got = LiquidationPenalty(amt("999"), d(5))
	if got.String() != "49" {
		t.Errorf("expected truncated 49, got %s", got)
	}
}
