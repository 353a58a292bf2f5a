package pricing

import (
	"reflect"
	"strings"
	"testing"
)

func testSnapshot() Snapshot {
	return Snapshot{
		BFPrices: []BFPriceEntry{
			{BF: 14, BasePrice: 42},
			{BF: 18, BasePrice: 50},
			{BF: 22, BasePrice: 58.5},
		},
		ShadePremiums: []ShadePremium{
			{Shade: "Kraft", Premium: 2},
			{Shade: "Golden", Premium: 3.5},
		},
		Rules: &Rules{
			LowGSMLimit:       100,
			HighGSMLimit:      200,
			LowGSMAdjustment:  5,
			HighGSMAdjustment: 8,
			MarketAdjustment:  0,
		},
	}
}

func TestCalculateRate_UnknownBF(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateRate(PaperSpec{BF: 99, GSM: 100, Shade: "Kraft"}, testSnapshot())
	if got != nil {
		t.Errorf("CalculateRate for unpriced BF: got %+v, want nil", got)
	}
}

func TestCalculateRate_GSMBanding(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()

	tests := []struct {
		name        string
		gsm         float64
		expectedAdj float64
	}{
		{
			name:        "Below low limit",
			gsm:         90,
			expectedAdj: 5,
		},
		{
			name:        "Exactly at low limit is normal band",
			gsm:         100,
			expectedAdj: 0,
		},
		{
			name:        "Middle of normal band",
			gsm:         150,
			expectedAdj: 0,
		},
		{
			name:        "Just under high limit",
			gsm:         199.9,
			expectedAdj: 0,
		},
		{
			name:        "Exactly at high limit is high band",
			gsm:         200,
			expectedAdj: 8,
		},
		{
			name:        "Above high limit",
			gsm:         250,
			expectedAdj: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CalculateRate(PaperSpec{BF: 18, GSM: tt.gsm, Shade: "Kraft"}, snap)
			if got == nil {
				t.Fatal("CalculateRate returned nil for priced BF")
			}
			if got.GSMAdjustment != tt.expectedAdj {
				t.Errorf("GSM adjustment: got %v, want %v", got.GSMAdjustment, tt.expectedAdj)
			}
		})
	}
}

func TestCalculateRate_Example(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()

	// BF 18 base 50, GSM 90 low band +5, Kraft +2, market 0.
	got := calc.CalculateRate(PaperSpec{BF: 18, GSM: 90, Shade: "Kraft"}, snap)
	if got == nil {
		t.Fatal("CalculateRate returned nil")
	}
	if got.FinalRate != 57 {
		t.Errorf("Final rate: got %v, want 57", got.FinalRate)
	}

	// Same paper at GSM 150: normal band, no adjustment.
	got = calc.CalculateRate(PaperSpec{BF: 18, GSM: 150, Shade: "Kraft"}, snap)
	if got == nil {
		t.Fatal("CalculateRate returned nil")
	}
	if got.GSMAdjustment != 0 {
		t.Errorf("GSM adjustment: got %v, want 0", got.GSMAdjustment)
	}
	if got.FinalRate != 52 {
		t.Errorf("Final rate: got %v, want 52", got.FinalRate)
	}
}

func TestCalculateRate_ShadeCaseInsensitive(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()

	lower := calc.CalculateRate(PaperSpec{BF: 18, GSM: 150, Shade: "kraft"}, snap)
	upper := calc.CalculateRate(PaperSpec{BF: 18, GSM: 150, Shade: "KRAFT"}, snap)

	if lower == nil || upper == nil {
		t.Fatal("CalculateRate returned nil")
	}
	if lower.ShadePremium != upper.ShadePremium {
		t.Errorf("Shade premium differs by case: %v vs %v", lower.ShadePremium, upper.ShadePremium)
	}
	if lower.ShadePremium != 2 {
		t.Errorf("Shade premium: got %v, want 2", lower.ShadePremium)
	}
}

func TestCalculateRate_UnknownShadeDegrades(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()

	got := calc.CalculateRate(PaperSpec{BF: 18, GSM: 150, Shade: "Bleached"}, snap)
	if got == nil {
		t.Fatal("CalculateRate returned nil for priced BF with unknown shade")
	}
	if got.ShadePremium != 0 {
		t.Errorf("Unknown shade premium: got %v, want 0", got.ShadePremium)
	}
	if !strings.Contains(got.Notes[2], "not configured") {
		t.Errorf("Shade note should report missing configuration, got %q", got.Notes[2])
	}
}

func TestCalculateRate_NilRules(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()
	snap.Rules = nil

	// No rules: default breakpoints apply but every adjustment is zero, so
	// the rate is base plus shade premium only.
	got := calc.CalculateRate(PaperSpec{BF: 18, GSM: 90, Shade: "Kraft"}, snap)
	if got == nil {
		t.Fatal("CalculateRate returned nil with nil rules")
	}
	if got.GSMAdjustment != 0 {
		t.Errorf("GSM adjustment with nil rules: got %v, want 0", got.GSMAdjustment)
	}
	if got.MarketAdjustment != 0 {
		t.Errorf("Market adjustment with nil rules: got %v, want 0", got.MarketAdjustment)
	}
	if got.FinalRate != 52 {
		t.Errorf("Final rate: got %v, want 52", got.FinalRate)
	}
}

func TestCalculateRate_ZeroLimitsFallBackToDefaults(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()
	snap.Rules = &Rules{LowGSMAdjustment: 5, HighGSMAdjustment: 8}

	got := calc.CalculateRate(PaperSpec{BF: 18, GSM: 90, Shade: "Kraft"}, snap)
	if got == nil {
		t.Fatal("CalculateRate returned nil")
	}
	if got.GSMAdjustment != 5 {
		t.Errorf("GSM 90 should hit default low limit 100: adjustment got %v, want 5", got.GSMAdjustment)
	}

	got = calc.CalculateRate(PaperSpec{BF: 18, GSM: 200, Shade: "Kraft"}, snap)
	if got.GSMAdjustment != 8 {
		t.Errorf("GSM 200 should hit default high limit 200: adjustment got %v, want 8", got.GSMAdjustment)
	}
}

func TestCalculateRate_NegativeMarketAdjustment(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()
	snap.Rules.MarketAdjustment = -1.5

	got := calc.CalculateRate(PaperSpec{BF: 22, GSM: 150, Shade: "Golden"}, snap)
	if got == nil {
		t.Fatal("CalculateRate returned nil")
	}
	if got.MarketAdjustment != -1.5 {
		t.Errorf("Market adjustment: got %v, want -1.5", got.MarketAdjustment)
	}
	// 58.5 + 0 + 3.5 - 1.5
	if got.FinalRate != 60.5 {
		t.Errorf("Final rate: got %v, want 60.5", got.FinalRate)
	}
}

func TestCalculateRate_SumIdentity(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()
	snap.Rules.MarketAdjustment = 2.25

	specs := []PaperSpec{
		{BF: 14, GSM: 80, Shade: "Kraft"},
		{BF: 18, GSM: 100, Shade: "golden"},
		{BF: 18, GSM: 200, Shade: "Bleached"},
		{BF: 22, GSM: 175, Shade: ""},
	}

	for _, spec := range specs {
		got := calc.CalculateRate(spec, snap)
		if got == nil {
			t.Fatalf("CalculateRate(%+v) returned nil", spec)
		}
		sum := got.BFBasePrice + got.GSMAdjustment + got.ShadePremium + got.MarketAdjustment
		if got.FinalRate != sum {
			t.Errorf("Final rate for %+v: got %v, want sum of parts %v", spec, got.FinalRate, sum)
		}
	}
}

func TestCalculateRate_NotesOrder(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateRate(PaperSpec{BF: 18, GSM: 90, Shade: "Kraft"}, testSnapshot())
	if got == nil {
		t.Fatal("CalculateRate returned nil")
	}

	if len(got.Notes) != 5 {
		t.Fatalf("Notes count: got %d, want 5 (%v)", len(got.Notes), got.Notes)
	}

	prefixes := []string{"Base rate", "GSM", "Shade", "Market adjustment", "Final rate"}
	for i, prefix := range prefixes {
		if !strings.HasPrefix(got.Notes[i], prefix) {
			t.Errorf("Notes[%d]: got %q, want prefix %q", i, got.Notes[i], prefix)
		}
	}
}

func TestCalculateRate_Idempotent(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()
	spec := PaperSpec{BF: 18, GSM: 90, Shade: "Kraft"}

	first := calc.CalculateRate(spec, snap)
	second := calc.CalculateRate(spec, snap)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated calls differ:\n  first: %+v\n second: %+v", first, second)
	}
}

func TestCalculateRate_DoesNotMutateSnapshot(t *testing.T) {
	calc := NewCalculator()
	snap := testSnapshot()
	rulesBefore := *snap.Rules

	calc.CalculateRate(PaperSpec{BF: 18, GSM: 90, Shade: "Kraft"}, snap)

	if *snap.Rules != rulesBefore {
		t.Errorf("Snapshot rules mutated: got %+v, want %+v", *snap.Rules, rulesBefore)
	}
}
