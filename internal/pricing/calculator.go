package pricing

import (
	"fmt"
	"strings"
)

// Calculator computes per-kg paper rates from a pricing snapshot.
// It is stateless and safe for concurrent use.
type Calculator struct {
}

// NewCalculator creates a new paper rate calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateRate computes the final per-kg rate for a paper spec against a
// pricing snapshot.
//
// Returns nil when the BF has no exact price entry: the rate is undefined
// for that paper, and the caller must treat it as a hard stop for the line
// item. Every other gap in the snapshot (no rules row, unknown shade)
// degrades to a zero contribution instead of failing.
//
// No rounding happens here; display rounding is the caller's concern.
func (c *Calculator) CalculateRate(spec PaperSpec, snap Snapshot) *Breakdown {
	base, found := lookupBasePrice(snap.BFPrices, spec.BF)
	if !found {
		return nil
	}

	rules := effectiveRules(snap.Rules)

	notes := make([]string, 0, 5)
	notes = append(notes, fmt.Sprintf("Base rate for BF %g: %.2f", spec.BF, base))

	// GSM banding. The boundary asymmetry is intentional and load-bearing:
	// gsm == low belongs to the normal band, gsm == high to the high band.
	var gsmAdj float64
	switch {
	case spec.GSM < rules.LowGSMLimit:
		gsmAdj = rules.LowGSMAdjustment
		notes = append(notes, fmt.Sprintf("GSM %g below %g: low GSM adjustment %+.2f",
			spec.GSM, rules.LowGSMLimit, gsmAdj))
	case spec.GSM >= rules.HighGSMLimit:
		gsmAdj = rules.HighGSMAdjustment
		notes = append(notes, fmt.Sprintf("GSM %g at or above %g: high GSM adjustment %+.2f",
			spec.GSM, rules.HighGSMLimit, gsmAdj))
	default:
		notes = append(notes, fmt.Sprintf("GSM %g within normal band [%g, %g): no adjustment",
			spec.GSM, rules.LowGSMLimit, rules.HighGSMLimit))
	}

	shadePremium, configured := lookupShadePremium(snap.ShadePremiums, spec.Shade)
	if configured {
		notes = append(notes, fmt.Sprintf("Shade %q premium: %+.2f", spec.Shade, shadePremium))
	} else {
		notes = append(notes, fmt.Sprintf("Shade %q not configured: no premium", spec.Shade))
	}

	notes = append(notes, fmt.Sprintf("Market adjustment: %+.2f", rules.MarketAdjustment))

	finalRate := base + gsmAdj + shadePremium + rules.MarketAdjustment
	notes = append(notes, fmt.Sprintf("Final rate: %.2f per kg", finalRate))

	return &Breakdown{
		BFBasePrice:      base,
		GSMAdjustment:    gsmAdj,
		ShadePremium:     shadePremium,
		MarketAdjustment: rules.MarketAdjustment,
		FinalRate:        finalRate,
		Notes:            notes,
	}
}

// lookupBasePrice finds the exact BF entry. No interpolation between grades:
// a BF the tenant never priced has no rate.
func lookupBasePrice(entries []BFPriceEntry, bf float64) (float64, bool) {
	for _, e := range entries {
		if e.BF == bf {
			return e.BasePrice, true
		}
	}
	return 0, false
}

// lookupShadePremium matches the shade key case-insensitively.
func lookupShadePremium(premiums []ShadePremium, shade string) (float64, bool) {
	for _, p := range premiums {
		if strings.EqualFold(p.Shade, shade) {
			return p.Premium, true
		}
	}
	return 0, false
}

// effectiveRules fills in defaults for a missing rules row or unset limits.
func effectiveRules(r *Rules) Rules {
	if r == nil {
		return Rules{LowGSMLimit: DefaultLowGSMLimit, HighGSMLimit: DefaultHighGSMLimit}
	}
	out := *r
	if out.LowGSMLimit == 0 {
		out.LowGSMLimit = DefaultLowGSMLimit
	}
	if out.HighGSMLimit == 0 {
		out.HighGSMLimit = DefaultHighGSMLimit
	}
	return out
}
