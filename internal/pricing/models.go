package pricing

// Default GSM band breakpoints used when a tenant has no pricing rules row
// or leaves a limit unset.
const (
	DefaultLowGSMLimit  = 100
	DefaultHighGSMLimit = 200
)

// BFPriceEntry is the base per-kg rate for a burst factor grade.
// Reference data, unique per BF value; managed by admin pricing tools.
type BFPriceEntry struct {
	BF        float64 `json:"bf"`
	BasePrice float64 `json:"base_price"` // per kg
}

// ShadePremium is the per-kg premium for a paper shade (e.g. Kraft, Golden).
// Shade keys are matched case-insensitively. A shade with no entry carries
// zero premium.
type ShadePremium struct {
	Shade   string  `json:"shade"`
	Premium float64 `json:"premium"`
}

// Rules holds the tenant's layered rate adjustments. All fields are
// optional: zero limits fall back to the defaults above, zero adjustments
// contribute nothing.
type Rules struct {
	LowGSMLimit       float64 `json:"low_gsm_limit"`
	HighGSMLimit      float64 `json:"high_gsm_limit"`
	LowGSMAdjustment  float64 `json:"low_gsm_adjustment"`
	HighGSMAdjustment float64 `json:"high_gsm_adjustment"`
	MarketAdjustment  float64 `json:"market_adjustment"` // flat addend, may be negative
}

// Snapshot is a point-in-time view of a tenant's pricing data. The
// calculator only ever reads it; fetching and caching happen elsewhere.
type Snapshot struct {
	BFPrices      []BFPriceEntry `json:"bf_prices"`
	ShadePremiums []ShadePremium `json:"shade_premiums"`
	Rules         *Rules         `json:"rules"` // nil = defaults everywhere
}

// PaperSpec identifies the paper a rate is being quoted for.
type PaperSpec struct {
	BF    float64 `json:"bf"`
	GSM   float64 `json:"gsm"`
	Shade string  `json:"shade"`
}

// Breakdown is the stepwise result of a rate calculation. Notes always
// contains exactly five entries, in the order base, GSM, shade, market,
// final, so the quote UI can show the audit trail verbatim.
type Breakdown struct {
	BFBasePrice      float64  `json:"bf_base_price"`
	GSMAdjustment    float64  `json:"gsm_adjustment"`
	ShadePremium     float64  `json:"shade_premium"`
	MarketAdjustment float64  `json:"market_adjustment"`
	FinalRate        float64  `json:"final_rate"`
	Notes            []string `json:"notes"`
}
