package entitlement

// Plan holds the default feature flags and quota limits a plan grants.
type Plan struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Features    map[string]bool  `json:"features"`
	Quotas      map[string]int64 `json:"quotas"`
}

// FallbackPlanID is used when a subscription references a plan the catalog
// does not know. Falling back to trial limits fails closed.
const FallbackPlanID = "trial"

// PredefinedPlans is the hard-coded plan catalog. Admin overrides patch on
// top of these per user; they are never mutated at runtime.
var PredefinedPlans = map[string]Plan{
	"trial": {
		ID:          "plan_trial",
		Name:        "Trial",
		Description: "14-day evaluation for new box manufacturers",
		Features: map[string]bool{
			FeaturePDFExport:       true,
			FeatureEmailDelivery:   false,
			FeatureAPIAccess:       false,
			FeatureAdvancedReports: false,
			FeatureTeamManagement:  false,
			FeaturePrioritySupport: false,
		},
		Quotas: map[string]int64{
			QuotaQuotes:         25,
			QuotaEmailProviders: 1,
			QuotaPartyProfiles:  10,
			QuotaTeamMembers:    1,
			QuotaAPICalls:       0,
			QuotaStorageMB:      100,
		},
	},
	"starter": {
		ID:          "plan_starter",
		Name:        "Starter",
		Description: "For single-unit box plants",
		Features: map[string]bool{
			FeaturePDFExport:       true,
			FeatureEmailDelivery:   true,
			FeatureAPIAccess:       false,
			FeatureAdvancedReports: false,
			FeatureTeamManagement:  false,
			FeaturePrioritySupport: false,
		},
		Quotas: map[string]int64{
			QuotaQuotes:         200,
			QuotaEmailProviders: 1,
			QuotaPartyProfiles:  100,
			QuotaTeamMembers:    2,
			QuotaAPICalls:       0,
			QuotaStorageMB:      1024,
		},
	},
	"professional": {
		ID:          "plan_professional",
		Name:        "Professional",
		Description: "For growing converters with sales teams",
		Features: map[string]bool{
			FeaturePDFExport:       true,
			FeatureEmailDelivery:   true,
			FeatureAPIAccess:       true,
			FeatureAdvancedReports: true,
			FeatureTeamManagement:  true,
			FeaturePrioritySupport: false,
		},
		Quotas: map[string]int64{
			QuotaQuotes:         2000,
			QuotaEmailProviders: 3,
			QuotaPartyProfiles:  1000,
			QuotaTeamMembers:    10,
			QuotaAPICalls:       50000,
			QuotaStorageMB:      10240,
		},
	},
	"enterprise": {
		ID:          "plan_enterprise",
		Name:        "Enterprise",
		Description: "Multi-plant operations with custom terms",
		Features: map[string]bool{
			FeaturePDFExport:       true,
			FeatureEmailDelivery:   true,
			FeatureAPIAccess:       true,
			FeatureAdvancedReports: true,
			FeatureTeamManagement:  true,
			FeaturePrioritySupport: true,
		},
		Quotas: map[string]int64{
			QuotaQuotes:         20000,
			QuotaEmailProviders: 10,
			QuotaPartyProfiles:  10000,
			QuotaTeamMembers:    100,
			QuotaAPICalls:       1000000,
			QuotaStorageMB:      102400,
		},
	},
}

// GetPlanByID retrieves a predefined plan by ID.
func GetPlanByID(planID string) (Plan, bool) {
	plan, exists := PredefinedPlans[planID]
	return plan, exists
}

// KnownFeatures lists every feature flag a decision must resolve.
var KnownFeatures = []string{
	FeatureAPIAccess,
	FeaturePDFExport,
	FeatureEmailDelivery,
	FeatureAdvancedReports,
	FeatureTeamManagement,
	FeaturePrioritySupport,
}

// KnownQuotas lists every quota dimension a decision must resolve.
var KnownQuotas = []string{
	QuotaQuotes,
	QuotaEmailProviders,
	QuotaPartyProfiles,
	QuotaTeamMembers,
	QuotaAPICalls,
	QuotaStorageMB,
}
