package entitlement

import (
	"testing"
	"time"
)

func TestResolveFeature_SourceOrder(t *testing.T) {
	now := testNow
	expired := now.Add(-time.Minute)

	sub := Subscription{Status: StatusActive, PlanID: "professional"}

	tests := []struct {
		name           string
		feature        string
		overrides      []Override
		expectedValue  bool
		expectedSource Source
	}{
		{
			name:           "Live override wins over plan",
			feature:        FeatureAPIAccess,
			overrides:      []Override{{Key: FeatureAPIAccess, Kind: OverrideFeature, Enabled: false, IsActive: true}},
			expectedValue:  false,
			expectedSource: SourceOverride,
		},
		{
			name:           "Expired override falls through to plan",
			feature:        FeatureAPIAccess,
			overrides:      []Override{{Key: FeatureAPIAccess, Kind: OverrideFeature, Enabled: false, IsActive: true, ExpiresAt: &expired}},
			expectedValue:  true,
			expectedSource: SourcePlan,
		},
		{
			name:           "No override resolves from plan",
			feature:        FeaturePDFExport,
			expectedValue:  true,
			expectedSource: SourcePlan,
		},
		{
			name:           "Unknown feature falls back to false",
			feature:        "someUnknownFlag",
			expectedValue:  false,
			expectedSource: SourceFallback,
		},
		{
			name:           "Quota override does not answer for a feature",
			feature:        "someUnknownFlag",
			overrides:      []Override{{Key: "someUnknownFlag", Kind: OverrideQuota, Limit: 10, IsActive: true}},
			expectedValue:  false,
			expectedSource: SourceFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, source := resolveFeature(tt.feature, sub, tt.overrides, now)
			if value != tt.expectedValue {
				t.Errorf("Value: got %v, want %v", value, tt.expectedValue)
			}
			if source != tt.expectedSource {
				t.Errorf("Source: got %s, want %s", source, tt.expectedSource)
			}
		})
	}
}

func TestResolveQuotaLimit_SourceOrder(t *testing.T) {
	now := testNow
	sub := Subscription{Status: StatusActive, PlanID: "starter"}

	tests := []struct {
		name           string
		quota          string
		overrides      []Override
		expectedLimit  int64
		expectedSource Source
	}{
		{
			name:           "Live override patches the limit",
			quota:          QuotaQuotes,
			overrides:      []Override{{Key: QuotaQuotes, Kind: OverrideQuota, Limit: 1000, IsActive: true}},
			expectedLimit:  1000,
			expectedSource: SourceOverride,
		},
		{
			name:           "Plan default without override",
			quota:          QuotaQuotes,
			expectedLimit:  200,
			expectedSource: SourcePlan,
		},
		{
			name:           "Unknown dimension falls back to zero",
			quota:          "widgets",
			expectedLimit:  0,
			expectedSource: SourceFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, source := resolveQuotaLimit(tt.quota, sub, tt.overrides, now)
			if limit != tt.expectedLimit {
				t.Errorf("Limit: got %d, want %d", limit, tt.expectedLimit)
			}
			if source != tt.expectedSource {
				t.Errorf("Source: got %s, want %s", source, tt.expectedSource)
			}
		})
	}
}

func TestOverrideLive(t *testing.T) {
	now := testNow
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		override Override
		expected bool
	}{
		{"Active without expiry", Override{IsActive: true}, true},
		{"Active with future expiry", Override{IsActive: true, ExpiresAt: &future}, true},
		{"Active but expired", Override{IsActive: true, ExpiresAt: &past}, false},
		{"Inactive", Override{IsActive: false}, false},
		{"Inactive with future expiry", Override{IsActive: false, ExpiresAt: &future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.override.live(now); got != tt.expected {
				t.Errorf("live(): got %v, want %v", got, tt.expected)
			}
		})
	}
}
