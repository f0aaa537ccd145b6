package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panellicense/models"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		tier    string
		servers models.Limit
		domains models.Limit
		storage models.Limit
	}{
		{"basic", models.Limited(1), models.Limited(10), models.Limited(5)},
		{"professional", models.Limited(3), models.Limited(50), models.Limited(20)},
		{"enterprise", models.UnlimitedLimit(), models.UnlimitedLimit(), models.UnlimitedLimit()},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			tier, policy, err := PolicyFor(tt.tier)
			require.NoError(t, err)
			assert.Equal(t, models.Tier(tt.tier), tier)
			assert.Equal(t, tt.servers, policy.Entitlements.MaxServers)
			assert.Equal(t, tt.domains, policy.Entitlements.MaxDomains)
			assert.Equal(t, tt.storage, policy.Entitlements.MaxStorageGB)
			assert.Equal(t, 12, policy.ValidityMonths)
		})
	}
}

func TestPolicyFor_UnknownTier(t *testing.T) {
	for _, tier := range []string{"", "gold", "Basic "} {
		_, _, err := PolicyFor(tier)
		assert.True(t, IsKind(err, KindInvalidTier), "tier %q", tier)
	}
}

func TestPolicy_ExpiresAt(t *testing.T) {
	_, policy, err := PolicyFor("basic")
	require.NoError(t, err)

	issued := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC), policy.ExpiresAt(issued))
}
