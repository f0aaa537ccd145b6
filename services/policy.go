package services

import (
	"fmt"
	"time"

	"panellicense/models"
	"panellicense/utils"
)

// Policy entitlements and validity granted by a tier.
type Policy struct {
	Entitlements   models.Entitlements
	ValidityMonths int
}

// DefaultValidityMonths applies to every tier today.
const DefaultValidityMonths = 12

var tierPolicies = map[models.Tier]Policy{
	models.TierBasic: {
		Entitlements: models.Entitlements{
			MaxServers:   models.Limited(1),
			MaxDomains:   models.Limited(10),
			MaxStorageGB: models.Limited(5),
		},
		ValidityMonths: DefaultValidityMonths,
	},
	models.TierProfessional: {
		Entitlements: models.Entitlements{
			MaxServers:   models.Limited(3),
			MaxDomains:   models.Limited(50),
			MaxStorageGB: models.Limited(20),
		},
		ValidityMonths: DefaultValidityMonths,
	},
	models.TierEnterprise: {
		Entitlements: models.Entitlements{
			MaxServers:   models.UnlimitedLimit(),
			MaxDomains:   models.UnlimitedLimit(),
			MaxStorageGB: models.UnlimitedLimit(),
		},
		ValidityMonths: DefaultValidityMonths,
	},
}

// PolicyFor returns the policy of tier, or InvalidTier.
func PolicyFor(tier string) (models.Tier, Policy, error) {
	t, ok := models.ParseTier(tier)
	if !ok {
		return "", Policy{}, newError(KindInvalidTier, "tier", fmt.Sprintf("unknown license tier %q", tier))
	}
	return t, tierPolicies[t], nil
}

// ExpiresAt computes the expiry of a license issued at issuedAt under p.
func (p Policy) ExpiresAt(issuedAt time.Time) time.Time {
	return utils.AddMonths(issuedAt, p.ValidityMonths)
}
