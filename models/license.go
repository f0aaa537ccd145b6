package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Tier license tier
type Tier string

const (
	TierBasic        Tier = "basic"
	TierProfessional Tier = "professional"
	TierEnterprise   Tier = "enterprise"
)

// Tiers lists every recognized tier.
var Tiers = []Tier{TierBasic, TierProfessional, TierEnterprise}

// ParseTier returns the tier for s and whether it is recognized.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// LicenseStatus stored status. Expiry is derived at query time and is never stored.
type LicenseStatus string

const (
	LicenseStatusActive    LicenseStatus = "active"
	LicenseStatusSuspended LicenseStatus = "suspended"
	LicenseStatusExpired   LicenseStatus = "expired"
)

// Limit is an entitlement cap. Unlimited is a distinct variant rather than a large number.
type Limit struct {
	Value     int
	Unlimited bool
}

// Limited returns a finite cap of n.
func Limited(n int) Limit { return Limit{Value: n} }

// UnlimitedLimit returns the unbounded cap.
func UnlimitedLimit() Limit { return Limit{Unlimited: true} }

func (l Limit) String() string {
	if l.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(l.Value)
}

// MarshalJSON renders a number, or the string "unlimited".
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.Unlimited {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(l.Value)), nil
}

// UnmarshalJSON accepts a number or the string "unlimited".
func (l *Limit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unlimited" {
			return fmt.Errorf("invalid limit %q", s)
		}
		*l = UnlimitedLimit()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid limit: %w", err)
	}
	*l = Limited(n)
	return nil
}

// Entitlements numeric caps granted by a tier
type Entitlements struct {
	MaxServers   Limit `json:"max_servers"`
	MaxDomains   Limit `json:"max_domains"`
	MaxStorageGB Limit `json:"max_storage_gb"`
}

// License license record
type License struct {
	ID             string        `json:"id"`
	LicenseKey     string        `json:"license_key"`
	UserID         *string       `json:"user_id"`
	Tier           Tier          `json:"tier"`
	Domain         *string       `json:"domain"`
	HardwareID     *string       `json:"hardware_id"`
	MaxServers     Limit         `json:"max_servers"`
	MaxDomains     Limit         `json:"max_domains"`
	MaxStorageGB   Limit         `json:"max_storage_gb"`
	Status         LicenseStatus `json:"status"`
	ActivatedAt    *time.Time    `json:"activated_at"`
	ExpiresAt      *time.Time    `json:"expires_at"`
	GracePeriodEnd *time.Time    `json:"grace_period_end"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsActivated reports whether the license passed through activation.
func (l *License) IsActivated() bool {
	return l.ActivatedAt != nil
}

// IsExpired reports whether now is past expiry, ignoring any grace period.
func (l *License) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// InGracePeriod reports whether the license is expired but still inside its grace window.
func (l *License) InGracePeriod(now time.Time) bool {
	return l.IsExpired(now) && l.GracePeriodEnd != nil && !now.After(*l.GracePeriodEnd)
}

// EffectiveStatus derives the status at now: suspended wins, then expiry past grace.
func (l *License) EffectiveStatus(now time.Time) LicenseStatus {
	if l.Status == LicenseStatusSuspended {
		return LicenseStatusSuspended
	}
	if l.IsExpired(now) && !l.InGracePeriod(now) {
		return LicenseStatusExpired
	}
	return LicenseStatusActive
}

// Entitlements returns the frozen caps of the license.
func (l *License) Entitlements() Entitlements {
	return Entitlements{
		MaxServers:   l.MaxServers,
		MaxDomains:   l.MaxDomains,
		MaxStorageGB: l.MaxStorageGB,
	}
}

// ValidationResult answer of a successful validation. The key and the binding are never echoed.
type ValidationResult struct {
	Valid bool `json:"valid"`
	Tier  Tier `json:"tier"`
	Entitlements
	ExpiresAt      *time.Time    `json:"expires_at"`
	Status         LicenseStatus `json:"status"`
	GraceActive    bool          `json:"grace_active"`
	GracePeriodEnd *time.Time    `json:"grace_period_end,omitempty"`
	Activated      bool          `json:"activated"`
}

// GenerateLicenseRequest license generation request
type GenerateLicenseRequest struct {
	Tier            string  `json:"tier" validate:"required"`
	Domain          string  `json:"domain" validate:"required,max=253"`
	UserID          *string `json:"user_id" validate:"omitempty,max=100"`
	GracePeriodDays *int    `json:"grace_period_days" validate:"omitempty,min=0,max=365"`
}

// ActivateRequest license activation request
type ActivateRequest struct {
	LicenseKey string      `json:"license_key" validate:"required,max=64"`
	Domain     string      `json:"domain" validate:"omitempty,max=253"`
	HardwareID string      `json:"hardware_id" validate:"omitempty,max=255"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// ValidateRequest license validation request
type ValidateRequest struct {
	LicenseKey string      `json:"license_key" validate:"required,max=64"`
	Domain     string      `json:"domain" validate:"omitempty,max=253"`
	HardwareID string      `json:"hardware_id" validate:"omitempty,max=255"`
	DeviceInfo *DeviceInfo `json:"device_info,omitempty"`
}

// LicenseStateCounts number of licenses per derived state
type LicenseStateCounts struct {
	Unactivated int `json:"unactivated"`
	Active      int `json:"active"`
	Grace       int `json:"grace"`
	Expired     int `json:"expired"`
	Suspended   int `json:"suspended"`
}

// Add counts l under its derived state at now.
func (c *LicenseStateCounts) Add(l *License, now time.Time) {
	switch {
	case l.Status == LicenseStatusSuspended:
		c.Suspended++
	case l.EffectiveStatus(now) == LicenseStatusExpired:
		c.Expired++
	case l.InGracePeriod(now):
		c.Grace++
	case !l.IsActivated():
		c.Unactivated++
	default:
		c.Active++
	}
}
