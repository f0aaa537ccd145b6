package models

import "time"

// LicenseActivity audit row for a mutating license operation
type LicenseActivity struct {
	ID        int64     `json:"id"`
	LicenseID string    `json:"license_id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// License activity actions
const (
	LicenseActionGenerated  = "generated"
	LicenseActionActivated  = "activated"
	LicenseActionSuspended  = "suspended"
	LicenseActionReinstated = "reinstated"
)
