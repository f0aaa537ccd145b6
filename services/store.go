package services

import (
	"context"
	"time"

	"panellicense/models"
)

// LicenseStore persists license records. Implementations must make ConditionalActivate atomic:
// of any number of concurrent calls for one key, exactly one may succeed.
type LicenseStore interface {
	// Create inserts l. It fails with DuplicateKey when the license key is taken.
	Create(ctx context.Context, l *models.License) error
	// FindByKey returns LicenseNotFound when no record matches.
	FindByKey(ctx context.Context, licenseKey string) (*models.License, error)
	// ConditionalActivate binds the license only while activated_at is still null, otherwise it
	// reports AlreadyActivated. An empty domain keeps the stored one; an empty hardware id stays null.
	ConditionalActivate(ctx context.Context, licenseKey, domain, hardwareID string, now time.Time) (*models.License, error)
	// UpdateStatus changes the stored status, leaving binding and activation untouched.
	UpdateStatus(ctx context.Context, licenseKey string, status models.LicenseStatus, now time.Time) (*models.License, error)
	// ListByUser returns the licenses owned by userID, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.License, error)
}

// LicenseCounter reports how many licenses are in each derived state at now.
type LicenseCounter interface {
	CountByState(ctx context.Context, now time.Time) (models.LicenseStateCounts, error)
}

// ActivityLog appends lifecycle events of a license.
type ActivityLog interface {
	Record(ctx context.Context, activity models.LicenseActivity) error
	ListByLicense(ctx context.Context, licenseID string) ([]models.LicenseActivity, error)
}

type nopActivityLog struct{}

// NopActivityLog drops every event.
func NopActivityLog() ActivityLog { return nopActivityLog{} }

func (nopActivityLog) Record(context.Context, models.LicenseActivity) error { return nil }

func (nopActivityLog) ListByLicense(context.Context, string) ([]models.LicenseActivity, error) {
	return []models.LicenseActivity{}, nil
}

func cloneLicense(l *models.License) *models.License {
	if l == nil {
		return nil
	}
	c := *l
	c.UserID = cloneString(l.UserID)
	c.Domain = cloneString(l.Domain)
	c.HardwareID = cloneString(l.HardwareID)
	c.ActivatedAt = cloneTime(l.ActivatedAt)
	c.ExpiresAt = cloneTime(l.ExpiresAt)
	c.GracePeriodEnd = cloneTime(l.GracePeriodEnd)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
