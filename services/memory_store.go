package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"panellicense/models"
)

// MemoryLicenseStore keeps licenses in a map guarded by a mutex.
type MemoryLicenseStore struct {
	mu       sync.Mutex
	licenses map[string]*models.License
}

// NewMemoryLicenseStore creates an empty in-process store.
func NewMemoryLicenseStore() *MemoryLicenseStore {
	return &MemoryLicenseStore{licenses: make(map[string]*models.License)}
}

func (s *MemoryLicenseStore) Create(_ context.Context, l *models.License) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.licenses[l.LicenseKey]; exists {
		return &LicenseError{Kind: KindDuplicateKey, Field: "license_key"}
	}
	s.licenses[l.LicenseKey] = cloneLicense(l)
	return nil
}

func (s *MemoryLicenseStore) FindByKey(_ context.Context, licenseKey string) (*models.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[licenseKey]
	if !ok {
		return nil, &LicenseError{Kind: KindLicenseNotFound}
	}
	return cloneLicense(l), nil
}

func (s *MemoryLicenseStore) ConditionalActivate(_ context.Context, licenseKey, domain, hardwareID string, now time.Time) (*models.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[licenseKey]
	if !ok {
		return nil, &LicenseError{Kind: KindLicenseNotFound}
	}
	if l.ActivatedAt != nil {
		return nil, &LicenseError{Kind: KindAlreadyActivated}
	}

	if domain != "" {
		l.Domain = &domain
	}
	if hardwareID != "" {
		l.HardwareID = &hardwareID
	} else {
		l.HardwareID = nil
	}
	activatedAt := now
	l.ActivatedAt = &activatedAt
	l.Status = models.LicenseStatusActive
	l.UpdatedAt = now
	return cloneLicense(l), nil
}

func (s *MemoryLicenseStore) UpdateStatus(_ context.Context, licenseKey string, status models.LicenseStatus, now time.Time) (*models.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.licenses[licenseKey]
	if !ok {
		return nil, &LicenseError{Kind: KindLicenseNotFound}
	}
	l.Status = status
	l.UpdatedAt = now
	return cloneLicense(l), nil
}

func (s *MemoryLicenseStore) ListByUser(_ context.Context, userID string) ([]*models.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.License, 0)
	for _, l := range s.licenses {
		if l.UserID != nil && *l.UserID == userID {
			out = append(out, cloneLicense(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryLicenseStore) CountByState(_ context.Context, now time.Time) (models.LicenseStateCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts models.LicenseStateCounts
	for _, l := range s.licenses {
		counts.Add(l, now)
	}
	return counts, nil
}

// MemoryActivityLog keeps activity in memory.
type MemoryActivityLog struct {
	mu      sync.Mutex
	entries []models.LicenseActivity
}

func NewMemoryActivityLog() *MemoryActivityLog {
	return &MemoryActivityLog{}
}

func (m *MemoryActivityLog) Record(_ context.Context, activity models.LicenseActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, activity)
	return nil
}

func (m *MemoryActivityLog) ListByLicense(_ context.Context, licenseID string) ([]models.LicenseActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.LicenseActivity, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].LicenseID == licenseID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}
