package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panellicense/models"
)

func newRecord(id, key string, now time.Time) *models.License {
	expires := now.AddDate(1, 0, 0)
	domain := "panel.example.com"
	return &models.License{
		ID:           id,
		LicenseKey:   key,
		Tier:         models.TierBasic,
		Domain:       &domain,
		MaxServers:   models.Limited(1),
		MaxDomains:   models.Limited(10),
		MaxStorageGB: models.Limited(5),
		Status:       models.LicenseStatusActive,
		ExpiresAt:    &expires,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestStore_CreateDuplicateKey(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		store, _ := newStore(t)
		ctx := context.Background()
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, store.Create(ctx, newRecord("lic-1", "AAAAAA-AAAAAA-AAAAAA-AAAAAA", now)))

		err := store.Create(ctx, newRecord("lic-2", "AAAAAA-AAAAAA-AAAAAA-AAAAAA", now))
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestStore_ConditionalActivateKeepsDomainWhenBlank(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		store, _ := newStore(t)
		ctx := context.Background()
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.Create(ctx, newRecord("lic-1", "BBBBBB-BBBBBB-BBBBBB-BBBBBB", now)))

		lic, err := store.ConditionalActivate(ctx, "BBBBBB-BBBBBB-BBBBBB-BBBBBB", "", "", now.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, lic.Domain)
		assert.Equal(t, "panel.example.com", *lic.Domain)
		assert.Nil(t, lic.HardwareID)
		require.NotNil(t, lic.ActivatedAt)
		assert.True(t, lic.ActivatedAt.Equal(now.Add(time.Hour)))

		_, err = store.ConditionalActivate(ctx, "BBBBBB-BBBBBB-BBBBBB-BBBBBB", "other.com", "hw", now)
		assert.True(t, IsKind(err, KindAlreadyActivated))

		_, err = store.ConditionalActivate(ctx, "CCCCCC-CCCCCC-CCCCCC-CCCCCC", "", "", now)
		assert.True(t, IsKind(err, KindLicenseNotFound))
	})
}

func TestStore_UpdateStatusUnknownKey(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore storeFactory) {
		store, _ := newStore(t)
		_, err := store.UpdateStatus(context.Background(), "DDDDDD-DDDDDD-DDDDDD-DDDDDD", models.LicenseStatusSuspended, time.Now())
		assert.True(t, IsKind(err, KindLicenseNotFound))
	})
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, isDuplicateKeyError(nil))
	assert.False(t, isDuplicateKeyError(errors.New("connection refused")))
	assert.True(t, isDuplicateKeyError(fmt.Errorf("insert: %w", errors.New("UNIQUE constraint failed: licenses.license_key"))))
}
