package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panellicense/models"
)

func TestGenerateLicenseKey(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		key, err := GenerateLicenseKey()
		require.NoError(t, err)
		assert.Len(t, key, 27)
		assert.True(t, IsValidLicenseKeyFormat(key), "unexpected key format %q", key)

		_, dup := seen[key]
		assert.False(t, dup, "duplicate key %q", key)
		seen[key] = struct{}{}
	}
}

func TestIsValidLicenseKeyFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid", "A1B2C3-D4E5F6-000000-FFFFFF", true},
		{"lowercase", "a1b2c3-d4e5f6-000000-ffffff", false},
		{"short group", "A1B2C-D4E5F6-000000-FFFFFF", false},
		{"three groups", "A1B2C3-D4E5F6-000000", false},
		{"non hex", "G1B2C3-D4E5F6-000000-FFFFFF", false},
		{"legacy 4x4", "ABCD-EF01-2345-6789", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidLicenseKeyFormat(tt.key))
		})
	}
}

func TestNormalizeLicenseKey(t *testing.T) {
	assert.Equal(t, "A1B2C3-D4E5F6-000000-FFFFFF", NormalizeLicenseKey("  a1b2c3-d4e5f6-000000-ffffff\n"))
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("lic")
	assert.True(t, strings.HasPrefix(id, "lic-"))
	assert.NotEqual(t, id, GenerateID("lic"))
	assert.Len(t, GenerateID(""), 36)
}

func TestGenerateDeviceFingerprint(t *testing.T) {
	base := models.DeviceInfo{
		CPUID:         "BFEBFBFF000906EA",
		MotherboardSN: "MB-1234",
		MACAddress:    "00:1A:2B:3C:4D:5E",
		DiskSerial:    "WD-987",
		MachineID:     "machine-1",
		Hostname:      "web01",
	}

	fp := GenerateDeviceFingerprint(base)
	assert.Len(t, fp, 64)

	t.Run("stable across cosmetic differences", func(t *testing.T) {
		variant := base
		variant.MACAddress = "00-1a-2b-3c-4d-5e"
		variant.CPUID = " bfebfbff000906ea "
		variant.Hostname = "renamed-host"
		assert.Equal(t, fp, GenerateDeviceFingerprint(variant))
	})

	t.Run("changes with hardware", func(t *testing.T) {
		variant := base
		variant.DiskSerial = "WD-988"
		assert.NotEqual(t, fp, GenerateDeviceFingerprint(variant))
	})
}
