package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"panellicense/models"
)

const (
	licenseKeyGroups     = 4
	licenseKeyGroupBytes = 3 // 6 hex characters per group
)

var licenseKeyPattern = regexp.MustCompile(`^[0-9A-F]{6}-[0-9A-F]{6}-[0-9A-F]{6}-[0-9A-F]{6}$`)

// GenerateLicenseKey returns a key of the form XXXXXX-XXXXXX-XXXXXX-XXXXXX (96 random bits, upper hex).
func GenerateLicenseKey() (string, error) {
	raw := make([]byte, licenseKeyGroups*licenseKeyGroupBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	key := strings.ToUpper(hex.EncodeToString(raw))
	groupLen := licenseKeyGroupBytes * 2

	parts := make([]string, 0, licenseKeyGroups)
	for i := 0; i < licenseKeyGroups; i++ {
		parts = append(parts, key[i*groupLen:(i+1)*groupLen])
	}
	return strings.Join(parts, "-"), nil
}

// IsValidLicenseKeyFormat reports whether key matches the four-group hex format exactly.
func IsValidLicenseKeyFormat(key string) bool {
	return licenseKeyPattern.MatchString(key)
}

// NormalizeLicenseKey trims whitespace and upper-cases a caller supplied key.
func NormalizeLicenseKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// GenerateID returns a UUID, optionally prefixed ("lic-…").
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix != "" {
		return prefix + "-" + id
	}
	return id
}

// GenerateDeviceFingerprint reduces device details to a stable blake2b-256 hex digest.
// Fields are normalized so cosmetic differences (case, separators in MACs) do not change the result.
func GenerateDeviceFingerprint(info models.DeviceInfo) string {
	mac := strings.NewReplacer(":", "", "-", "", ".", "").Replace(info.MACAddress)
	data := strings.Join([]string{
		normalizeHardwarePart(info.CPUID),
		normalizeHardwarePart(info.MotherboardSN),
		normalizeHardwarePart(mac),
		normalizeHardwarePart(info.DiskSerial),
		normalizeHardwarePart(info.MachineID),
	}, "|")

	sum := blake2b.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func normalizeHardwarePart(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
