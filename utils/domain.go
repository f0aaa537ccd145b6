package utils

import "strings"

// NormalizeDomain lower-cases a host name and drops surrounding space and the trailing root dot.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimSuffix(d, ".")
}

// NormalizeHardwareID trims a hardware fingerprint. Fingerprints are compared exactly otherwise.
func NormalizeHardwareID(id string) string {
	return strings.TrimSpace(id)
}
