package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validation constraint constants.
const (
	MinLat          = -90.0
	MaxLat          = 90.0
	MinLon          = -180.0
	MaxLon          = 180.0
	StateCodeLength = 2
)

// NormalizeStateCode uppercases a state or area code and checks that it is
// exactly StateCodeLength characters long. "ca" and "CA" both yield "CA".
func NormalizeStateCode(state string) (string, error) {
	if n := utf8.RuneCountInString(state); n != StateCodeLength {
		return "", NewAppError(
			ErrCodeValidationInvalidState,
			fmt.Sprintf("state must be exactly %d characters, got %d", StateCodeLength, n),
			nil,
		)
	}
	return strings.ToUpper(state), nil
}

// ValidateCoordinates checks latitude and longitude against their valid ranges.
func ValidateCoordinates(lat, lon float64) error {
	if lat < MinLat || lat > MaxLat {
		return NewAppError(
			ErrCodeValidationInvalidLat,
			fmt.Sprintf("latitude %g outside valid range [%g, %g]", lat, MinLat, MaxLat),
			nil,
		)
	}
	if lon < MinLon || lon > MaxLon {
		return NewAppError(
			ErrCodeValidationInvalidLon,
			fmt.Sprintf("longitude %g outside valid range [%g, %g]", lon, MinLon, MaxLon),
			nil,
		)
	}
	return nil
}

// SSRFBlockedCIDRs defines the IP ranges the outbound transport refuses to dial.
var SSRFBlockedCIDRs = []string{
	"127.0.0.0/8",    // Localhost
	"10.0.0.0/8",     // Private Class A
	"172.16.0.0/12",  // Private Class B
	"192.168.0.0/16", // Private Class C
	"169.254.0.0/16", // Link-local (cloud metadata)
	"0.0.0.0/8",      // Current network
	"224.0.0.0/4",    // Multicast
	"240.0.0.0/4",    // Reserved
	"100.64.0.0/10",  // Shared Address Space (CGN)
	"198.18.0.0/15",  // Benchmark testing
	"fc00::/7",       // IPv6 private
	"fe80::/10",      // IPv6 link-local
	"::1/128",        // IPv6 localhost
}
