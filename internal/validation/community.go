package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// CommunityCodeLength is the length of a community join code.
const CommunityCodeLength = 6

// CommunityCodeAlphabet lists the characters used in join codes.
const CommunityCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	communityCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)
	zipCodeRegex       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 \-]{4,14}[A-Za-z0-9]$`)
)

// ValidateCommunityName checks the community display name.
func ValidateCommunityName(name string) error {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 3 {
		return fmt.Errorf("community name must be at least 3 characters")
	}
	if n > 120 {
		return fmt.Errorf("community name must not exceed 120 characters")
	}
	return nil
}

// ValidateZipCode requires a postal code of at least 6 characters.
func ValidateZipCode(zip string) error {
	if !zipCodeRegex.MatchString(strings.TrimSpace(zip)) {
		return fmt.Errorf("please enter a valid ZIP code")
	}
	return nil
}

// NormalizeCommunityCode trims and upper-cases a join code so lookups are case-insensitive.
func NormalizeCommunityCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCommunityCode checks a normalized join code.
func ValidateCommunityCode(code string) error {
	if !communityCodeRegex.MatchString(code) {
		return fmt.Errorf("community code must be %d letters or digits", CommunityCodeLength)
	}
	return nil
}
