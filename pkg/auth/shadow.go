package auth

import "strings"

// ShadowSuffix turns a bare username into an email-shaped login identifier.
// Addresses under this domain are not real mailboxes.
const ShadowSuffix = "@genesoft.internal"

// ToShadowEmail maps a username to its login identifier. Input that already
// contains "@" is treated as a real address and only trimmed.
func ToShadowEmail(input string) string {
	if strings.Contains(input, "@") {
		return strings.TrimSpace(input)
	}
	return strings.ToLower(strings.TrimSpace(input)) + ShadowSuffix
}

// FromShadowEmail recovers the username from a shadow address. Other
// addresses are returned unchanged.
func FromShadowEmail(email string) string {
	if !strings.HasSuffix(email, ShadowSuffix) {
		return email
	}
	return strings.TrimSuffix(email, ShadowSuffix)
}

func IsShadowEmail(email string) bool {
	return strings.HasSuffix(email, ShadowSuffix)
}
