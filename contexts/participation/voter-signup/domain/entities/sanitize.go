package entities

import (
	"strings"
	"unicode"
)

// SanitizeCode normalizes an entered access code: lowercase with all
// whitespace removed. Codes are compared post-sanitization only.
func SanitizeCode(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeAccountNumber normalizes a self-reported identifier (account
// number, zip code): lowercase, alphanumerics and underscore only, leading
// zeros stripped so "0042" and "42" resolve to the same credential.
func SanitizeAccountNumber(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}

// CompositeAccountKey joins an account number with a zip code for
// elections that verify both.
func CompositeAccountKey(account, zip string) string {
	return account + "&" + zip
}

// SanitizePhoneNumber normalizes a North American phone number: digits
// only, with the leading country code 1 dropped.
func SanitizePhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		digits = digits[1:]
	}
	return digits
}
