// Package email normalizes and validates operator contact addresses.
package email

import (
	"net/mail"
	"strings"
	"unicode"

	dErrors "wellfile/pkg/domain-errors"
)

// Normalize canonicalizes an address for storage and uniqueness checks.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Validate checks that the address is a parseable single mailbox.
func Validate(address string) error {
	if address == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "contact email is required")
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return dErrors.New(dErrors.CodeInvalidInput, "contact must be a valid email address")
	}
	return nil
}

// DeriveDisplayName builds a readable fallback name from the address local
// part when the caller supplied none: "j.ramirez@lonestar.example" becomes
// "J Ramirez".
func DeriveDisplayName(address string) string {
	localPart := address
	if at := strings.IndexByte(address, '@'); at >= 0 {
		localPart = address[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Operator"
	}

	for i, part := range parts {
		parts[i] = capitalize(part)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
