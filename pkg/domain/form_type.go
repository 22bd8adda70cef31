package domain

import dErrors "wellfile/pkg/domain-errors"

// FormType identifies which regulatory form a filing record holds.
// Invariant: the value must be one of the supported form types.
//
// Usage: construct via ParseFormType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type FormType string

// Supported form types. W-3 is the plugging record this service generates;
// the other members exist so the filings aggregator can span records written
// by adjacent workflows against the same store.
const (
	FormTypeW3  FormType = "W-3"
	FormTypeW3A FormType = "W-3A"
	FormTypeW3X FormType = "W-3X"
)

// validFormTypes is the single source of truth for valid form types.
var validFormTypes = map[FormType]bool{
	FormTypeW3:  true,
	FormTypeW3A: true,
	FormTypeW3X: true,
}

// ParseFormType constructs a FormType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported;
// no other errors are expected.
func ParseFormType(s string) (FormType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "form type cannot be empty")
	}
	f := FormType(s)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported form type")
	}
	return f, nil
}

// IsValid checks if the form type is one of the supported enum values.
func (f FormType) IsValid() bool {
	return validFormTypes[f]
}

// String returns the string representation of the form type.
func (f FormType) String() string {
	return string(f)
}
