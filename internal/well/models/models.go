// Package models defines the well identity aggregate and the fallback
// defaulting contract applied when a previously-unseen well is created.
package models

import (
	"strings"
	"time"
)

// UnknownSentinel marks well attributes no upstream source has supplied yet.
// Enrichment workflows may later replace sentinels with real values; this
// service only ever writes them.
const UnknownSentinel = "UNKNOWN"

// WellIdentity is the persistent identity of a physical well, keyed by the
// regulator-assigned natural key (API number). Exactly one row exists per
// natural key. Rows are created lazily on first filing and never deleted.
type WellIdentity struct {
	NaturalKey   string    `json:"natural_key"`
	StateCode    string    `json:"state_code"`
	County       string    `json:"county"`
	OperatorName string    `json:"operator_name"`
	LeaseName    string    `json:"lease_name"`
	WellNumber   string    `json:"well_number"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FallbackAttributes carries the descriptive fields used only when resolve
// has to create a new identity. The defaulting rule is the whole contract:
// every field left blank becomes UnknownSentinel, the state code included.
type FallbackAttributes struct {
	StateCode    string
	County       string
	OperatorName string
	LeaseName    string
	WellNumber   string
}

// NormalizeNaturalKey canonicalizes a natural key for storage and lookup.
// Surrounding whitespace is stripped and the key is upper-cased so lookups
// are case-insensitive.
func NormalizeNaturalKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// NewWellIdentity builds the placeholder identity for a previously-unseen
// natural key. The caller passes an already-normalized, non-empty key.
func NewWellIdentity(naturalKey string, fallback FallbackAttributes, now time.Time) *WellIdentity {
	return &WellIdentity{
		NaturalKey:   naturalKey,
		StateCode:    orUnknown(fallback.StateCode),
		County:       orUnknown(fallback.County),
		OperatorName: orUnknown(fallback.OperatorName),
		LeaseName:    orUnknown(fallback.LeaseName),
		WellNumber:   orUnknown(fallback.WellNumber),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return UnknownSentinel
	}
	return v
}
