// Package report holds the server side of W-3 report generation: the result
// model shared by the generator client, the persistence guard, and the HTTP
// handler.
package report

import "encoding/json"

// GenerationResult is the form generator's verdict plus, after successful
// persistence, the durable filing reference. Form is opaque here: it is
// returned to the caller and stored verbatim, never parsed.
type GenerationResult struct {
	Success        bool            `json:"success"`
	Form           json.RawMessage `json:"form,omitempty"`
	NaturalKeyHint string          `json:"natural_key_hint,omitempty"`
	WellNameHint   string          `json:"well_name_hint,omitempty"`
	Reason         string          `json:"reason,omitempty"`

	// Set by the persistence guard after a successful store write; absent
	// whenever persistence was skipped or swallowed by the failure boundary.
	FilingID       string `json:"filing_id,omitempty"`
	WellNaturalKey string `json:"well_natural_key,omitempty"`
}
