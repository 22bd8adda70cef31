// Package generator defines the wire contract between wellfile and the W-3
// form generator service. Both sides depend on this module so the shapes
// cannot drift.
package generator

import "encoding/json"

// GenerateRequest is the body of POST /generate. Exchange carries the PNA
// exchange payload exactly as the client submitted it.
type GenerateRequest struct {
	Exchange json.RawMessage `json:"exchange"`
}

// GenerateResponse is the generator's verdict. Form is the completed W-3
// document when Success is true. The hints identify the subject well so the
// caller can persist without parsing the form.
type GenerateResponse struct {
	Success        bool            `json:"success"`
	Form           json.RawMessage `json:"form,omitempty"`
	NaturalKeyHint string          `json:"natural_key_hint,omitempty"`
	WellNameHint   string          `json:"well_name_hint,omitempty"`
	Reason         string          `json:"reason,omitempty"`
}
