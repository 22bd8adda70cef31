package domain

import (
	"github.com/google/uuid"

	dErrors "wellfile/pkg/domain-errors"
)

// Typed IDs prevent cross-entity mixups at compile time: a FilingID can
// never be passed where an OperatorID is expected. Construct from external
// input via the Parse functions, which enforce the shared invariant that
// IDs are valid, non-nil UUIDs.

// FilingID identifies a persisted filing record.
type FilingID uuid.UUID

// OperatorID identifies a registered filing operator.
type OperatorID uuid.UUID

// EventID identifies an audit event across the outbox and its consumers.
type EventID uuid.UUID

// NewFilingID returns a fresh random FilingID.
func NewFilingID() FilingID { return FilingID(uuid.New()) }

// NewOperatorID returns a fresh random OperatorID.
func NewOperatorID() OperatorID { return OperatorID(uuid.New()) }

// NewEventID returns a fresh random EventID.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id FilingID) String() string   { return uuid.UUID(id).String() }
func (id OperatorID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero UUID.
func (id FilingID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id OperatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText implementations keep the canonical UUID form on the wire so
// IDs embed cleanly in JSON models.
func (id FilingID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id OperatorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *FilingID) UnmarshalText(text []byte) error {
	parsed, err := ParseFilingID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OperatorID) UnmarshalText(text []byte) error {
	parsed, err := ParseOperatorID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EventID) UnmarshalText(text []byte) error {
	parsed, err := ParseEventID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseFilingID constructs a FilingID from external input.
func ParseFilingID(s string) (FilingID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return FilingID{}, err
	}
	return FilingID(u), nil
}

// ParseOperatorID constructs an OperatorID from external input.
func ParseOperatorID(s string) (OperatorID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OperatorID{}, err
	}
	return OperatorID(u), nil
}

// ParseEventID constructs an EventID from external input.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// parseUUID is the single validation path for every ID type: rejects empty
// strings, malformed UUIDs, and the nil UUID with CodeInvalidInput.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
