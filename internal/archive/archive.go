// Package archive copies recorded filings into cold object storage for
// long-term retention. The store of record stays Postgres; archival is best
// effort and callers treat failures as log-and-continue.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	filingmodels "wellfile/internal/filing/models"
)

// Store persists one archived document under a key. Implementations must
// treat an existing key as success so re-archiving a filing is idempotent.
type Store interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) error
}

// Service writes filing records into the archive store.
type Service struct {
	store  Store
	prefix string
	logger *slog.Logger
}

// New creates the archive service. prefix namespaces all object keys and may
// be empty.
func New(store Store, prefix string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// Archive writes the full filing record, metadata and payload, as one JSON
// document keyed by well and filing ID.
func (s *Service) Archive(ctx context.Context, record *filingmodels.FilingRecord) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode filing %s for archive: %w", record.ID, err)
	}
	key := s.Key(record)
	if err := s.store.Put(ctx, key, doc, "application/json"); err != nil {
		return fmt.Errorf("archive filing %s: %w", record.ID, err)
	}
	s.logger.DebugContext(ctx, "filing archived", "filing_id", record.ID, "key", key)
	return nil
}

// Key returns the object key for a record: [prefix/]<natural-key>/<filing-id>.json.
// Grouping by natural key keeps one well's filings adjacent under listing.
func (s *Service) Key(record *filingmodels.FilingRecord) string {
	key := record.WellNaturalKey + "/" + record.ID.String() + ".json"
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}
