package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	filingmetrics "wellfile/internal/filing/metrics"
	"wellfile/internal/filing/models"
	wellmodels "wellfile/internal/well/models"
	id "wellfile/pkg/domain"
	dErrors "wellfile/pkg/domain-errors"
)

// Source supplies filings of one kind for the aggregate listing. The primary
// filing store is always source zero; adjacent workflows register additional
// sources for the filing types they own.
type Source interface {
	Name() string
	ListFilings(ctx context.Context, naturalKey string) ([]*models.FilingRecord, error)
}

// PrimarySource adapts the filing store into an aggregator source.
func PrimarySource(store Store) Source {
	return storeSource{store: store}
}

type storeSource struct {
	store Store
}

func (s storeSource) Name() string { return "filing-store" }

func (s storeSource) ListFilings(ctx context.Context, naturalKey string) ([]*models.FilingRecord, error) {
	records, err := s.store.ListByWell(ctx, naturalKey)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return records, nil
}

// AggregatorOption configures optional aggregator dependencies.
type AggregatorOption func(*Aggregator)

// WithSource registers an additional filing source.
func WithSource(source Source) AggregatorOption {
	return func(a *Aggregator) { a.sources = append(a.sources, source) }
}

// WithAggregatorLogger sets the structured logger.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger }
}

// WithAggregatorMetrics enables Prometheus instrumentation.
func WithAggregatorMetrics(m *filingmetrics.Metrics) AggregatorOption {
	return func(a *Aggregator) { a.metrics = m }
}

// Aggregator produces the creation-ordered union of every filing tracked for
// a well across all registered sources.
type Aggregator struct {
	sources []Source
	logger  *slog.Logger
	metrics *filingmetrics.Metrics
}

// NewAggregator creates an aggregator with primary as source zero.
func NewAggregator(primary Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{sources: []Source{primary}}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// ListFilings returns every filing for naturalKey across all sources,
// ordered by creation time, oldest first. A well with no filings yields an
// empty list. Any source failure fails the whole listing: a partial answer
// would misrepresent the regulatory record.
func (a *Aggregator) ListFilings(ctx context.Context, naturalKey string) ([]*models.FilingRecord, error) {
	start := time.Now()

	key := wellmodels.NormalizeNaturalKey(naturalKey)
	if key == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "well natural key is required")
	}

	results := make([][]*models.FilingRecord, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, source := range a.sources {
		g.Go(func() error {
			records, err := source.ListFilings(gctx, key)
			if err != nil {
				a.logger.WarnContext(ctx, "filing source failed",
					"source", source.Name(),
					"natural_key", key,
					"error", err,
				)
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, records := range results {
		total += len(records)
	}
	merged := make([]*models.FilingRecord, 0, total)
	seen := make(map[id.FilingID]struct{}, total)
	for _, records := range results {
		for _, record := range records {
			if _, dup := seen[record.ID]; dup {
				continue
			}
			seen[record.ID] = struct{}{}
			merged = append(merged, record)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})

	a.metrics.ObserveList(start)
	return merged, nil
}
