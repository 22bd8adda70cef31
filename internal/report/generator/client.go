// Package generator calls the upstream W-3 form generator over HTTP. The
// client wraps every call in a circuit breaker so a dead generator fails
// fast instead of holding report requests open until timeout.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contract "wellfile/contracts/generator"
	"wellfile/internal/report"
	"wellfile/internal/report/metrics"
	"wellfile/pkg/platform/circuit"
)

// ErrCircuitOpen is returned without contacting the generator while the
// breaker is open and cooling down.
var ErrCircuitOpen = errors.New("form generator circuit open")

const defaultTimeout = 15 * time.Second

// Client is an HTTP client for the form generator service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *circuit.Breaker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics attaches report metrics to the client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithBreaker replaces the default circuit breaker, mainly so tests can
// tune thresholds and cooldowns.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// NewClient creates a generator client for baseURL. A zero timeout falls
// back to 15s.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		breaker:    circuit.New("form-generator"),
		logger:     logger,
		tracer:     otel.Tracer("wellfile/report/generator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate submits the exchange payload and returns the generator's verdict.
// A rejected exchange (Success false) is a valid response, not an error.
func (c *Client) Generate(ctx context.Context, exchange json.RawMessage) (*report.GenerationResult, error) {
	if !c.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "generator.Generate")
	defer span.End()

	start := time.Now()
	defer c.metrics.ObserveGeneratorCall(start)

	body, err := json.Marshal(contract.GenerateRequest{Exchange: exchange})
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generator unreachable")
		return nil, fmt.Errorf("call form generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.recordFailure(ctx)
		err := fmt.Errorf("form generator returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generator error status")
		return nil, err
	}

	var out contract.GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.recordFailure(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generator response undecodable")
		return nil, fmt.Errorf("decode generate response: %w", err)
	}

	c.recordSuccess(ctx)
	span.SetAttributes(attribute.Bool("generator.success", out.Success))

	return &report.GenerationResult{
		Success:        out.Success,
		Form:           out.Form,
		NaturalKeyHint: out.NaturalKeyHint,
		WellNameHint:   out.WellNameHint,
		Reason:         out.Reason,
	}, nil
}

func (c *Client) recordFailure(ctx context.Context) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.ErrorContext(ctx, "form generator circuit opened",
			slog.String("breaker", c.breaker.Name()))
		c.metrics.IncrementCircuitOpened()
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	_, change := c.breaker.RecordSuccess()
	if change.Closed {
		c.logger.InfoContext(ctx, "form generator circuit closed",
			slog.String("breaker", c.breaker.Name()))
	}
}
