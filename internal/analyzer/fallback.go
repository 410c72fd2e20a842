package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"billclarity/internal/logger"
	"billclarity/internal/port"
)

// circuitState tracks rate-limit backoff for a single provider.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackAnalyzer tries providers in order, skipping those with open
// circuits. Attempts are strictly sequential so a single request never fans
// out into duplicate billable calls. It implements port.BillAnalyzer.
type FallbackAnalyzer struct {
	analyzers []port.BillAnalyzer
	circuits  []*circuitState
	names     []string
}

// NewFallbackAnalyzer creates a FallbackAnalyzer from an ordered list of
// providers and their names.
func NewFallbackAnalyzer(analyzers []port.BillAnalyzer, names []string) *FallbackAnalyzer {
	circuits := make([]*circuitState, len(analyzers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackAnalyzer{
		analyzers: analyzers,
		circuits:  circuits,
		names:     names,
	}
}

func (f *FallbackAnalyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	var out *port.AnalyzeOutput
	err := f.attempt(ctx, "analyze", func(ctx context.Context, a port.BillAnalyzer) error {
		var err error
		out, err = a.Analyze(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *FallbackAnalyzer) GenerateText(ctx context.Context, prompt string) (string, error) {
	var text string
	err := f.attempt(ctx, "generate_text", func(ctx context.Context, a port.BillAnalyzer) error {
		var err error
		text, err = a.GenerateText(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// attempt runs op against each provider in order until one succeeds. A 429
// opens that provider's circuit until the advertised reset time.
func (f *FallbackAnalyzer) attempt(ctx context.Context, opName string, op func(context.Context, port.BillAnalyzer) error) error {
	log := logger.GetLogger()
	now := time.Now()
	var lastErr error
	var earliestReset time.Time

	for i, a := range f.analyzers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Infow("skipping provider with open circuit",
				"op", opName, "provider", f.names[i], "reset_at", resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		err := op(ctx, a)
		if err == nil {
			return nil
		}

		log.Warnw("provider attempt failed", "op", opName, "provider", f.names[i], "error", err)
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			f.circuits[i].open(now.Add(rlErr.RetryAfter))
		}
	}

	if lastErr == nil {
		// Every provider was skipped due to an open circuit.
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return NewRateLimitError("all", fmt.Errorf("all providers rate limited"), int(retryAfter.Seconds()))
	}

	return fmt.Errorf("all providers failed: %w", lastErr)
}
