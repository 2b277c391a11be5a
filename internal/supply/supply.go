package supply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zkBob/bob-circulating-supply/internal/chain"
	"github.com/zkBob/bob-circulating-supply/internal/health"
	"github.com/zkBob/bob-circulating-supply/internal/metrics"
)

// ErrDecimalsMismatch is returned when the configured RPC endpoints disagree
// on the token's decimals. Supply values from endpoints with different
// precision would be incommensurable, so such a cycle is aborted whole.
var ErrDecimalsMismatch = errors.New("endpoints disagree on token decimals")

// Aggregator sums the token's totalSupply across all configured endpoints.
// On any endpoint failure the previously published value is kept.
type Aggregator struct {
	endpoints []*chain.Endpoint
	interval  time.Duration
	logger    *slog.Logger
	record    *health.Record

	mu    sync.RWMutex
	value decimal.Decimal

	decimals       int
	decimalsCached bool
}

func New(endpoints []*chain.Endpoint, interval time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		endpoints: endpoints,
		interval:  interval,
		logger:    logger,
		record:    health.NewRecord(),
	}
}

func (a *Aggregator) Name() string           { return "TotalSupply" }
func (a *Aggregator) Health() *health.Record { return a.record }

// Value returns the aggregate from the last successful cycle, zero before the
// first success.
func (a *Aggregator) Value() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.value
}

// Refresh runs one polling cycle: validate decimals agreement, read every
// endpoint's totalSupply, and publish the sum only if every read succeeded.
func (a *Aggregator) Refresh(ctx context.Context) error {
	start := time.Now()
	err := a.refresh(ctx)
	metrics.PollDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PollTotal.WithLabelValues("error").Inc()
		a.record.RecordError()
		a.logger.Error("supply polling cycle failed", "error", err)
		return err
	}
	metrics.PollTotal.WithLabelValues("success").Inc()
	a.record.RecordSuccess(time.Now().Unix(), true)
	return nil
}

func (a *Aggregator) refresh(ctx context.Context) error {
	dec, err := a.referenceDecimals(ctx)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, ep := range a.endpoints {
		raw, err := ep.TotalSupply(ctx)
		if err != nil {
			return fmt.Errorf("totalSupply on %s: %w", ep.URL(), err)
		}
		local := decimal.NewFromBigInt(raw, -int32(dec))
		a.logger.Info("totalSupply read", "rpc", ep.URL(), "value", local.String())
		total = total.Add(local)
	}

	a.mu.Lock()
	a.value = total
	a.mu.Unlock()

	supplyFloat, _ := total.Float64()
	metrics.TotalSupplyValue.Set(supplyFloat)
	a.logger.Info("token total supply updated", "value", total.String(),
		"at", health.FormatTimestamp(time.Now().Unix()))
	return nil
}

// referenceDecimals queries decimals on every endpoint and requires them to
// agree exactly with the first endpoint's value. The validated result is
// cached so later cycles skip the queries.
func (a *Aggregator) referenceDecimals(ctx context.Context) (int, error) {
	if a.decimalsCached {
		return a.decimals, nil
	}

	ref := 0
	for i, ep := range a.endpoints {
		dec, err := ep.Decimals(ctx)
		if err != nil {
			return 0, fmt.Errorf("decimals on %s: %w", ep.URL(), err)
		}
		if i == 0 {
			ref = dec
			continue
		}
		if dec != ref {
			return 0, fmt.Errorf("%w: %s reports %d, %s reports %d",
				ErrDecimalsMismatch, a.endpoints[0].URL(), ref, ep.URL(), dec)
		}
	}

	a.decimals = ref
	a.decimalsCached = true
	return ref, nil
}

// Run executes an immediate first cycle and then polls on a fixed period.
// Ticks are scheduled against the loop's start time, so a slow cycle does not
// shift the grid.
func (a *Aggregator) Run(ctx context.Context) {
	_ = a.Refresh(ctx)

	next := time.Now().Add(a.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}
		_ = a.Refresh(ctx)
		for !next.After(time.Now()) {
			next = next.Add(a.interval)
		}
	}
}
