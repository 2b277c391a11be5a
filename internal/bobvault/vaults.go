package bobvault

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zkBob/bob-circulating-supply/internal/blob"
	"github.com/zkBob/bob-circulating-supply/internal/health"
)

// Vaults holds one Vault per configured chain and reports their health as one
// grouped module.
type Vaults struct {
	logger *slog.Logger
	vaults map[string]*Vault
}

// NewVaults builds a vault per chain. keyTemplate must contain a "{chain}"
// placeholder that selects the stream key.
func NewVaults(store blob.Store, chains []string, keyTemplate string, logger *slog.Logger) *Vaults {
	vs := &Vaults{
		logger: logger,
		vaults: make(map[string]*Vault, len(chains)),
	}
	for _, chain := range chains {
		key := strings.ReplaceAll(keyTemplate, "{chain}", chain)
		vs.vaults[chain] = NewVault(store, chain, key, logger)
	}
	return vs
}

func (vs *Vaults) Name() string { return "BobVaults" }

func (vs *Vaults) HealthByGroup() map[string]*health.Record {
	out := make(map[string]*health.Record, len(vs.vaults))
	for chain, v := range vs.vaults {
		out[chain] = v.record
	}
	return out
}

// Has reports whether a chain is on the configured allow-list.
func (vs *Vaults) Has(chain string) bool {
	_, ok := vs.vaults[chain]
	return ok
}

func (vs *Vaults) Store(ctx context.Context, chain string, payload []byte) error {
	vs.logger.Info("received new coingecko data", "chain", chain)
	return vs.vaults[chain].Store(ctx, payload)
}

func (vs *Vaults) Pairs(ctx context.Context, chain string) []PairOut {
	return vs.vaults[chain].Pairs(ctx)
}

func (vs *Vaults) Tickers(ctx context.Context, chain string) []TickerOut {
	return vs.vaults[chain].Tickers(ctx)
}

func (vs *Vaults) Orderbook(ctx context.Context, chain, tickerID string) OrderbookOut {
	return vs.vaults[chain].Orderbook(ctx, tickerID)
}

func (vs *Vaults) HistoricalTrades(ctx context.Context, chain, tickerID, side string, limit int, startTime, endTime int64) Trades {
	return vs.vaults[chain].HistoricalTrades(ctx, tickerID, side, limit, startTime, endTime)
}
