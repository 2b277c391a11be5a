package bobvault

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zkBob/bob-circulating-supply/internal/blob"
	"github.com/zkBob/bob-circulating-supply/internal/health"
	"github.com/zkBob/bob-circulating-supply/internal/metrics"
)

// Vault persists and serves one chain's vault snapshot stream.
type Vault struct {
	chain  string
	store  blob.Store
	key    string
	logger *slog.Logger
	record *health.Record
}

func NewVault(store blob.Store, chain, key string, logger *slog.Logger) *Vault {
	v := &Vault{
		chain:  chain,
		store:  store,
		key:    key,
		logger: logger,
		record: health.NewRecord(),
	}

	v.logger.Info("checking for available bobvault data", "chain", chain)
	if snap, err := v.load(context.Background()); err == nil {
		v.record.RecordSuccess(snap.Timestamp, false)
	} else {
		v.logger.Warn("considering vault not healthy since no data found",
			"chain", chain, "error", err)
	}
	return v
}

func (v *Vault) Health() *health.Record { return v.record }

// Store validates the raw upload and atomically replaces the persisted
// snapshot.
func (v *Vault) Store(ctx context.Context, payload []byte) error {
	snap, err := Parse(payload)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(v.key, "invalid").Inc()
		return err
	}

	if ids := snap.TickerIDs(); len(ids) > 0 {
		v.logger.Info("coingecko data received", "chain", v.chain,
			"timestamp", snap.Timestamp, "pairs", strings.Join(ids, "/"))
	} else {
		v.logger.Warn("no pairs found in uploaded data", "chain", v.chain,
			"timestamp", snap.Timestamp)
	}

	serialized, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serialize vault snapshot: %w", err)
	}
	if err := v.store.Put(ctx, v.key, serialized); err != nil {
		metrics.UploadsTotal.WithLabelValues(v.key, "error").Inc()
		v.record.RecordError()
		return err
	}

	metrics.UploadsTotal.WithLabelValues(v.key, "success").Inc()
	metrics.SnapshotTimestamp.WithLabelValues(v.key).Set(float64(snap.Timestamp))
	v.record.RecordSuccess(snap.Timestamp, true)
	return nil
}

func (v *Vault) load(ctx context.Context) (Snapshot, error) {
	raw, err := v.store.Get(ctx, v.key)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err := Parse(raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stored snapshot %s: %w", v.key, err)
	}
	return snap, nil
}

// Pairs lists the tickers present in the latest snapshot. Any load failure
// degrades to an empty listing.
func (v *Vault) Pairs(ctx context.Context) []PairOut {
	ret := []PairOut{}
	snap, err := v.load(ctx)
	if err != nil {
		return ret
	}

	for _, ticker := range snap.TickerIDs() {
		pair := snap.Pairs[ticker]
		ret = append(ret, PairOut{
			TickerID: ticker,
			Base:     pair.BaseCurrency,
			Target:   pair.TargetCurrency,
			PoolID:   pair.PoolID,
		})
	}
	return ret
}

// Tickers lists per-ticker market data from the latest snapshot.
func (v *Vault) Tickers(ctx context.Context) []TickerOut {
	ret := []TickerOut{}
	snap, err := v.load(ctx)
	if err != nil {
		return ret
	}

	for _, ticker := range snap.TickerIDs() {
		pair := snap.Pairs[ticker]
		ret = append(ret, TickerOut{
			TickerID:       ticker,
			PoolID:         pair.PoolID,
			BaseCurrency:   pair.BaseCurrency,
			TargetCurrency: pair.TargetCurrency,
			LastPrice:      pair.LastPrice,
			BaseVolume:     pair.BaseVolume,
			TargetVolume:   pair.TargetVolume,
			Bid:            pair.Bid,
			Ask:            pair.Ask,
			High:           pair.High,
			Low:            pair.Low,
		})
	}
	return ret
}

// Orderbook returns the book for one ticker, or an empty document for an
// unknown ticker.
func (v *Vault) Orderbook(ctx context.Context, tickerID string) OrderbookOut {
	snap, err := v.load(ctx)
	if err != nil {
		return OrderbookOut{}
	}

	pair, ok := snap.Pairs[tickerID]
	if !ok {
		return OrderbookOut{}
	}
	ts := pair.Timestamp
	return OrderbookOut{
		TickerID:  tickerID,
		Timestamp: &ts,
		Bids:      pair.Orderbook.Bids,
		Asks:      pair.Orderbook.Asks,
	}
}

// HistoricalTrades returns one side's trades filtered by the requested
// window.
//
// With the default full range, a non-zero limit takes the most recent trades
// as a tail slice. Any explicit bound instead scans from the oldest stored
// trade forward, collecting matches until the limit is reached. The two paths
// intentionally do not combine.
func (v *Vault) HistoricalTrades(ctx context.Context, tickerID, side string, limit int, startTime, endTime int64) Trades {
	v.logger.Info("historical trades requested", "chain", v.chain,
		"ticker", tickerID, "side", side)

	snap, err := v.load(ctx)
	if err != nil {
		return Trades{}
	}

	pair, ok := snap.Pairs[tickerID]
	if !ok {
		v.logger.Warn("ticker not found", "chain", v.chain, "ticker", tickerID)
		return Trades{}
	}

	var stored []Trade
	switch side {
	case "buy":
		stored = pair.Trades.Buy
	case "sell":
		stored = pair.Trades.Sell
	}
	if len(stored) == 0 {
		return Trades{}
	}
	if limit < 0 {
		limit = 0
	}

	defaultRange := startTime == MinTimestamp && endTime == MaxTimestamp

	var selected []Trade
	switch {
	case limit == 0 && defaultRange:
		selected = stored
	case limit != 0 && defaultRange:
		if limit > len(stored) {
			limit = len(stored)
		}
		selected = stored[len(stored)-limit:]
	default:
		lo := decimal.NewFromInt(startTime)
		hi := decimal.NewFromInt(endTime)
		for _, trade := range stored {
			if trade.TradeTimestamp.GreaterThanOrEqual(lo) && trade.TradeTimestamp.LessThanOrEqual(hi) {
				selected = append(selected, trade)
				if len(selected) == limit {
					break
				}
			}
		}
	}

	if side == "buy" {
		return Trades{Buy: selected}
	}
	return Trades{Sell: selected}
}
