package bobvault

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrValidation marks a payload that violates the vault snapshot schema. The
// wrapping error names the offending field.
var ErrValidation = errors.New("invalid bobvault payload")

// Full representable trade-timestamp range, used as the historical-trades
// window defaults.
const (
	MinTimestamp int64 = 0
	MaxTimestamp int64 = 1<<63 - 1
)

// Orderbook price levels, [price, qty] per level.
type Orderbook struct {
	Bids [][]decimal.Decimal `json:"bids"`
	Asks [][]decimal.Decimal `json:"asks"`
}

type Trade struct {
	TradeID        int64           `json:"trade_id"`
	Price          decimal.Decimal `json:"price"`
	BaseVolume     decimal.Decimal `json:"base_volume"`
	TargetVolume   decimal.Decimal `json:"target_volume"`
	TradeTimestamp decimal.Decimal `json:"trade_timestamp"`
	Type           string          `json:"type"`
}

// Trades carries one side or both; an absent side is omitted from the JSON
// rendering entirely.
type Trades struct {
	Buy  []Trade `json:"buy,omitempty"`
	Sell []Trade `json:"sell,omitempty"`
}

// Pair is the stored per-ticker market data.
type Pair struct {
	PoolID         string          `json:"pool_id"`
	BaseCurrency   string          `json:"base_currency"`
	TargetCurrency string          `json:"target_currency"`
	LastPrice      decimal.Decimal `json:"last_price"`
	BaseVolume     decimal.Decimal `json:"base_volume"`
	TargetVolume   decimal.Decimal `json:"target_volume"`
	Bid            decimal.Decimal `json:"bid"`
	Ask            decimal.Decimal `json:"ask"`
	High           decimal.Decimal `json:"high"`
	Low            decimal.Decimal `json:"low"`
	Timestamp      decimal.Decimal `json:"timestamp"`
	Orderbook      Orderbook       `json:"orderbook"`
	Trades         Trades          `json:"trades"`
}

// Snapshot is one chain's vault document. On the wire it is flat: exactly one
// non-pair key ("timestamp"), every other top-level key is a ticker
// identifier mapping to its pair data.
type Snapshot struct {
	Timestamp int64
	Pairs     map[string]Pair
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(s.Pairs)+1)
	flat["timestamp"] = s.Timestamp
	for ticker, pair := range s.Pairs {
		flat[ticker] = pair
	}
	return json.Marshal(flat)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type pairIn struct {
	PoolID         *string          `json:"pool_id"`
	BaseCurrency   *string          `json:"base_currency"`
	TargetCurrency *string          `json:"target_currency"`
	LastPrice      *decimal.Decimal `json:"last_price"`
	BaseVolume     *decimal.Decimal `json:"base_volume"`
	TargetVolume   *decimal.Decimal `json:"target_volume"`
	Bid            *decimal.Decimal `json:"bid"`
	Ask            *decimal.Decimal `json:"ask"`
	High           *decimal.Decimal `json:"high"`
	Low            *decimal.Decimal `json:"low"`
	Timestamp      *decimal.Decimal `json:"timestamp"`
	Orderbook      *Orderbook       `json:"orderbook"`
	Trades         *Trades          `json:"trades"`
}

// Parse validates a raw vault upload. The document must carry a "timestamp"
// integer; any other integer-valued key is rejected, and every remaining key
// must be a fully-populated pair object.
func Parse(data []byte) (Snapshot, error) {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tsRaw, ok := flat["timestamp"]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: missing field %q", ErrValidation, "timestamp")
	}
	var ts int64
	if err := json.Unmarshal(tsRaw, &ts); err != nil {
		return Snapshot{}, fmt.Errorf("%w: field %q is not an integer", ErrValidation, "timestamp")
	}

	snap := Snapshot{Timestamp: ts, Pairs: make(map[string]Pair, len(flat)-1)}
	for key, raw := range flat {
		if key == "timestamp" {
			continue
		}
		var stray int64
		if err := json.Unmarshal(raw, &stray); err == nil {
			return Snapshot{}, fmt.Errorf(
				"%w: found the %q field, only one int field %q is allowed", ErrValidation, key, "timestamp")
		}
		pair, err := parsePair(key, raw)
		if err != nil {
			return Snapshot{}, err
		}
		snap.Pairs[key] = pair
	}
	return snap, nil
}

func parsePair(ticker string, raw json.RawMessage) (Pair, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var in pairIn
	if err := dec.Decode(&in); err != nil {
		return Pair{}, fmt.Errorf("%w: pair %q: %v", ErrValidation, ticker, err)
	}

	missing := ""
	switch {
	case in.PoolID == nil:
		missing = "pool_id"
	case in.BaseCurrency == nil:
		missing = "base_currency"
	case in.TargetCurrency == nil:
		missing = "target_currency"
	case in.LastPrice == nil:
		missing = "last_price"
	case in.BaseVolume == nil:
		missing = "base_volume"
	case in.TargetVolume == nil:
		missing = "target_volume"
	case in.Bid == nil:
		missing = "bid"
	case in.Ask == nil:
		missing = "ask"
	case in.High == nil:
		missing = "high"
	case in.Low == nil:
		missing = "low"
	case in.Timestamp == nil:
		missing = "timestamp"
	case in.Orderbook == nil:
		missing = "orderbook"
	case in.Trades == nil:
		missing = "trades"
	}
	if missing != "" {
		return Pair{}, fmt.Errorf("%w: pair %q: missing field %q", ErrValidation, ticker, missing)
	}

	return Pair{
		PoolID:         *in.PoolID,
		BaseCurrency:   *in.BaseCurrency,
		TargetCurrency: *in.TargetCurrency,
		LastPrice:      *in.LastPrice,
		BaseVolume:     *in.BaseVolume,
		TargetVolume:   *in.TargetVolume,
		Bid:            *in.Bid,
		Ask:            *in.Ask,
		High:           *in.High,
		Low:            *in.Low,
		Timestamp:      *in.Timestamp,
		Orderbook:      *in.Orderbook,
		Trades:         *in.Trades,
	}, nil
}

// TickerIDs lists the pair identifiers in lexical order.
func (s Snapshot) TickerIDs() []string {
	ids := make([]string, 0, len(s.Pairs))
	for id := range s.Pairs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PairOut is one element of the pairs listing.
type PairOut struct {
	TickerID string `json:"ticker_id"`
	Base     string `json:"base"`
	Target   string `json:"target"`
	PoolID   string `json:"pool_id"`
}

// TickerOut is one element of the tickers listing.
type TickerOut struct {
	TickerID       string          `json:"ticker_id"`
	PoolID         string          `json:"pool_id"`
	BaseCurrency   string          `json:"base_currency"`
	TargetCurrency string          `json:"target_currency"`
	LastPrice      decimal.Decimal `json:"last_price"`
	BaseVolume     decimal.Decimal `json:"base_volume"`
	TargetVolume   decimal.Decimal `json:"target_volume"`
	Bid            decimal.Decimal `json:"bid"`
	Ask            decimal.Decimal `json:"ask"`
	High           decimal.Decimal `json:"high"`
	Low            decimal.Decimal `json:"low"`
}

// OrderbookOut renders as an empty object for an unknown chain or ticker.
type OrderbookOut struct {
	TickerID  string              `json:"ticker_id,omitempty"`
	Timestamp *decimal.Decimal    `json:"timestamp,omitempty"`
	Bids      [][]decimal.Decimal `json:"bids,omitempty"`
	Asks      [][]decimal.Decimal `json:"asks,omitempty"`
}
