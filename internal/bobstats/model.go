package bobstats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidation marks a payload that violates the stats schema. The wrapping
// error names the offending field.
var ErrValidation = errors.New("invalid bobstats payload")

// TokenAmount is one symbol's accumulated amount inside GainStats.
type TokenAmount struct {
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

// GainStats holds per-token fees and interest accumulated over a period.
// Symbols are unique within each list.
type GainStats struct {
	Fees     []TokenAmount `json:"fees"`
	Interest []TokenAmount `json:"interest,omitempty"`
}

// Merge adds amounts from src into g symbol by symbol; unseen symbols are
// appended in src order. Fees and interest merge independently.
func (g *GainStats) Merge(src GainStats) {
	g.Fees = mergeAmounts(g.Fees, src.Fees)
	g.Interest = mergeAmounts(g.Interest, src.Interest)
}

func mergeAmounts(dst, src []TokenAmount) []TokenAmount {
	for _, ta := range src {
		merged := false
		for i := range dst {
			if dst[i].Symbol == ta.Symbol {
				dst[i].Amount = dst[i].Amount.Add(ta.Amount)
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, ta)
		}
	}
	return dst
}

// PeriodData is one reporting period's statistics.
type PeriodData struct {
	Timestamp                    int64           `json:"timestamp"`
	TotalSupply                  decimal.Decimal `json:"totalSupply"`
	CollaterisedCirculatedSupply decimal.Decimal `json:"collaterisedCirculatedSupply"`
	VolumeUSD                    decimal.Decimal `json:"volumeUSD"`
	Holders                      int64           `json:"holders"`
	Gain                         *GainStats      `json:"gain,omitempty"`
}

// Stats is the full stats snapshot: the current period and the one before it.
type Stats struct {
	Timestamp int64      `json:"timestamp"`
	Current   PeriodData `json:"current"`
	Previous  PeriodData `json:"previous"`
}

// Shadow structs with pointer fields let the parser tell a missing required
// key from a zero value.

type statsIn struct {
	Timestamp *int64        `json:"timestamp"`
	Current   *periodDataIn `json:"current"`
	Previous  *periodDataIn `json:"previous"`
}

type periodDataIn struct {
	Timestamp                    *int64           `json:"timestamp"`
	TotalSupply                  *decimal.Decimal `json:"totalSupply"`
	CollaterisedCirculatedSupply *decimal.Decimal `json:"collaterisedCirculatedSupply"`
	VolumeUSD                    *decimal.Decimal `json:"volumeUSD"`
	Holders                      *int64           `json:"holders"`
	Gain                         *gainStatsIn     `json:"gain"`
}

type gainStatsIn struct {
	Fees     []tokenAmountIn `json:"fees"`
	Interest []tokenAmountIn `json:"interest"`
}

type tokenAmountIn struct {
	Symbol *string          `json:"symbol"`
	Amount *decimal.Decimal `json:"amount"`
}

// Parse validates a raw upload against the stats schema. Unknown keys and
// missing required keys are rejected deterministically.
func Parse(data []byte) (Stats, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var in statsIn
	if err := dec.Decode(&in); err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Timestamp == nil {
		return Stats{}, fmt.Errorf("%w: missing field %q", ErrValidation, "timestamp")
	}
	if in.Current == nil {
		return Stats{}, fmt.Errorf("%w: missing field %q", ErrValidation, "current")
	}
	if in.Previous == nil {
		return Stats{}, fmt.Errorf("%w: missing field %q", ErrValidation, "previous")
	}

	current, err := in.Current.materialize("current")
	if err != nil {
		return Stats{}, err
	}
	previous, err := in.Previous.materialize("previous")
	if err != nil {
		return Stats{}, err
	}
	return Stats{Timestamp: *in.Timestamp, Current: current, Previous: previous}, nil
}

func (p *periodDataIn) materialize(field string) (PeriodData, error) {
	missing := ""
	switch {
	case p.Timestamp == nil:
		missing = "timestamp"
	case p.TotalSupply == nil:
		missing = "totalSupply"
	case p.CollaterisedCirculatedSupply == nil:
		missing = "collaterisedCirculatedSupply"
	case p.VolumeUSD == nil:
		missing = "volumeUSD"
	case p.Holders == nil:
		missing = "holders"
	}
	if missing != "" {
		return PeriodData{}, fmt.Errorf("%w: missing field %q", ErrValidation, field+"."+missing)
	}

	out := PeriodData{
		Timestamp:                    *p.Timestamp,
		TotalSupply:                  *p.TotalSupply,
		CollaterisedCirculatedSupply: *p.CollaterisedCirculatedSupply,
		VolumeUSD:                    *p.VolumeUSD,
		Holders:                      *p.Holders,
	}
	if p.Gain != nil {
		gain, err := p.Gain.materialize(field + ".gain")
		if err != nil {
			return PeriodData{}, err
		}
		out.Gain = &gain
	}
	return out, nil
}

func (g *gainStatsIn) materialize(field string) (GainStats, error) {
	fees, err := materializeAmounts(g.Fees, field+".fees")
	if err != nil {
		return GainStats{}, err
	}
	interest, err := materializeAmounts(g.Interest, field+".interest")
	if err != nil {
		return GainStats{}, err
	}
	return GainStats{Fees: fees, Interest: interest}, nil
}

func materializeAmounts(in []tokenAmountIn, field string) ([]TokenAmount, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]TokenAmount, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, ta := range in {
		if ta.Symbol == nil {
			return nil, fmt.Errorf("%w: missing field %q", ErrValidation, field+".symbol")
		}
		if ta.Amount == nil {
			return nil, fmt.Errorf("%w: missing field %q", ErrValidation, field+".amount")
		}
		if seen[*ta.Symbol] {
			return nil, fmt.Errorf("%w: duplicate symbol %q in %s", ErrValidation, *ta.Symbol, field)
		}
		seen[*ta.Symbol] = true
		out = append(out, TokenAmount{Symbol: *ta.Symbol, Amount: *ta.Amount})
	}
	return out, nil
}
