package bobstats

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const validPayload = `{
	"timestamp": 1700000000,
	"current": {
		"timestamp": 1699999000,
		"totalSupply": "1000000.5",
		"collaterisedCirculatedSupply": "900000",
		"volumeUSD": "12345.67",
		"holders": 10
	},
	"previous": {
		"timestamp": 1699900000,
		"totalSupply": "950000",
		"collaterisedCirculatedSupply": "850000",
		"volumeUSD": "11000",
		"holders": 9
	}
}`

func TestParseValid(t *testing.T) {
	stats, err := Parse([]byte(validPayload))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if stats.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d, want 1700000000", stats.Timestamp)
	}
	if stats.Current.Holders != 10 || stats.Previous.Holders != 9 {
		t.Errorf("holders = %d/%d, want 10/9", stats.Current.Holders, stats.Previous.Holders)
	}
	if !stats.Current.TotalSupply.Equal(decimal.RequireFromString("1000000.5")) {
		t.Errorf("totalSupply = %s, want 1000000.5", stats.Current.TotalSupply)
	}
	if stats.Current.Gain != nil {
		t.Error("gain should be absent when not uploaded")
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantField string
	}{
		{
			name:      "missing timestamp",
			payload:   `{"current":{},"previous":{}}`,
			wantField: "timestamp",
		},
		{
			name:      "missing current",
			payload:   `{"timestamp":1,"previous":{}}`,
			wantField: "current",
		},
		{
			name: "missing period field",
			payload: `{"timestamp":1,
				"current":{"timestamp":1,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1"},
				"previous":{"timestamp":1,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1}}`,
			wantField: "current.holders",
		},
		{
			name: "unknown key",
			payload: `{"timestamp":1,"extra":true,
				"current":{"timestamp":1,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1},
				"previous":{"timestamp":1,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1}}`,
			wantField: "extra",
		},
		{
			name: "duplicate gain symbol",
			payload: `{"timestamp":1,
				"current":{"timestamp":1,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1,
					"gain":{"fees":[{"symbol":"USDC","amount":"1"},{"symbol":"USDC","amount":"2"}]}},
				"previous":{"timestamp":1,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1}}`,
			wantField: "USDC",
		},
		{
			name:      "not json",
			payload:   `not json`,
			wantField: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.payload))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Parse error = %v, want ErrValidation", err)
			}
			if tt.wantField != "" && !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("error %q does not name field %q", err, tt.wantField)
			}
		})
	}
}

func amounts(pairs ...string) []TokenAmount {
	out := make([]TokenAmount, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, TokenAmount{
			Symbol: pairs[i],
			Amount: decimal.RequireFromString(pairs[i+1]),
		})
	}
	return out
}

func TestMergeOverlappingSymbolsAdd(t *testing.T) {
	g := GainStats{Fees: amounts("USDC", "10", "WETH", "1.5")}
	g.Merge(GainStats{Fees: amounts("USDC", "2.5", "DAI", "7")})

	if len(g.Fees) != 3 {
		t.Fatalf("fees = %d entries, want 3", len(g.Fees))
	}
	want := map[string]string{"USDC": "12.5", "WETH": "1.5", "DAI": "7"}
	for _, ta := range g.Fees {
		if !ta.Amount.Equal(decimal.RequireFromString(want[ta.Symbol])) {
			t.Errorf("%s = %s, want %s", ta.Symbol, ta.Amount, want[ta.Symbol])
		}
	}
	// First-seen symbols keep their order, new ones append.
	if g.Fees[0].Symbol != "USDC" || g.Fees[1].Symbol != "WETH" || g.Fees[2].Symbol != "DAI" {
		t.Errorf("order = %s/%s/%s, want USDC/WETH/DAI", g.Fees[0].Symbol, g.Fees[1].Symbol, g.Fees[2].Symbol)
	}
}

func TestMergeDisjointCommutativeInEffect(t *testing.T) {
	a := GainStats{Fees: amounts("USDC", "10")}
	b := GainStats{Fees: amounts("DAI", "5")}

	ab := GainStats{Fees: amounts("USDC", "10")}
	ab.Merge(b)
	ba := GainStats{Fees: amounts("DAI", "5")}
	ba.Merge(a)

	total := func(g GainStats) map[string]string {
		out := make(map[string]string)
		for _, ta := range g.Fees {
			out[ta.Symbol] = ta.Amount.String()
		}
		return out
	}
	ta, tb := total(ab), total(ba)
	if len(ta) != 2 || len(tb) != 2 {
		t.Fatalf("sizes = %d/%d, want 2/2", len(ta), len(tb))
	}
	for sym, v := range ta {
		if tb[sym] != v {
			t.Errorf("%s: %s vs %s, want equal regardless of merge order", sym, v, tb[sym])
		}
	}
}

func TestMergeInterestIndependent(t *testing.T) {
	g := GainStats{Fees: amounts("USDC", "1")}
	g.Merge(GainStats{Interest: amounts("USDC", "3")})

	if len(g.Fees) != 1 || !g.Fees[0].Amount.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fees affected by interest merge: %+v", g.Fees)
	}
	if len(g.Interest) != 1 || !g.Interest[0].Amount.Equal(decimal.NewFromInt(3)) {
		t.Errorf("interest = %+v, want USDC 3", g.Interest)
	}
}

func TestMergeEmptySourceIsNoop(t *testing.T) {
	g := GainStats{Fees: amounts("USDC", "10"), Interest: amounts("DAI", "2")}
	g.Merge(GainStats{})

	if len(g.Fees) != 1 || len(g.Interest) != 1 {
		t.Errorf("merge of empty source changed sizes: %d/%d", len(g.Fees), len(g.Interest))
	}
}
