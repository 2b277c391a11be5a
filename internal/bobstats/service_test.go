package bobstats

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zkBob/bob-circulating-supply/internal/blob"
	"github.com/zkBob/bob-circulating-supply/internal/health"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(blob.NewFileStore(t.TempDir()), "bobstat-data", slog.Default())
}

func TestStoreLoadRoundTrip(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if err := svc.Store(ctx, []byte(validPayload)); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	got := svc.Load(ctx)
	if got.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d, want the uploaded 1700000000 unchanged", got.Timestamp)
	}
	if got.Current.Holders != 10 || got.Previous.Holders != 9 {
		t.Errorf("holders = %d/%d, want 10/9", got.Current.Holders, got.Previous.Holders)
	}
	if !got.Current.VolumeUSD.Equal(decimal.RequireFromString("12345.67")) {
		t.Errorf("volumeUSD = %s, want 12345.67", got.Current.VolumeUSD)
	}
}

func TestStoreRejectsInvalidAtomically(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if err := svc.Store(ctx, []byte(validPayload)); err != nil {
		t.Fatalf("Store error: %v", err)
	}
	if err := svc.Store(ctx, []byte(`{"timestamp":"oops"}`)); err == nil {
		t.Fatal("expected validation error, got nil")
	}

	// The previous good snapshot must be untouched.
	if got := svc.Load(ctx); got.Timestamp != 1700000000 {
		t.Errorf("timestamp = %d, want previous snapshot preserved", got.Timestamp)
	}
}

func TestLoadDefaultsWhenEmpty(t *testing.T) {
	svc := newService(t)

	before := time.Now().Unix()
	got := svc.Load(context.Background())
	if got.Timestamp < before {
		t.Errorf("default timestamp = %d, want read-time clock >= %d", got.Timestamp, before)
	}
	if got.Current.Holders != 0 || !got.Current.TotalSupply.IsZero() {
		t.Errorf("default current = %+v, want zero values", got.Current)
	}

	// The default must serialize as a well-formed document.
	data, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal default: %v", err)
	}
	if _, err := Parse(data); err != nil {
		t.Errorf("default document does not satisfy the schema: %v", err)
	}
}

func TestYieldMergesBothPeriods(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	payload := `{
		"timestamp": 100,
		"current": {"timestamp":90,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1,
			"gain":{"fees":[{"symbol":"USDC","amount":"10"}],"interest":[{"symbol":"WETH","amount":"0.5"}]}},
		"previous": {"timestamp":80,"totalSupply":"1","collaterisedCirculatedSupply":"1","volumeUSD":"1","holders":1,
			"gain":{"fees":[{"symbol":"USDC","amount":"4"},{"symbol":"DAI","amount":"2"}]}}
	}`
	if err := svc.Store(ctx, []byte(payload)); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	gain := svc.Yield(ctx)
	fees := make(map[string]string)
	for _, ta := range gain.Fees {
		fees[ta.Symbol] = ta.Amount.String()
	}
	if fees["USDC"] != "14" || fees["DAI"] != "2" {
		t.Errorf("merged fees = %v, want USDC 14 and DAI 2", fees)
	}
	if len(gain.Interest) != 1 || gain.Interest[0].Amount.String() != "0.5" {
		t.Errorf("merged interest = %+v, want WETH 0.5", gain.Interest)
	}
}

func TestYieldEmptyWhenNoSnapshot(t *testing.T) {
	gain := newService(t).Yield(context.Background())
	if len(gain.Fees) != 0 || len(gain.Interest) != 0 {
		t.Errorf("yield without snapshot = %+v, want empty", gain)
	}
}

func TestHealthSeededFromExistingSnapshot(t *testing.T) {
	store := blob.NewFileStore(t.TempDir())
	ctx := context.Background()

	first := NewService(store, "bobstat-data", slog.Default())
	if err := first.Store(ctx, []byte(validPayload)); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	// A fresh service over the same store sees the data at construction.
	second := NewService(store, "bobstat-data", slog.Default())
	reg := health.NewRegistry(slog.Default())
	reg.Append(second)

	e := reg.Publish().Modules["BobStats"].(health.Entry)
	if e.Status != health.StatusSuccess {
		t.Errorf("status = %q, want %q", e.Status, health.StatusSuccess)
	}
	if e.DataTimestamp == nil || *e.DataTimestamp != 1700000000 {
		t.Errorf("dataTimestamp = %v, want 1700000000", e.DataTimestamp)
	}
	if e.LastSuccessTimestamp != 0 {
		t.Errorf("lastSuccessTimestamp = %d, want 0 (seeding is not a fresh success)", e.LastSuccessTimestamp)
	}
}
