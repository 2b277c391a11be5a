package health

import (
	"log/slog"
	"testing"
	"time"
)

func TestRecordSuccessAdvancesClock(t *testing.T) {
	rec := NewRecord()
	before := time.Now().Unix()
	rec.RecordSuccess(12345, true)

	e := rec.entry(time.Now().Unix())
	if e.Status != StatusSuccess {
		t.Errorf("status = %q, want %q", e.Status, StatusSuccess)
	}
	if e.DataTimestamp == nil || *e.DataTimestamp != 12345 {
		t.Errorf("dataTimestamp = %v, want 12345", e.DataTimestamp)
	}
	if e.LastSuccessTimestamp < before {
		t.Errorf("lastSuccessTimestamp = %d, want >= %d", e.LastSuccessTimestamp, before)
	}
}

func TestRecordSuccessSeedOnly(t *testing.T) {
	rec := NewRecord()
	rec.RecordSuccess(12345, false)

	e := rec.entry(time.Now().Unix())
	if e.Status != StatusSuccess {
		t.Errorf("status = %q, want %q", e.Status, StatusSuccess)
	}
	if e.LastSuccessTimestamp != 0 {
		t.Errorf("lastSuccessTimestamp = %d, want 0 (seed must not advance the clock)", e.LastSuccessTimestamp)
	}
	if e.DataTimestamp == nil || *e.DataTimestamp != 12345 {
		t.Errorf("dataTimestamp = %v, want 12345", e.DataTimestamp)
	}
}

func TestRecordErrorKeepsDataTimestamp(t *testing.T) {
	rec := NewRecord()
	rec.RecordSuccess(777, true)
	rec.RecordError()

	e := rec.entry(time.Now().Unix())
	if e.Status != StatusError {
		t.Errorf("status = %q, want %q", e.Status, StatusError)
	}
	if e.DataTimestamp == nil || *e.DataTimestamp != 777 {
		t.Errorf("dataTimestamp = %v, want 777 after error", e.DataTimestamp)
	}
	if e.LastErrorTimestamp == 0 {
		t.Error("lastErrorTimestamp not set by RecordError")
	}
}

func TestNewRecordStartsUnhealthy(t *testing.T) {
	e := NewRecord().entry(100)
	if e.Status != StatusError {
		t.Errorf("status = %q, want %q", e.Status, StatusError)
	}
	if e.LastSuccessTimestamp != 0 || e.LastErrorTimestamp != 0 {
		t.Errorf("timestamps = %d/%d, want 0/0", e.LastSuccessTimestamp, e.LastErrorTimestamp)
	}
	if e.DataTimestamp != nil {
		t.Errorf("dataTimestamp = %v, want absent", e.DataTimestamp)
	}
}

func TestEntrySecondsSince(t *testing.T) {
	rec := NewRecord()
	rec.RecordSuccess(50, true)

	now := time.Now().Unix() + 30
	e := rec.entry(now)
	if got, want := e.SecondsSinceLastSuccess, now-e.LastSuccessTimestamp; got != want {
		t.Errorf("secondsSinceLastSuccess = %d, want %d", got, want)
	}
	if got, want := e.SecondsSinceLastError, now-e.LastErrorTimestamp; got != want {
		t.Errorf("secondsSinceLastError = %d, want %d", got, want)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got, want := FormatTimestamp(0), "1970-01-01 00:00:00 UTC"; got != want {
		t.Errorf("FormatTimestamp(0) = %q, want %q", got, want)
	}
	if got, want := FormatTimestamp(1672531200), "2023-01-01 00:00:00 UTC"; got != want {
		t.Errorf("FormatTimestamp(1672531200) = %q, want %q", got, want)
	}
}

type fakeWorker struct {
	name string
	rec  *Record
}

func (w *fakeWorker) Name() string    { return w.name }
func (w *fakeWorker) Health() *Record { return w.rec }

type fakeGroup struct {
	name string
	recs map[string]*Record
}

func (g *fakeGroup) Name() string { return g.name }

func (g *fakeGroup) HealthByGroup() map[string]*Record { return g.recs }

func TestRegistryPublish(t *testing.T) {
	reg := NewRegistry(slog.Default())

	w1 := &fakeWorker{name: "TotalSupply", rec: NewRecord()}
	w1.rec.RecordSuccess(100, true)
	w2 := &fakeWorker{name: "BobStats", rec: NewRecord()}
	grp := &fakeGroup{name: "BobVaults", recs: map[string]*Record{
		"polygon":  NewRecord(),
		"optimism": NewRecord(),
	}}

	reg.Append(w1)
	reg.Append(w2)
	reg.AppendGrouped(grp)

	doc := reg.Publish()
	if doc.CurrentDatetime == "" {
		t.Error("currentDatetime empty")
	}
	if len(doc.Modules) != 3 {
		t.Fatalf("modules = %d, want 3", len(doc.Modules))
	}

	e1, ok := doc.Modules["TotalSupply"].(Entry)
	if !ok {
		t.Fatalf("TotalSupply module has type %T, want Entry", doc.Modules["TotalSupply"])
	}
	if e1.Status != StatusSuccess {
		t.Errorf("TotalSupply status = %q, want %q", e1.Status, StatusSuccess)
	}

	group, ok := doc.Modules["BobVaults"].(map[string]Entry)
	if !ok {
		t.Fatalf("BobVaults module has type %T, want map[string]Entry", doc.Modules["BobVaults"])
	}
	if len(group) != 2 {
		t.Errorf("BobVaults group size = %d, want 2", len(group))
	}
	for chain, e := range group {
		if e.Status != StatusError {
			t.Errorf("chain %s status = %q, want %q", chain, e.Status, StatusError)
		}
	}
}
