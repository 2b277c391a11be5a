package health

import (
	"log/slog"
	"sync"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const datetimeLayout = "2006-01-02 15:04:05 UTC"

// Record tracks the last successful and last failed data refresh of one
// worker. It is owned by that worker and mutated only through
// RecordSuccess/RecordError.
type Record struct {
	mu sync.Mutex

	status               string
	lastSuccessTimestamp int64
	lastErrorTimestamp   int64
	dataTimestamp        *int64
}

func NewRecord() *Record {
	return &Record{status: StatusError}
}

// RecordSuccess marks the worker healthy and remembers the timestamp the data
// itself carries. advanceClock controls whether this counts as a fresh success
// event; seeding from an existing snapshot at startup passes false.
func (r *Record) RecordSuccess(dataTS int64, advanceClock bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusSuccess
	ts := dataTS
	r.dataTimestamp = &ts
	if advanceClock {
		r.lastSuccessTimestamp = time.Now().Unix()
	}
}

// RecordError marks the worker unhealthy. The data timestamp is left alone so
// operators can still see how old the last good data is.
func (r *Record) RecordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusError
	r.lastErrorTimestamp = time.Now().Unix()
}

// Entry is the outward-facing rendering of a Record at one point in time.
type Entry struct {
	Status                  string `json:"status"`
	LastSuccessTimestamp    int64  `json:"lastSuccessTimestamp"`
	LastErrorTimestamp      int64  `json:"lastErrorTimestamp"`
	DataTimestamp           *int64 `json:"dataTimestamp,omitempty"`
	LastSuccessDatetime     string `json:"lastSuccessDatetime"`
	SecondsSinceLastSuccess int64  `json:"secondsSinceLastSuccess"`
	LastErrorDatetime       string `json:"lastErrorDatetime"`
	SecondsSinceLastError   int64  `json:"secondsSinceLastError"`
}

func (r *Record) entry(now int64) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := Entry{
		Status:                  r.status,
		LastSuccessTimestamp:    r.lastSuccessTimestamp,
		LastErrorTimestamp:      r.lastErrorTimestamp,
		LastSuccessDatetime:     FormatTimestamp(r.lastSuccessTimestamp),
		SecondsSinceLastSuccess: now - r.lastSuccessTimestamp,
		LastErrorDatetime:       FormatTimestamp(r.lastErrorTimestamp),
		SecondsSinceLastError:   now - r.lastErrorTimestamp,
	}
	if r.dataTimestamp != nil {
		ts := *r.dataTimestamp
		e.DataTimestamp = &ts
	}
	return e
}

// FormatTimestamp renders a unix timestamp as a UTC datetime string.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(datetimeLayout)
}

// Worker is any component that can report a health record.
type Worker interface {
	Name() string
	Health() *Record
}

// GroupedWorker reports one record per sub-stream (e.g. one per chain) under a
// single module name.
type GroupedWorker interface {
	Name() string
	HealthByGroup() map[string]*Record
}

// Document is the aggregated health report returned by Registry.Publish.
type Document struct {
	CurrentDatetime string         `json:"currentDatetime"`
	Modules         map[string]any `json:"modules"`
}

// Registry is the process-wide collection of health-capable workers. Workers
// register once at construction; entries are never removed.
type Registry struct {
	mu      sync.Mutex
	workers []Worker
	grouped []GroupedWorker
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

func (g *Registry) Append(w Worker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger.Info("registering worker for healthdata", "worker", w.Name())
	g.workers = append(g.workers, w)
}

func (g *Registry) AppendGrouped(w GroupedWorker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.logger.Info("registering grouped worker for healthdata", "worker", w.Name())
	g.grouped = append(g.grouped, w)
}

// Publish renders every registered worker's record against a single snapshot
// of the current time.
func (g *Registry) Publish() Document {
	now := time.Now().Unix()

	g.mu.Lock()
	workers := make([]Worker, len(g.workers))
	copy(workers, g.workers)
	grouped := make([]GroupedWorker, len(g.grouped))
	copy(grouped, g.grouped)
	g.mu.Unlock()

	doc := Document{
		CurrentDatetime: FormatTimestamp(now),
		Modules:         make(map[string]any, len(workers)+len(grouped)),
	}
	for _, w := range workers {
		doc.Modules[w.Name()] = w.Health().entry(now)
	}
	for _, w := range grouped {
		group := make(map[string]Entry)
		for name, rec := range w.HealthByGroup() {
			group[name] = rec.entry(now)
		}
		doc.Modules[w.Name()] = group
	}
	return doc
}
