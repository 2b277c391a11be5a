package bobstats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zkBob/bob-circulating-supply/internal/blob"
	"github.com/zkBob/bob-circulating-supply/internal/health"
	"github.com/zkBob/bob-circulating-supply/internal/metrics"
)

// Service persists and serves the stats snapshot stream.
type Service struct {
	store  blob.Store
	key    string
	logger *slog.Logger
	record *health.Record
}

func NewService(store blob.Store, key string, logger *slog.Logger) *Service {
	s := &Service{
		store:  store,
		key:    key,
		logger: logger,
		record: health.NewRecord(),
	}

	s.logger.Info("checking for available bob statistics")
	if data, err := s.load(context.Background()); err == nil {
		s.record.RecordSuccess(data.Timestamp, false)
	} else {
		s.logger.Warn("considering BobStats not healthy since no data found", "error", err)
	}
	return s
}

func (s *Service) Name() string           { return "BobStats" }
func (s *Service) Health() *health.Record { return s.record }

// Store validates the raw upload and atomically replaces the persisted
// snapshot. A payload that fails the schema check is rejected whole.
func (s *Service) Store(ctx context.Context, payload []byte) error {
	data, err := Parse(payload)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(s.key, "invalid").Inc()
		return err
	}
	s.logger.Info("new bobstat data received", "timestamp", data.Timestamp)

	serialized, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("serialize stats snapshot: %w", err)
	}
	if err := s.store.Put(ctx, s.key, serialized); err != nil {
		metrics.UploadsTotal.WithLabelValues(s.key, "error").Inc()
		s.record.RecordError()
		return err
	}

	metrics.UploadsTotal.WithLabelValues(s.key, "success").Inc()
	metrics.SnapshotTimestamp.WithLabelValues(s.key).Set(float64(data.Timestamp))
	s.record.RecordSuccess(data.Timestamp, true)
	return nil
}

func (s *Service) load(ctx context.Context) (Stats, error) {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		return Stats{}, err
	}
	data, err := Parse(raw)
	if err != nil {
		return Stats{}, fmt.Errorf("stored snapshot %s: %w", s.key, err)
	}
	return data, nil
}

// Load returns the stored snapshot verbatim, or a zero-valued document
// stamped with the read-time clock when none exists yet.
func (s *Service) Load(ctx context.Context) Stats {
	data, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("serving empty bobstats response", "error", err)
		empty := PeriodData{}
		return Stats{
			Timestamp: time.Now().Unix(),
			Current:   empty,
			Previous:  empty,
		}
	}
	return data
}

// Yield merges the gain records of the current and previous periods into one
// additive document. Missing gain data contributes nothing.
func (s *Service) Yield(ctx context.Context) GainStats {
	data, err := s.load(ctx)
	if err != nil {
		s.logger.Warn("serving empty yield response", "error", err)
		return GainStats{}
	}

	var merged GainStats
	if data.Current.Gain != nil {
		merged.Merge(*data.Current.Gain)
	}
	if data.Previous.Gain != nil {
		merged.Merge(*data.Previous.Gain)
	}
	return merged
}
