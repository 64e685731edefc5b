package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ali-shihab/marketreplay/internal/infrastructure"
	"github.com/ali-shihab/marketreplay/internal/model"
	"github.com/ali-shihab/marketreplay/internal/normalizer"
	"github.com/ali-shihab/marketreplay/internal/processor"
	"github.com/ali-shihab/marketreplay/internal/storage"

	"go.uber.org/zap"
)

// ScheduleLoader produces the replay schedule for a session, going through
// the cache when possible and building from source on a miss.
type ScheduleLoader struct {
	cache  *storage.ScheduleCache
	logger *zap.Logger
}

func NewScheduleLoader(cache *storage.ScheduleCache, logger *zap.Logger) *ScheduleLoader {
	return &ScheduleLoader{cache: cache, logger: logger}
}

// LoadSchedule returns the schedule for (symbol, date), reading the cached
// artifact when present. A corrupt artifact forces a rebuild from source
// rather than failing the run; only a failed rebuild is surfaced.
func (l *ScheduleLoader) LoadSchedule(symbol, date, sourcePath string, window model.SessionWindow) (*model.Schedule, error) {
	schedule, err := l.cache.Load(symbol, date)
	if err == nil {
		infrastructure.CacheLookups.WithLabelValues("hit").Inc()
		l.logger.Info("loaded schedule from cache",
			zap.String("symbol", symbol),
			zap.String("date", date),
			zap.Int("wakeups", schedule.Len()))
		return schedule, nil
	}

	if errors.Is(err, storage.ErrCacheMiss) {
		infrastructure.CacheLookups.WithLabelValues("miss").Inc()
	} else {
		// Corrupt or unreadable artifact: rebuild and overwrite.
		infrastructure.CacheLookups.WithLabelValues("error").Inc()
		l.logger.Warn("schedule cache artifact unusable, rebuilding", zap.Error(err))
	}

	schedule, err = l.build(symbol, date, sourcePath, window)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Store(symbol, date, schedule); err != nil {
		return nil, fmt.Errorf("failed to store rebuilt schedule: %w", err)
	}
	return schedule, nil
}

func (l *ScheduleLoader) build(symbol, date, sourcePath string, window model.SessionWindow) (*model.Schedule, error) {
	format := filepath.Ext(sourcePath)
	started := time.Now()

	records, err := normalizer.Normalize(sourcePath)
	if err != nil {
		return nil, err
	}
	infrastructure.RecordsNormalized.WithLabelValues(format).Add(float64(len(records)))

	filtered := processor.FilterWindow(records, window.Open, window.Close)
	schedule := processor.BuildSchedule(symbol, date, filtered)

	infrastructure.ScheduleBuildDuration.WithLabelValues(format).Observe(time.Since(started).Seconds())
	l.logger.Info("built schedule from source",
		zap.String("symbol", symbol),
		zap.String("date", date),
		zap.Int("records", len(records)),
		zap.Int("in_window", len(filtered)),
		zap.Int("wakeups", schedule.Len()))
	return schedule, nil
}
