package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ali-shihab/marketreplay/internal/model"
)

// ErrCacheMiss is returned by Load when no artifact exists for the key.
var ErrCacheMiss = errors.New("schedule cache miss")

// CacheError reports a read, write or decode failure on a persisted artifact.
// Callers recover by rebuilding the schedule from source.
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("schedule cache error for %s: %v", e.Path, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// ScheduleCache stores schedules as JSON files in a configured directory.
// The key is derived from (symbol, date) only — the session window is not
// part of it, so callers must keep windowing consistent per (symbol, date).
type ScheduleCache struct {
	dir string
}

func NewScheduleCache(dir string) *ScheduleCache {
	return &ScheduleCache{dir: dir}
}

func (c *ScheduleCache) path(symbol, date string) string {
	return filepath.Join(c.dir, fmt.Sprintf("marketreplay_%s_%s.json", symbol, date))
}

// Load retrieves a previously stored schedule. Returns ErrCacheMiss when no
// artifact exists, or a CacheError when the artifact cannot be decoded.
func (c *ScheduleCache) Load(symbol, date string) (*model.Schedule, error) {
	path := c.path(symbol, date)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, &CacheError{Path: path, Err: err}
	}

	var schedule model.Schedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, &CacheError{Path: path, Err: err}
	}
	return &schedule, nil
}

// Store writes the schedule via a temp file and rename so a crash mid-write
// never leaves a half-written artifact under the cache key.
func (c *ScheduleCache) Store(symbol, date string, schedule *model.Schedule) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return &CacheError{Path: c.dir, Err: err}
	}

	path := c.path(symbol, date)
	data, err := json.Marshal(schedule)
	if err != nil {
		return &CacheError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(c.dir, "schedule-*.tmp")
	if err != nil {
		return &CacheError{Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &CacheError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &CacheError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &CacheError{Path: path, Err: err}
	}
	return nil
}
