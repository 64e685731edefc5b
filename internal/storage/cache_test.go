package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"

	"github.com/stretchr/testify/assert"
)

func sampleSchedule() *model.Schedule {
	t1 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	return &model.Schedule{
		Symbol: "AAPL",
		Date:   "2024-01-02",
		Batches: []model.Batch{
			{Time: t1, Records: []model.OrderUpdateRecord{
				{Timestamp: t1, OrderID: 1, Price: 10000, Size: 10, Side: model.SideBuy},
			}},
			{Time: t1.Add(time.Second), Records: []model.OrderUpdateRecord{
				{Timestamp: t1.Add(time.Second), OrderID: 2, Price: 10000, Size: 0, Side: model.SideBuy},
			}},
		},
	}
}

func TestScheduleCache_RoundTrip(t *testing.T) {
	cache := NewScheduleCache(t.TempDir())
	stored := sampleSchedule()

	assert.NoError(t, cache.Store("AAPL", "2024-01-02", stored))

	loaded, err := cache.Load("AAPL", "2024-01-02")
	assert.NoError(t, err)
	assert.Equal(t, stored, loaded)
}

func TestScheduleCache_Miss(t *testing.T) {
	cache := NewScheduleCache(t.TempDir())
	_, err := cache.Load("AAPL", "2024-01-02")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestScheduleCache_CorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	cache := NewScheduleCache(dir)

	path := filepath.Join(dir, "marketreplay_AAPL_2024-01-02.json")
	assert.NoError(t, os.WriteFile(path, []byte("{truncated"), 0644))

	_, err := cache.Load("AAPL", "2024-01-02")
	var cacheErr *CacheError
	assert.ErrorAs(t, err, &cacheErr)
}

func TestScheduleCache_KeyPerSymbolDate(t *testing.T) {
	cache := NewScheduleCache(t.TempDir())
	assert.NoError(t, cache.Store("AAPL", "2024-01-02", sampleSchedule()))

	_, err := cache.Load("AAPL", "2024-01-03")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = cache.Load("MSFT", "2024-01-02")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestScheduleCache_StoreOverwrites(t *testing.T) {
	cache := NewScheduleCache(t.TempDir())
	assert.NoError(t, cache.Store("AAPL", "2024-01-02", sampleSchedule()))

	replacement := &model.Schedule{Symbol: "AAPL", Date: "2024-01-02"}
	assert.NoError(t, cache.Store("AAPL", "2024-01-02", replacement))

	loaded, err := cache.Load("AAPL", "2024-01-02")
	assert.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}
