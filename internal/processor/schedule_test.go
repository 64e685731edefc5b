package processor

import (
	"testing"
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"

	"github.com/stretchr/testify/assert"
)

func rec(ts time.Time, id int64) model.OrderUpdateRecord {
	return model.OrderUpdateRecord{
		Timestamp: ts,
		OrderID:   id,
		Price:     10000,
		Size:      1,
		Side:      model.SideBuy,
	}
}

func TestFilterWindow(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	start := day.Add(9 * time.Hour)
	end := day.Add(9*time.Hour + 5*time.Minute)

	records := []model.OrderUpdateRecord{
		rec(day.Add(8*time.Hour+59*time.Minute), 1),
		rec(start, 2),
		rec(end.Add(-time.Millisecond), 3),
		rec(end, 4),
	}

	filtered := FilterWindow(records, start, end)
	assert.Len(t, filtered, 2)
	assert.Equal(t, int64(2), filtered[0].OrderID) // start is inclusive
	assert.Equal(t, int64(3), filtered[1].OrderID) // end is exclusive
}

func TestFilterWindow_Empty(t *testing.T) {
	start := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	filtered := FilterWindow(nil, start, start.Add(time.Hour))
	assert.Empty(t, filtered)
}

func TestBuildSchedule_GroupsByTimestamp(t *testing.T) {
	t1 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	// Interleaved timestamps: grouping must preserve per-group source order.
	records := []model.OrderUpdateRecord{
		rec(t2, 1),
		rec(t1, 2),
		rec(t2, 3),
		rec(t1, 4),
	}

	schedule := BuildSchedule("AAPL", "2024-01-02", records)
	assert.Equal(t, "AAPL", schedule.Symbol)
	assert.Equal(t, 2, schedule.Len())
	assert.Equal(t, 4, schedule.Records())

	// Wakeup sequence is ascending.
	assert.Equal(t, t1, schedule.Batches[0].Time)
	assert.Equal(t, t2, schedule.Batches[1].Time)

	assert.Equal(t, int64(2), schedule.Batches[0].Records[0].OrderID)
	assert.Equal(t, int64(4), schedule.Batches[0].Records[1].OrderID)
	assert.Equal(t, int64(1), schedule.Batches[1].Records[0].OrderID)
	assert.Equal(t, int64(3), schedule.Batches[1].Records[1].OrderID)
}

func TestBuildSchedule_EmptyInput(t *testing.T) {
	schedule := BuildSchedule("AAPL", "2024-01-02", nil)
	assert.Equal(t, 0, schedule.Len())
	_, ok := schedule.First()
	assert.False(t, ok)
}

func TestBuildSchedule_Deterministic(t *testing.T) {
	t1 := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	records := []model.OrderUpdateRecord{rec(t1, 1), rec(t1.Add(time.Second), 2)}

	a := BuildSchedule("AAPL", "2024-01-02", records)
	b := BuildSchedule("AAPL", "2024-01-02", records)
	assert.Equal(t, a, b)
}
