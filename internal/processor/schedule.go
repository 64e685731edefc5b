package processor

import (
	"sort"
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"
)

// FilterWindow keeps exactly the records with start <= ts < end, preserving
// source order. An empty result is valid.
func FilterWindow(records []model.OrderUpdateRecord, start, end time.Time) []model.OrderUpdateRecord {
	filtered := make([]model.OrderUpdateRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// BuildSchedule groups records by exact timestamp equality, preserving
// within-group source order. The distinct timestamps, ascending, become the
// wakeup sequence.
func BuildSchedule(symbol, date string, records []model.OrderUpdateRecord) *model.Schedule {
	groups := make(map[time.Time][]model.OrderUpdateRecord)
	times := make([]time.Time, 0)
	for _, r := range records {
		if _, seen := groups[r.Timestamp]; !seen {
			times = append(times, r.Timestamp)
		}
		groups[r.Timestamp] = append(groups[r.Timestamp], r)
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	batches := make([]model.Batch, 0, len(times))
	for _, t := range times {
		batches = append(batches, model.Batch{Time: t, Records: groups[t]})
	}

	return &model.Schedule{Symbol: symbol, Date: date, Batches: batches}
}
