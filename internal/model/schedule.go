package model

import "time"

// Batch is all order updates that share one exact timestamp, in source order.
type Batch struct {
	Time    time.Time           `json:"time"`
	Records []OrderUpdateRecord `json:"records"`
}

// Schedule is the time-ordered replay plan for one (symbol, date) session.
// Batches are sorted ascending by time; their times, taken in order, form the
// wakeup sequence. Immutable after construction.
type Schedule struct {
	Symbol  string  `json:"symbol"`
	Date    string  `json:"date"`
	Batches []Batch `json:"batches"`
}

// Len returns the number of scheduled wakeups.
func (s *Schedule) Len() int { return len(s.Batches) }

// First returns the earliest wakeup time, or false if the schedule is empty.
func (s *Schedule) First() (time.Time, bool) {
	if len(s.Batches) == 0 {
		return time.Time{}, false
	}
	return s.Batches[0].Time, true
}

// Records returns the total number of order updates across all batches.
func (s *Schedule) Records() int {
	n := 0
	for _, b := range s.Batches {
		n += len(b.Records)
	}
	return n
}

// SessionWindow is the half-open [Open, Close) interval of a trading session.
type SessionWindow struct {
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// Contains reports whether t falls inside the window.
func (w SessionWindow) Contains(t time.Time) bool {
	return !t.Before(w.Open) && t.Before(w.Close)
}
