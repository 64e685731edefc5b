package model

import "time"

// ReplayReport summarizes one completed replay session.
type ReplayReport struct {
	Symbol         string        `json:"symbol"`
	Date           string        `json:"date"`
	Records        int           `json:"records"`
	Actions        int           `json:"actions"`
	Adds           int           `json:"adds"`
	Cancels        int           `json:"cancels"`
	Modifies       int           `json:"modifies"`
	NoOps          int           `json:"no_ops"`
	FirstWakeup    time.Time     `json:"first_wakeup"`
	LastWakeup     time.Time     `json:"last_wakeup"`
	LastTradePrice int64         `json:"last_trade_price"`
	Duration       time.Duration `json:"duration_ns"`
}
