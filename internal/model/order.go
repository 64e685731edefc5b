package model

import "time"

// Side of an order as seen in the historical feed.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderUpdateRecord is one normalized L3 order update. Price is in minor
// currency units (cents); all monetary comparisons use this integer.
type OrderUpdateRecord struct {
	Timestamp time.Time `json:"ts"`
	OrderID   int64     `json:"order_id"`
	Price     int64     `json:"price"`
	Size      int64     `json:"size"`
	Side      Side      `json:"side"`
}

// ActionType classifies the lifecycle action derived from a record.
type ActionType string

const (
	ActionAdd    ActionType = "add"
	ActionCancel ActionType = "cancel"
	ActionModify ActionType = "modify"
)

// OrderAction is one explicit lifecycle action destined for the order book.
type OrderAction struct {
	Type      ActionType `json:"type"`
	Symbol    string     `json:"symbol"`
	Side      Side       `json:"side"`
	Price     int64      `json:"price"`
	Size      int64      `json:"size"`
	OrderID   int64      `json:"order_id"`
	Timestamp time.Time  `json:"ts"`
}

// ExecutedTrade records an execution notification received during replay.
// Used only to track the last traded price, never persisted.
type ExecutedTrade struct {
	Timestamp time.Time `json:"ts"`
	FillPrice int64     `json:"fill_price"`
	Quantity  int64     `json:"quantity"`
}
