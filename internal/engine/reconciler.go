package engine

import "github.com/ali-shihab/marketreplay/internal/model"

// Reconciler converts raw (price, size) observations into explicit order
// lifecycle actions against a price-indexed table of resident orders.
//
// Identity is per price level: two orders resting at the same price are
// indistinguishable in the source data, and a later observation overwrites
// the earlier order id. This lossy granularity is inherited from the feed
// and downstream consumers depend on it.
type Reconciler struct {
	symbol   string
	resident map[int64]int64 // price cents -> order id
}

func NewReconciler(symbol string) *Reconciler {
	return &Reconciler{
		symbol:   symbol,
		resident: make(map[int64]int64),
	}
}

// ApplyOne emits the lifecycle action implied by one record and mutates the
// resident table in the same step. The second return is false for the one
// defined no-op: a zero-size observation at a price with no resident order,
// which happens whenever the feed starts mid-stream.
func (r *Reconciler) ApplyOne(rec model.OrderUpdateRecord) (model.OrderAction, bool) {
	residentID, present := r.resident[rec.Price]

	switch {
	case !present && rec.Size > 0:
		r.resident[rec.Price] = rec.OrderID
		return r.action(model.ActionAdd, rec, rec.OrderID), true

	case present && rec.Size == 0:
		delete(r.resident, rec.Price)
		return r.action(model.ActionCancel, rec, residentID), true

	case present:
		r.resident[rec.Price] = rec.OrderID
		return r.action(model.ActionModify, rec, rec.OrderID), true

	default:
		// Cancel of an order never seen.
		return model.OrderAction{}, false
	}
}

// ApplyBatch runs ApplyOne over one timestamp's records, in order.
func (r *Reconciler) ApplyBatch(records []model.OrderUpdateRecord) []model.OrderAction {
	actions := make([]model.OrderAction, 0, len(records))
	for _, rec := range records {
		if action, ok := r.ApplyOne(rec); ok {
			actions = append(actions, action)
		}
	}
	return actions
}

// Resident reports whether an order is currently believed open at price.
func (r *Reconciler) Resident(price int64) bool {
	_, ok := r.resident[price]
	return ok
}

func (r *Reconciler) action(typ model.ActionType, rec model.OrderUpdateRecord, orderID int64) model.OrderAction {
	return model.OrderAction{
		Type:      typ,
		Symbol:    r.symbol,
		Side:      rec.Side,
		Price:     rec.Price,
		Size:      rec.Size,
		OrderID:   orderID,
		Timestamp: rec.Timestamp,
	}
}
