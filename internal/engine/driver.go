package engine

import (
	"time"

	"github.com/ali-shihab/marketreplay/internal/infrastructure"
	"github.com/ali-shihab/marketreplay/internal/model"

	"go.uber.org/zap"
)

// ActionSink is the order-book boundary. Actions handed to it are final:
// replay never rolls back what it has already emitted.
type ActionSink interface {
	Submit(action model.OrderAction) error
}

// WakeupScheduler is the scheduling-kernel boundary. The driver requests its
// next activation through it.
type WakeupScheduler interface {
	SetWakeup(t time.Time)
}

// DriverState is the replay control-loop state.
type DriverState string

const (
	StateAwaitingWakeup DriverState = "AWAITING_WAKEUP"
	StateDone           DriverState = "DONE"
)

// Driver is the agent-facing replay loop. On each wakeup it pops the earliest
// scheduled batch, requests the following wakeup, and forwards the batch's
// lifecycle actions to the order book. One instance owns one schedule for one
// symbol-session; everything here runs on the scheduler's single thread.
type Driver struct {
	symbol     string
	schedule   *model.Schedule
	cursor     int
	window     model.SessionWindow
	reconciler *Reconciler
	sink       ActionSink
	scheduler  WakeupScheduler
	logger     *zap.Logger

	state     DriverState
	executed  []model.ExecutedTrade
	lastTrade int64
	haveTrade bool

	adds, cancels, modifies, noOps, records int
}

func NewDriver(symbol string, schedule *model.Schedule, window model.SessionWindow,
	sink ActionSink, scheduler WakeupScheduler, logger *zap.Logger) *Driver {
	return &Driver{
		symbol:     symbol,
		schedule:   schedule,
		window:     window,
		reconciler: NewReconciler(symbol),
		sink:       sink,
		scheduler:  scheduler,
		logger:     logger,
		state:      StateAwaitingWakeup,
	}
}

// InitialWakeupOffset returns the offset from market open to the first
// scheduled timestamp, for the external scheduler's first activation.
// False when the schedule is empty.
func (d *Driver) InitialWakeupOffset() (time.Duration, bool) {
	first, ok := d.schedule.First()
	if !ok {
		return 0, false
	}
	return first.Sub(d.window.Open), true
}

// NextWakeup returns the earliest not-yet-processed timestamp.
func (d *Driver) NextWakeup() (time.Time, bool) {
	if d.cursor >= d.schedule.Len() {
		return time.Time{}, false
	}
	return d.schedule.Batches[d.cursor].Time, true
}

// State returns the control-loop state.
func (d *Driver) State() DriverState { return d.state }

// OnWakeup processes the batch at the earliest scheduled timestamp and
// requests the following wakeup. An exhausted schedule is normal
// termination, not an error.
func (d *Driver) OnWakeup(now time.Time) {
	if d.window.Open.IsZero() || d.window.Close.IsZero() {
		return
	}
	if d.state == StateDone {
		return
	}

	if d.cursor >= d.schedule.Len() {
		d.logger.Info("replay submitted all orders",
			zap.String("symbol", d.symbol),
			zap.Time("last_wakeup", now))
		d.state = StateDone
		return
	}

	batch := d.schedule.Batches[d.cursor]
	d.cursor++

	if next, ok := d.NextWakeup(); ok {
		d.scheduler.SetWakeup(next)
	}

	for _, rec := range batch.Records {
		d.records++
		action, ok := d.reconciler.ApplyOne(rec)
		if !ok {
			d.noOps++
			continue
		}
		switch action.Type {
		case model.ActionAdd:
			d.adds++
		case model.ActionCancel:
			d.cancels++
		case model.ActionModify:
			d.modifies++
		}
		infrastructure.ActionsEmitted.WithLabelValues(string(action.Type)).Inc()
		if err := d.sink.Submit(action); err != nil {
			d.logger.Error("failed to submit action to book",
				zap.String("symbol", d.symbol),
				zap.String("type", string(action.Type)),
				zap.Error(err))
		}
	}
}

// OnExecutionNotification records a fill reported back by the order book and
// updates the last traded price. Pure bookkeeping.
func (d *Driver) OnExecutionNotification(ts time.Time, fillPrice, quantity int64) {
	d.executed = append(d.executed, model.ExecutedTrade{
		Timestamp: ts,
		FillPrice: fillPrice,
		Quantity:  quantity,
	})
	d.lastTrade = fillPrice
	d.haveTrade = true
}

// LastTradePrice returns the most recent fill price seen this session.
func (d *Driver) LastTradePrice() (int64, bool) {
	return d.lastTrade, d.haveTrade
}

// ExecutedTrades returns the fills recorded so far.
func (d *Driver) ExecutedTrades() []model.ExecutedTrade {
	return d.executed
}

// Report summarizes the session so far.
func (d *Driver) Report() model.ReplayReport {
	report := model.ReplayReport{
		Symbol:   d.symbol,
		Date:     d.schedule.Date,
		Records:  d.records,
		Actions:  d.adds + d.cancels + d.modifies,
		Adds:     d.adds,
		Cancels:  d.cancels,
		Modifies: d.modifies,
		NoOps:    d.noOps,
	}
	if first, ok := d.schedule.First(); ok {
		report.FirstWakeup = first
		report.LastWakeup = d.schedule.Batches[d.schedule.Len()-1].Time
	}
	if d.haveTrade {
		report.LastTradePrice = d.lastTrade
	}
	return report
}
