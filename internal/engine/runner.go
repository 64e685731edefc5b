package engine

import (
	"time"

	"github.com/ali-shihab/marketreplay/internal/model"

	"go.uber.org/zap"
)

// localKernel is a minimal stand-in for the external scheduling kernel: it
// holds at most one requested wakeup at a time.
type localKernel struct {
	next    time.Time
	pending bool
}

func (k *localKernel) SetWakeup(t time.Time) {
	k.next = t
	k.pending = true
}

// Session binds a driver to a local kernel and runs the whole wakeup
// sequence to completion in one call.
type Session struct {
	driver *Driver
	kernel *localKernel
}

func NewSession(symbol string, schedule *model.Schedule, window model.SessionWindow,
	sink ActionSink, logger *zap.Logger) *Session {
	kernel := &localKernel{}
	return &Session{
		driver: NewDriver(symbol, schedule, window, sink, kernel, logger),
		kernel: kernel,
	}
}

// Driver exposes the underlying driver, e.g. for execution notifications.
func (s *Session) Driver() *Driver { return s.driver }

// Run delivers wakeups until the driver stops requesting them, then one
// final wakeup so the driver observes the exhausted sequence and reaches
// its terminal state.
func (s *Session) Run() model.ReplayReport {
	started := time.Now()

	if first, ok := s.driver.NextWakeup(); ok {
		s.kernel.SetWakeup(first)
	}
	for s.kernel.pending {
		now := s.kernel.next
		s.kernel.pending = false
		s.driver.OnWakeup(now)
	}
	if s.driver.State() != StateDone {
		s.driver.OnWakeup(s.driver.window.Close)
	}

	report := s.driver.Report()
	report.Duration = time.Since(started)
	return report
}
