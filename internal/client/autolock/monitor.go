// Package autolock locks a session after a period of inactivity or as soon as
// the host reports that it was hidden.
//
// The monitor only observes: it holds no key material and can call Lock but
// never Unlock.
package autolock

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/zkvault/internal/client/session"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

const DefaultTimeout = 30 * time.Minute

// Target is the part of *session.Session the monitor drives.
type Target interface {
	Lock()
	IsUnlocked() bool
	Phase() session.Phase
	MarkActivity()
	Subscribe(fn func(session.Phase)) func()
}

type Monitor struct {
	target  Target
	clock   clock.Clock
	timeout time.Duration
	logger  logging.Logger

	mu          sync.Mutex
	timer       *clock.Timer
	armed       bool
	epoch       uint64
	unsubscribe func()
}

type Option func(*Monitor)

// WithTimeout sets the inactivity timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(m *Monitor) { m.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Monitor) { m.logger = l }
}

func New(target Target, opts ...Option) *Monitor {
	m := &Monitor{
		target:  target,
		clock:   clock.New(),
		timeout: DefaultTimeout,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("module", "autolock")
	return m
}

func (m *Monitor) Timeout() time.Duration {
	return m.timeout
}

// Start subscribes to phase changes and arms the timer if the target is
// already unlocked. Calling Start twice has no effect.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.mu.Unlock()
		return
	}
	m.unsubscribe = m.target.Subscribe(m.onPhase)
	m.mu.Unlock()

	if m.target.IsUnlocked() {
		m.arm()
	}
}

// Stop unsubscribes and disarms the timer.
func (m *Monitor) Stop() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.disarmLocked()
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Armed reports whether the inactivity timer is running.
func (m *Monitor) Armed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// Notify handles one host event. Qualifying activity restarts the full
// timeout; Hidden locks immediately, including while an unlock is still
// deriving its key, so that unlock is discarded. Other events are ignored.
func (m *Monitor) Notify(ev Event) {
	switch ev.Kind {
	case KindActivity:
		if !ev.Activity.valid() {
			return
		}
		m.mu.Lock()
		if m.armed {
			m.startTimerLocked()
		}
		m.mu.Unlock()
		m.target.MarkActivity()

	case KindHidden:
		if p := m.target.Phase(); p != session.PhaseLocked {
			m.logger.Info(context.Background(), "auto-lock fired", "reason", "hidden", "phase", p.String())
			m.target.Lock()
		}
	}
}

// Run feeds events to Notify until ctx is done or events is closed.
func (m *Monitor) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			m.Notify(ev)
		}
	}
}

func (m *Monitor) onPhase(p session.Phase) {
	switch p {
	case session.PhaseUnlocked:
		// notifications can arrive out of order under concurrent lock/unlock
		if m.target.IsUnlocked() {
			m.arm()
		}
	case session.PhaseLocked:
		m.mu.Lock()
		m.disarmLocked()
		m.mu.Unlock()
	}
}

func (m *Monitor) arm() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armed = true
	m.startTimerLocked()
}

func (m *Monitor) startTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.epoch++
	epoch := m.epoch
	m.timer = m.clock.AfterFunc(m.timeout, func() { m.fire(epoch) })
}

func (m *Monitor) disarmLocked() {
	m.epoch++
	m.armed = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Monitor) fire(epoch uint64) {
	m.mu.Lock()
	if epoch != m.epoch || !m.armed {
		m.mu.Unlock()
		return
	}
	m.armed = false
	m.timer = nil
	m.mu.Unlock()

	// Lock runs outside m.mu because it calls back into onPhase. An unlock
	// that completes between here and Lock is locked again.
	if !m.target.IsUnlocked() {
		return
	}
	m.logger.Info(context.Background(), "auto-lock fired", "reason", "inactivity", "timeout", m.timeout.String())
	m.target.Lock()
}
