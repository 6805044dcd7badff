package peer

import (
	"log/slog"
	"sync"
	"time"
)

// monitor implements the application-level keep-alive protocol: a probe
// on a fixed interval, an automatic ack on receipt, and an age metric
// on the last ack seen. Crossing the stale threshold only raises a
// warning; closing the session remains the application's decision.
type monitor struct {
	interval time.Duration
	stale    time.Duration

	sendProbe func() error
	onStale   func(age time.Duration)

	mu      sync.Mutex
	lastAck time.Time

	done     chan struct{}
	stopOnce sync.Once
}

func newMonitor(interval, stale time.Duration, sendProbe func() error, onStale func(time.Duration)) *monitor {
	return &monitor{
		interval:  interval,
		stale:     stale,
		sendProbe: sendProbe,
		onStale:   onStale,
		done:      make(chan struct{}),
	}
}

// start begins probing. It runs until stop is called.
func (m *monitor) start() {
	m.mu.Lock()
	m.lastAck = time.Now()
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				if err := m.sendProbe(); err != nil {
					slog.Debug("keep-alive probe failed", "error", err)
				}
				if age := m.AckAge(); age > m.stale {
					slog.Warn("connection may be stale", "lastAck", age)
					if m.onStale != nil {
						m.onStale(age)
					}
				}
			}
		}
	}()
}

// recordAck notes that the peer answered a probe.
func (m *monitor) recordAck() {
	m.mu.Lock()
	m.lastAck = time.Now()
	m.mu.Unlock()
}

// AckAge returns the time since the last acknowledgment was received.
func (m *monitor) AckAge() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastAck.IsZero() {
		return 0
	}
	return time.Since(m.lastAck)
}

// stop halts probing. Safe to call more than once.
func (m *monitor) stop() {
	m.stopOnce.Do(func() { close(m.done) })
}
