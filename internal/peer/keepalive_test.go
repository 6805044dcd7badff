package peer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitorProbesUntilStopped(t *testing.T) {
	var probes atomic.Int64
	m := newMonitor(10*time.Millisecond, time.Hour, func() error {
		probes.Add(1)
		return nil
	}, nil)
	m.start()

	waitFor(t, "probes", func() bool { return probes.Load() >= 3 })

	m.stop()
	time.Sleep(30 * time.Millisecond)
	settled := probes.Load()
	time.Sleep(50 * time.Millisecond)
	if got := probes.Load(); got != settled {
		t.Fatalf("probe count moved after stop: %d -> %d", settled, got)
	}

	// stop is safe to repeat.
	m.stop()
}

func TestMonitorWarnsWhenAcksStop(t *testing.T) {
	var staleAge atomic.Int64
	m := newMonitor(10*time.Millisecond, 25*time.Millisecond,
		func() error { return nil },
		func(age time.Duration) { staleAge.Store(int64(age)) })
	m.start()
	defer m.stop()

	waitFor(t, "stale warning", func() bool { return staleAge.Load() > 0 })

	if age := time.Duration(staleAge.Load()); age <= 25*time.Millisecond {
		t.Fatalf("stale callback fired with age %v, want above threshold", age)
	}
}

func TestMonitorAcksKeepAgeFresh(t *testing.T) {
	var stale atomic.Int64
	m := newMonitor(10*time.Millisecond, 50*time.Millisecond,
		func() error { return nil },
		func(time.Duration) { stale.Add(1) })
	m.start()
	defer m.stop()

	for i := 0; i < 10; i++ {
		m.recordAck()
		time.Sleep(10 * time.Millisecond)
	}

	if stale.Load() != 0 {
		t.Fatal("stale callback fired despite steady acks")
	}
	if age := m.AckAge(); age > 50*time.Millisecond {
		t.Fatalf("ack age %v, want fresh", age)
	}
}

func TestProbeIsAckedAndNeverSurfaced(t *testing.T) {
	s, sig, tr := newTestSession(t, Responder)

	var surfaced atomic.Int64
	s.OnMessage(func(Message) { surfaced.Add(1) })

	sig.deliverOffer(testRoom)
	dc := tr.announceChannel("game")
	dc.open()

	probe, err := encodeMessage(Message{Type: msgProbe})
	if err != nil {
		t.Fatalf("encode probe: %v", err)
	}
	dc.receive(probe)

	acks := 0
	for _, m := range dc.sentMessages() {
		if m.Type == msgAck {
			acks++
		}
	}
	if acks != 1 {
		t.Fatalf("probe produced %d acks, want 1", acks)
	}
	if surfaced.Load() != 0 {
		t.Fatal("liveness frame reached the application handler")
	}
}

func TestAckUpdatesLastAckAge(t *testing.T) {
	s, sig, tr := newTestSession(t, Responder)

	sig.deliverOffer(testRoom)
	dc := tr.announceChannel("game")
	dc.open()

	// Let the baseline age grow a little, then inject an ack.
	time.Sleep(30 * time.Millisecond)
	before := s.LastAckAge()

	ack, err := encodeMessage(Message{Type: msgAck})
	if err != nil {
		t.Fatalf("encode ack: %v", err)
	}
	dc.receive(ack)

	after := s.LastAckAge()
	if after >= before {
		t.Fatalf("ack did not reset age: before=%v after=%v", before, after)
	}
}

func TestApplicationMessagesSurface(t *testing.T) {
	s, sig, tr := newTestSession(t, Responder)

	got := make(chan Message, 1)
	s.OnMessage(func(m Message) { got <- m })

	sig.deliverOffer(testRoom)
	dc := tr.announceChannel("game")
	dc.open()

	msg, err := NewMessage(MsgChat, map[string]string{"text": "gg"})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	frame, err := encodeMessage(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	dc.receive(frame)

	select {
	case m := <-got:
		if m.Type != MsgChat {
			t.Fatalf("surfaced type %q, want %q", m.Type, MsgChat)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("application message never surfaced")
	}
}
