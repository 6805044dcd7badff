// Package peer implements the client-side handshake state machine that
// turns relayed signaling messages into a live, ordered data channel
// and keeps it alive for the duration of a game.
package peer

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signalclient"
)

// Role is the handshake role, fixed at session creation and never
// renegotiated. The initiator (room slot 0) sends the first offer.
type Role int

const (
	Initiator Role = iota
	Responder
)

func (r Role) String() string {
	if r == Initiator {
		return "initiator"
	}
	return "responder"
}

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	default:
		return "closed"
	}
}

// GameStatus gates session teardown: Close is a no-op while the game is
// still being played.
type GameStatus string

const (
	StatusPlaying GameStatus = "playing"
	StatusWon     GameStatus = "won"
	StatusLost    GameStatus = "lost"
)

// Signaler is the slice of the signaling channel the session needs.
// *signalclient.Client satisfies it.
type Signaler interface {
	On(typ signaling.MessageType, fn signalclient.Handler) signalclient.Subscription
	Off(sub signalclient.Subscription)
	SendOffer(roomID string, data json.RawMessage)
	SendAnswer(roomID string, data json.RawMessage)
	SendCandidate(roomID string, data json.RawMessage)
}

// Options tune the session's timers.
type Options struct {
	// OfferGrace is how long the initiator waits after pairing before
	// sending its offer, giving the responder time to finish
	// subscribing to relay events.
	OfferGrace time.Duration

	// ProbeInterval is the keep-alive probe cadence once the channel
	// is open.
	ProbeInterval time.Duration

	// StaleThreshold is the last-ack age past which the session warns
	// that the connection may be stale.
	StaleThreshold time.Duration
}

func (o *Options) fill() {
	if o.OfferGrace <= 0 {
		o.OfferGrace = 500 * time.Millisecond
	}
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = 5 * time.Second
	}
	if o.StaleThreshold <= 0 {
		o.StaleThreshold = 3 * o.ProbeInterval
	}
}

// Session owns one negotiated transport, one ordered message channel,
// and the keep-alive monitor for a single pairing.
//
// Construct the session before issuing the join-room request: the
// constructor subscribes to relay events, and an offer can arrive at
// any moment after the registry observes two occupants. Subscribing
// after joining loses that race.
type Session struct {
	role     Role
	roomID   string
	signaler Signaler
	factory  func() (Transport, error)
	opts     Options

	mu           sync.Mutex
	state        State
	tr           Transport
	dc           DataChannel
	remoteSet    bool
	pendingOffer *pion.SessionDescription
	buf          candidateBuffer
	gameStatus   GameStatus
	mon          *monitor
	graceTimer   *time.Timer
	subs         []signalclient.Subscription

	onMessage func(Message)
	onState   func(ConnectionState)
}

// NewSession creates a session and subscribes it to relay events for
// roomID. Call Start to build the transport; for a responder, only
// issue the join-room request after NewSession has returned.
func NewSession(role Role, roomID string, sig Signaler, factory func() (Transport, error), opts Options) *Session {
	opts.fill()
	s := &Session{
		role:       role,
		roomID:     signaling.NormalizeCode(roomID),
		signaler:   sig,
		factory:    factory,
		opts:       opts,
		state:      StateIdle,
		gameStatus: StatusPlaying,
	}

	s.subs = []signalclient.Subscription{
		sig.On(signaling.TypeOffer, s.handleOffer),
		sig.On(signaling.TypeAnswer, s.handleAnswer),
		sig.On(signaling.TypeICECandidate, s.handleCandidate),
		sig.On(signaling.TypePlayerJoined, s.handlePlayerJoined),
	}
	return s
}

// Start builds the transport and wires its callbacks. An offer that
// arrived before Start completes is processed now, never dropped.
func (s *Session) Start() error {
	tr, err := s.factory()
	if err != nil {
		return NewError("start session", err)
	}

	tr.OnICECandidate(func(c pion.ICECandidateInit) {
		data, err := json.Marshal(c)
		if err != nil {
			return
		}
		s.signaler.SendCandidate(s.roomID, data)
	})

	tr.OnDataChannel(func(dc DataChannel) {
		s.mu.Lock()
		if s.state == StateClosed || s.dc != nil {
			s.mu.Unlock()
			return
		}
		s.dc = dc
		s.mu.Unlock()
		s.wireChannel(dc)
	})

	tr.OnStateChange(func(state ConnectionState) {
		if state != StateDisconnected {
			return
		}
		s.mu.Lock()
		closed := s.state == StateClosed
		s.mu.Unlock()
		if !closed {
			s.surfaceState(StateDisconnected)
		}
	})

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		tr.Close()
		return ErrSessionClosed
	}
	s.tr = tr
	pending := s.pendingOffer
	s.pendingOffer = nil
	s.mu.Unlock()

	if pending != nil {
		slog.Debug("processing pending offer held during init")
		s.processOffer(*pending)
	}
	return nil
}

// OnMessage registers the handler for application payloads. Keep-alive
// frames never reach it.
func (s *Session) OnMessage(fn func(Message)) {
	s.mu.Lock()
	s.onMessage = fn
	s.mu.Unlock()
}

// OnConnectionStateChange registers the coarse connectivity handler.
func (s *Session) OnConnectionStateChange(fn func(ConnectionState)) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// SendMessage delivers an application message over the open channel.
func (s *Session) SendMessage(m Message) error {
	s.mu.Lock()
	if s.state != StateConnected || s.dc == nil {
		s.mu.Unlock()
		return NewError("send message", ErrChannelNotOpen)
	}
	dc := s.dc
	s.mu.Unlock()

	b, err := encodeMessage(m)
	if err != nil {
		return NewError("send message", err)
	}
	return dc.Send(b)
}

// Role returns the fixed handshake role.
func (s *Session) Role() Role { return s.role }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetGameStatus records the game outcome. Terminal statuses unlock Close.
func (s *Session) SetGameStatus(status GameStatus) {
	s.mu.Lock()
	s.gameStatus = status
	s.mu.Unlock()
}

// GameStatus returns the last recorded game status.
func (s *Session) GameStatus() GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameStatus
}

// LastAckAge reports the time since the last keep-alive acknowledgment,
// or zero before the channel opens.
func (s *Session) LastAckAge() time.Duration {
	s.mu.Lock()
	mon := s.mon
	s.mu.Unlock()
	if mon == nil {
		return 0
	}
	return mon.AckAge()
}

// Close tears the session down if the game has reached a terminal
// state. While the game status is still "playing" it is a no-op, so a
// routine UI unmount cannot kill a live game. Use Shutdown for an
// explicit user exit.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	if s.gameStatus == StatusPlaying {
		s.mu.Unlock()
		slog.Debug("close ignored, game still in progress")
		return nil
	}
	return s.teardownLocked()
}

// Shutdown closes unconditionally. It is the explicit-exit path and is
// idempotent.
func (s *Session) Shutdown() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	return s.teardownLocked()
}

// teardownLocked is entered holding s.mu and releases it. It runs at
// most once; later Close/Shutdown calls see StateClosed and return.
func (s *Session) teardownLocked() error {
	s.state = StateClosed
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
	if s.mon != nil {
		s.mon.stop()
		s.mon = nil
	}
	s.buf.drain()
	s.pendingOffer = nil
	dc := s.dc
	tr := s.tr
	subs := s.subs
	s.dc = nil
	s.tr = nil
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		s.signaler.Off(sub)
	}
	if dc != nil {
		dc.Close()
	}
	if tr != nil {
		tr.Close()
	}
	slog.Info("session closed", "room", s.roomID, "role", s.role)
	return nil
}

// handlePlayerJoined starts the initiator path once the room holds two
// occupants: wait the grace interval, then open the channel and offer.
func (s *Session) handlePlayerJoined(msg *signaling.Message) {
	if msg.RoomID != s.roomID || s.role != Initiator || msg.PlayerCount < 2 {
		return
	}

	s.mu.Lock()
	if s.state != StateIdle || s.graceTimer != nil {
		s.mu.Unlock()
		return
	}
	s.graceTimer = time.AfterFunc(s.opts.OfferGrace, s.beginNegotiation)
	s.mu.Unlock()
}

// beginNegotiation creates the data channel, builds the offer, and
// relays it. The channel must exist before the offer so the offer
// advertises it.
func (s *Session) beginNegotiation() {
	s.mu.Lock()
	if s.state != StateIdle || s.tr == nil {
		s.mu.Unlock()
		return
	}

	dc, err := s.tr.CreateDataChannel("game")
	if err != nil {
		s.mu.Unlock()
		slog.Error("failed to create data channel", "error", err)
		s.surfaceState(StateDisconnected)
		return
	}
	s.dc = dc

	offer, err := s.tr.CreateOffer()
	if err != nil {
		s.mu.Unlock()
		slog.Error("failed to create offer", "error", err)
		s.surfaceState(StateDisconnected)
		return
	}
	s.state = StateNegotiating
	s.mu.Unlock()

	s.wireChannel(dc)

	data, err := json.Marshal(offer)
	if err != nil {
		slog.Error("failed to encode offer", "error", err)
		return
	}
	s.signaler.SendOffer(s.roomID, data)
}

// handleOffer runs the responder path. An offer arriving before Start
// has built the transport goes into the one-slot pending holder.
func (s *Session) handleOffer(msg *signaling.Message) {
	if msg.RoomID != s.roomID {
		return
	}
	if s.role != Responder {
		slog.Warn("ignoring offer", "room", s.roomID,
			"error", WrapError("handle offer", ErrUnexpectedSignal, "initiator received an offer"))
		return
	}

	var offer pion.SessionDescription
	if err := json.Unmarshal(msg.Data, &offer); err != nil {
		slog.Error("malformed offer", "error", err)
		return
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.tr == nil {
		s.pendingOffer = &offer
		s.mu.Unlock()
		slog.Debug("offer arrived before init, holding")
		return
	}
	s.mu.Unlock()

	s.processOffer(offer)
}

// processOffer installs the remote offer, answers it, and flushes any
// candidates buffered while no remote description existed.
func (s *Session) processOffer(offer pion.SessionDescription) {
	s.mu.Lock()
	if s.state == StateClosed || s.tr == nil {
		s.mu.Unlock()
		return
	}

	answer, err := s.tr.CreateAnswer(offer)
	if err != nil {
		s.mu.Unlock()
		slog.Error("failed to answer offer", "error", err)
		s.surfaceState(StateDisconnected)
		return
	}
	s.state = StateNegotiating
	s.remoteSet = true
	s.flushCandidatesLocked()
	s.mu.Unlock()

	data, err := json.Marshal(answer)
	if err != nil {
		slog.Error("failed to encode answer", "error", err)
		return
	}
	s.signaler.SendAnswer(s.roomID, data)
}

// handleAnswer completes the initiator's negotiation.
func (s *Session) handleAnswer(msg *signaling.Message) {
	if msg.RoomID != s.roomID {
		return
	}
	if s.role != Initiator {
		slog.Warn("ignoring answer", "room", s.roomID,
			"error", WrapError("handle answer", ErrUnexpectedSignal, "responder received an answer"))
		return
	}

	var answer pion.SessionDescription
	if err := json.Unmarshal(msg.Data, &answer); err != nil {
		slog.Error("malformed answer", "error", err)
		return
	}

	s.mu.Lock()
	if s.state == StateClosed || s.tr == nil {
		s.mu.Unlock()
		return
	}
	if err := s.tr.SetRemoteAnswer(answer); err != nil {
		s.mu.Unlock()
		slog.Error("failed to install answer", "error", err)
		s.surfaceState(StateDisconnected)
		return
	}
	s.remoteSet = true
	s.flushCandidatesLocked()
	s.mu.Unlock()
}

// handleCandidate buffers or applies a remote connectivity candidate.
func (s *Session) handleCandidate(msg *signaling.Message) {
	if msg.RoomID != s.roomID {
		return
	}

	var c pion.ICECandidateInit
	if err := json.Unmarshal(msg.Data, &c); err != nil {
		slog.Error("malformed ICE candidate", "error", err)
		return
	}

	s.mu.Lock()
	if s.state != StateClosed && !s.remoteSet {
		s.buf.add(c)
		buffered := s.buf.len()
		s.mu.Unlock()
		slog.Debug("buffered ICE candidate", "room", s.roomID, "buffered", buffered)
		return
	}
	err := s.applyCandidateLocked(c)
	s.mu.Unlock()

	if err != nil {
		slog.Error("failed to apply ICE candidate", "error", err)
		s.surfaceState(StateDisconnected)
	}
}

// applyCandidateLocked is the only path by which a candidate reaches
// the transport, so the remote-description and closed-state guards
// cannot be bypassed.
func (s *Session) applyCandidateLocked(c pion.ICECandidateInit) error {
	if s.state == StateClosed {
		return NewError("apply candidate", ErrSessionClosed)
	}
	if !s.remoteSet {
		return NewError("apply candidate", ErrNoRemoteDescription)
	}
	return s.tr.AddICECandidate(c)
}

// flushCandidatesLocked applies buffered candidates in arrival order.
// Called with s.mu held, immediately after the remote description is
// installed.
func (s *Session) flushCandidatesLocked() {
	for _, c := range s.buf.drain() {
		if err := s.applyCandidateLocked(c); err != nil {
			slog.Error("failed to apply buffered ICE candidate", "error", err)
		}
	}
}

// wireChannel attaches the session to its data channel: open gates the
// Connected state and starts the keep-alive monitor, probes are acked
// silently, and everything else goes to the application.
func (s *Session) wireChannel(dc DataChannel) {
	dc.OnOpen(func() {
		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.state = StateConnected
		s.mon = newMonitor(s.opts.ProbeInterval, s.opts.StaleThreshold,
			func() error { return s.sendInternal(msgProbe) }, nil)
		s.mon.start()
		s.mu.Unlock()

		slog.Info("data channel open", "room", s.roomID, "role", s.role)
		s.surfaceState(StateConnectedOK)
	})

	dc.OnClose(func() {
		s.mu.Lock()
		closed := s.state == StateClosed
		s.mu.Unlock()
		if !closed {
			s.surfaceState(StateDisconnected)
		}
	})

	dc.OnMessage(func(data []byte) {
		m, err := decodeMessage(data)
		if err != nil {
			slog.Error("malformed data channel message", "error", err)
			return
		}
		s.handleChannelMessage(m)
	})
}

// handleChannelMessage answers probes, records acks, and forwards
// application payloads. Liveness frames are never surfaced.
func (s *Session) handleChannelMessage(m Message) {
	if m.internal() {
		switch m.Type {
		case msgProbe:
			if err := s.sendInternal(msgAck); err != nil {
				slog.Debug("failed to ack probe", "error", err)
			}
		case msgAck:
			s.mu.Lock()
			mon := s.mon
			s.mu.Unlock()
			if mon != nil {
				mon.recordAck()
			}
		}
		return
	}

	s.mu.Lock()
	fn := s.onMessage
	s.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

// sendInternal writes a liveness frame directly on the channel.
func (s *Session) sendInternal(kind string) error {
	s.mu.Lock()
	dc := s.dc
	s.mu.Unlock()
	if dc == nil {
		return ErrChannelNotOpen
	}
	b, err := encodeMessage(Message{Type: kind})
	if err != nil {
		return err
	}
	return dc.Send(b)
}

// surfaceState invokes the connectivity callback outside the lock.
func (s *Session) surfaceState(state ConnectionState) {
	s.mu.Lock()
	fn := s.onState
	s.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}
