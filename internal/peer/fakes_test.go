package peer

import (
	"encoding/json"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signalclient"
)

// fakeSignaler drives a session the way the real signaling channel
// would, using the real event bus for subscription plumbing.
type fakeSignaler struct {
	*signalclient.Bus

	mu         sync.Mutex
	offers     []json.RawMessage
	answers    []json.RawMessage
	candidates []json.RawMessage
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{Bus: signalclient.NewBus()}
}

func (f *fakeSignaler) SendOffer(roomID string, data json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers = append(f.offers, data)
}

func (f *fakeSignaler) SendAnswer(roomID string, data json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, data)
}

func (f *fakeSignaler) SendCandidate(roomID string, data json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.candidates = append(f.candidates, data)
}

func (f *fakeSignaler) sentOffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.offers)
}

func (f *fakeSignaler) sentAnswers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers)
}

// deliverOffer emits a relayed offer for roomID onto the bus.
func (f *fakeSignaler) deliverOffer(roomID string) {
	desc := pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0 fake offer"}
	data, _ := json.Marshal(desc)
	f.Emit(&signaling.Message{Type: signaling.TypeOffer, RoomID: roomID, Data: data})
}

// deliverAnswer emits a relayed answer for roomID onto the bus.
func (f *fakeSignaler) deliverAnswer(roomID string) {
	desc := pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0 fake answer"}
	data, _ := json.Marshal(desc)
	f.Emit(&signaling.Message{Type: signaling.TypeAnswer, RoomID: roomID, Data: data})
}

// deliverCandidate emits a relayed candidate for roomID onto the bus.
func (f *fakeSignaler) deliverCandidate(roomID, candidate string) {
	data, _ := json.Marshal(pion.ICECandidateInit{Candidate: candidate})
	f.Emit(&signaling.Message{Type: signaling.TypeICECandidate, RoomID: roomID, Data: data})
}

// deliverPlayerJoined emits a pairing event for roomID onto the bus.
func (f *fakeSignaler) deliverPlayerJoined(roomID string, count int) {
	f.Emit(&signaling.Message{Type: signaling.TypePlayerJoined, RoomID: roomID, PlayerCount: count})
}

// fakeTransport records everything the session does to it.
type fakeTransport struct {
	mu        sync.Mutex
	applied   []string
	remoteSet bool
	closed    int

	failAnswer error

	onICE   func(pion.ICECandidateInit)
	onDC    func(DataChannel)
	onState func(ConnectionState)

	dc *fakeDataChannel
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (t *fakeTransport) CreateOffer() (pion.SessionDescription, error) {
	return pion.SessionDescription{Type: pion.SDPTypeOffer, SDP: "v=0 local offer"}, nil
}

func (t *fakeTransport) CreateAnswer(offer pion.SessionDescription) (pion.SessionDescription, error) {
	if t.failAnswer != nil {
		return pion.SessionDescription{}, t.failAnswer
	}
	t.mu.Lock()
	t.remoteSet = true
	t.mu.Unlock()
	return pion.SessionDescription{Type: pion.SDPTypeAnswer, SDP: "v=0 local answer"}, nil
}

func (t *fakeTransport) SetRemoteAnswer(answer pion.SessionDescription) error {
	t.mu.Lock()
	t.remoteSet = true
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) AddICECandidate(c pion.ICECandidateInit) error {
	t.mu.Lock()
	t.applied = append(t.applied, c.Candidate)
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) OnICECandidate(fn func(pion.ICECandidateInit)) { t.onICE = fn }
func (t *fakeTransport) OnDataChannel(fn func(DataChannel))           { t.onDC = fn }
func (t *fakeTransport) OnStateChange(fn func(ConnectionState))       { t.onState = fn }

func (t *fakeTransport) CreateDataChannel(label string) (DataChannel, error) {
	dc := &fakeDataChannel{label: label}
	t.mu.Lock()
	t.dc = dc
	t.mu.Unlock()
	return dc, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	t.closed++
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) appliedCandidates() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.applied...)
}

func (t *fakeTransport) closeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// announceChannel simulates the remote side opening a channel
// (responder path).
func (t *fakeTransport) announceChannel(label string) *fakeDataChannel {
	dc := &fakeDataChannel{label: label}
	t.mu.Lock()
	t.dc = dc
	t.mu.Unlock()
	t.onDC(dc)
	return dc
}

// fakeDataChannel is an in-memory stand-in for the ordered stream.
type fakeDataChannel struct {
	label string

	mu     sync.Mutex
	sent   [][]byte
	closed int

	onOpen  func()
	onClose func()
	onMsg   func([]byte)
}

func (d *fakeDataChannel) Label() string { return d.label }

func (d *fakeDataChannel) Send(data []byte) error {
	d.mu.Lock()
	d.sent = append(d.sent, data)
	d.mu.Unlock()
	return nil
}

func (d *fakeDataChannel) OnOpen(fn func())          { d.onOpen = fn }
func (d *fakeDataChannel) OnClose(fn func())         { d.onClose = fn }
func (d *fakeDataChannel) OnMessage(fn func([]byte)) { d.onMsg = fn }

func (d *fakeDataChannel) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

// open fires the open callback as the transport would.
func (d *fakeDataChannel) open() {
	if d.onOpen != nil {
		d.onOpen()
	}
}

// receive injects an inbound frame.
func (d *fakeDataChannel) receive(data []byte) {
	if d.onMsg != nil {
		d.onMsg(data)
	}
}

// sentMessages decodes every frame written to the channel.
func (d *fakeDataChannel) sentMessages() []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Message, 0, len(d.sent))
	for _, b := range d.sent {
		if m, err := decodeMessage(b); err == nil {
			out = append(out, m)
		}
	}
	return out
}
