package peer

import (
	pion "github.com/pion/webrtc/v4"

	"github.com/jdunham2/dunhamwordle-sub000/internal/config"
)

// Transport abstracts the underlying peer connection so the session
// state machine can be exercised in tests without opening sockets.
type Transport interface {
	// CreateOffer builds the local offer and installs it as the local
	// description.
	CreateOffer() (pion.SessionDescription, error)

	// CreateAnswer installs offer as the remote description, builds the
	// answer, and installs it as the local description.
	CreateAnswer(offer pion.SessionDescription) (pion.SessionDescription, error)

	// SetRemoteAnswer installs the peer's answer as the remote description.
	SetRemoteAnswer(answer pion.SessionDescription) error

	// AddICECandidate applies a remote connectivity candidate. Callers
	// must not invoke it before a remote description is installed.
	AddICECandidate(c pion.ICECandidateInit) error

	// OnICECandidate registers a callback for locally gathered candidates.
	OnICECandidate(fn func(pion.ICECandidateInit))

	// CreateDataChannel opens an ordered, reliable channel (initiator side).
	CreateDataChannel(label string) (DataChannel, error)

	// OnDataChannel fires when the remote side announces a channel
	// (responder side).
	OnDataChannel(fn func(DataChannel))

	// OnStateChange reports coarse connectivity transitions.
	OnStateChange(fn func(ConnectionState))

	Close() error
}

// DataChannel is the ordered application message stream.
type DataChannel interface {
	Label() string
	Send(data []byte) error
	OnOpen(fn func())
	OnClose(fn func())
	OnMessage(fn func(data []byte))
	Close() error
}

// ConnectionState is the coarse state surfaced to the application.
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnectedOK  ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
)

// pionTransport backs Transport with a real pion PeerConnection.
type pionTransport struct {
	pc *pion.PeerConnection
}

// NewTransport creates a peer connection configured with the ICE servers
// from cfg.
func NewTransport(cfg *config.Config) (Transport, error) {
	iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}

	if turn := cfg.GetTURNServers(); turn != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return &pionTransport{pc: pc}, nil
}

func (t *pionTransport) CreateOffer() (pion.SessionDescription, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return pion.SessionDescription{}, NewError("create offer", err)
	}
	if err = t.pc.SetLocalDescription(offer); err != nil {
		return pion.SessionDescription{}, NewError("set local description", err)
	}
	return *t.pc.LocalDescription(), nil
}

func (t *pionTransport) CreateAnswer(offer pion.SessionDescription) (pion.SessionDescription, error) {
	if err := t.pc.SetRemoteDescription(offer); err != nil {
		return pion.SessionDescription{}, NewError("set remote description", err)
	}

	answer, err := t.pc.CreateAnswer(nil)
	if err != nil {
		return pion.SessionDescription{}, NewError("create answer", err)
	}

	if err = t.pc.SetLocalDescription(answer); err != nil {
		return pion.SessionDescription{}, NewError("set local description", err)
	}

	return *t.pc.LocalDescription(), nil
}

func (t *pionTransport) SetRemoteAnswer(answer pion.SessionDescription) error {
	if err := t.pc.SetRemoteDescription(answer); err != nil {
		return NewError("set remote description", err)
	}
	return nil
}

func (t *pionTransport) AddICECandidate(c pion.ICECandidateInit) error {
	if err := t.pc.AddICECandidate(c); err != nil {
		return NewError("add ICE candidate", err)
	}
	return nil
}

func (t *pionTransport) OnICECandidate(fn func(pion.ICECandidateInit)) {
	t.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		fn(c.ToJSON())
	})
}

func (t *pionTransport) CreateDataChannel(label string) (DataChannel, error) {
	ordered := true
	dc, err := t.pc.CreateDataChannel(label, &pion.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, NewError("create data channel", err)
	}
	return &pionDataChannel{dc: dc}, nil
}

func (t *pionTransport) OnDataChannel(fn func(DataChannel)) {
	t.pc.OnDataChannel(func(dc *pion.DataChannel) {
		fn(&pionDataChannel{dc: dc})
	})
}

func (t *pionTransport) OnStateChange(fn func(ConnectionState)) {
	t.pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		switch state {
		case pion.PeerConnectionStateConnected:
			fn(StateConnectedOK)
		case pion.PeerConnectionStateDisconnected,
			pion.PeerConnectionStateFailed,
			pion.PeerConnectionStateClosed:
			fn(StateDisconnected)
		default:
			fn(StateConnecting)
		}
	})
}

func (t *pionTransport) Close() error {
	return t.pc.Close()
}

type pionDataChannel struct {
	dc *pion.DataChannel
}

func (d *pionDataChannel) Label() string { return d.dc.Label() }

func (d *pionDataChannel) Send(data []byte) error {
	return d.dc.Send(data)
}

func (d *pionDataChannel) OnOpen(fn func())  { d.dc.OnOpen(fn) }
func (d *pionDataChannel) OnClose(fn func()) { d.dc.OnClose(fn) }

func (d *pionDataChannel) OnMessage(fn func([]byte)) {
	d.dc.OnMessage(func(msg pion.DataChannelMessage) {
		fn(msg.Data)
	})
}

func (d *pionDataChannel) Close() error { return d.dc.Close() }
