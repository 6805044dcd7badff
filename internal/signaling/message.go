package signaling

import "encoding/json"

// MessageType identifies a signaling message on the wire.
type MessageType string

// Client-to-server requests.
const (
	TypeCreateRoom    MessageType = "create-room"
	TypeJoinRoom      MessageType = "join-room"
	TypeGetRoomStatus MessageType = "get-room-status"
)

// Server-to-client room lifecycle events.
const (
	TypeRoomCreated  MessageType = "room-created"
	TypePlayerJoined MessageType = "player-joined"
	TypePlayerLeft   MessageType = "player-left"
	TypeRoomFull     MessageType = "room-full"
	TypeRoomStatus   MessageType = "room-status"
	TypeError        MessageType = "error"
)

// Relay messages. The server forwards these verbatim to the other room
// occupant and never inspects Data.
const (
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeICECandidate MessageType = "ice-candidate"
)

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket messages.
type Message struct {
	Type        MessageType     `json:"type"`
	RoomID      string          `json:"roomId,omitempty"`
	PlayerCount int             `json:"playerCount,omitempty"`
	IsHost      *bool           `json:"isHost,omitempty"`
	IsNewPlayer *bool           `json:"isNewPlayer,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	ErrorText   string          `json:"message,omitempty"`

	// client is the connection that sent the message.
	// It's used internally by the Hub and not sent over JSON.
	client *Client `json:"-"`
}

// IsRelay reports whether the message type is forwarded opaquely
// between room occupants.
func IsRelay(t MessageType) bool {
	return t == TypeOffer || t == TypeAnswer || t == TypeICECandidate
}

func boolPtr(b bool) *bool { return &b }
