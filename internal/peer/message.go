package peer

import "github.com/vmihailenco/msgpack/v5"

// Application message kinds carried over the data channel. The session
// never interprets their payloads; it only guarantees ordered, reliable
// delivery once the channel is open.
const (
	MsgWordSelect = "word-select"
	MsgGuess      = "guess"
	MsgChat       = "chat"
	MsgTyping     = "typing"
	MsgGameOver   = "game-over"
)

// Internal liveness frames. These are consumed by the keep-alive
// monitor and never surfaced to the application.
const (
	msgProbe = "probe"
	msgAck   = "ack"
)

// Message represents all data channel messages
type Message struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// NewMessage creates a new Message with the given type and payload
func NewMessage(t string, payload any) (Message, error) {
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Type:    t,
		Payload: b,
	}, nil
}

// DecodePayload decodes the message payload into the provided struct
func (m Message) DecodePayload(v any) error {
	return msgpack.Unmarshal(m.Payload, v)
}

// encodeMessage serializes a full envelope for the wire.
func encodeMessage(m Message) ([]byte, error) {
	return msgpack.Marshal(m)
}

// decodeMessage parses an envelope off the wire.
func decodeMessage(b []byte) (Message, error) {
	var m Message
	err := msgpack.Unmarshal(b, &m)
	return m, err
}

// internal reports whether the message kind belongs to the keep-alive
// protocol rather than the application.
func (m Message) internal() bool {
	return m.Type == msgProbe || m.Type == msgAck
}
