// Package signaling implements the room registry and wire protocol for
// pairing two players and relaying their connection handshake.
package signaling

import (
	"context"
	"log/slog"
	"time"
)

// Hub is the central brain of the signaling server. It owns every room
// and processes all room mutations on a single goroutine, so no two
// operations on the same room can ever interleave.
type Hub struct {
	// rooms maps room codes to Room instances.
	rooms map[string]*Room

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbox carries every message read from any client into the
	// hub's run loop for processing.
	Inbox chan *Message
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbox:      make(chan *Message),
	}
}

// Run starts the hub's main processing loop. It is the single goroutine
// that safely manages all state (rooms, clients) and returns when ctx
// is cancelled, closing every client's send channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for _, c := range room.Occupants {
					close(c.Send)
				}
			}
			h.rooms = make(map[string]*Room)
			return

		case client := <-h.Register:
			// The client is not in a room yet; they need to send a
			// create-room or join-room message first.
			slog.Debug("client registered", "id", client.ID)

		case client := <-h.Unregister:
			h.leave(client)
			close(client.Send)

		case msg := <-h.Inbox:
			h.dispatch(msg)
		}
	}
}

// dispatch is the core signaling logic, called once per inbound message.
func (h *Hub) dispatch(msg *Message) {
	switch {
	case msg.Type == TypeCreateRoom:
		h.createRoom(msg.client)
	case msg.Type == TypeJoinRoom:
		h.joinRoom(msg.client, NormalizeCode(msg.RoomID))
	case msg.Type == TypeGetRoomStatus:
		h.roomStatus(msg.client, NormalizeCode(msg.RoomID))
	case IsRelay(msg.Type):
		h.relay(msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type)
	}
}

// createRoom allocates a fresh room with the requester in slot 0. The
// creator also receives a player-joined event for itself so the client
// state machine is symmetric regardless of occupant count.
func (h *Hub) createRoom(client *Client) {
	if !client.limiter.Allow() {
		client.Send <- &Message{Type: TypeError, ErrorText: "Too many rooms requested"}
		return
	}

	// A connection holds at most one room; creating a new one
	// implicitly leaves the old.
	if client.RoomID != "" {
		h.leave(client)
	}

	code := h.generateCode()
	room := &Room{
		ID:        code,
		Occupants: []*Client{client},
		CreatedAt: time.Now(),
	}
	h.rooms[code] = room
	client.RoomID = code

	slog.Info("room created", "room", code)

	client.Send <- &Message{Type: TypeRoomCreated, RoomID: code}
	client.Send <- &Message{
		Type:        TypePlayerJoined,
		RoomID:      code,
		PlayerCount: 1,
		IsHost:      boolPtr(true),
		IsNewPlayer: boolPtr(true),
	}
}

// joinRoom adds the requester to the next free slot and broadcasts
// player-joined to every occupant. The isHost tag is computed per
// recipient from its own slot, never globally.
func (h *Hub) joinRoom(client *Client, code string) {
	room, ok := h.rooms[code]
	if !ok {
		slog.Info("join failed, room not found", "room", code)
		client.Send <- &Message{Type: TypeError, ErrorText: "Room not found"}
		return
	}

	// Idempotent: a rejoin from the same connection must not consume
	// a second slot.
	if room.Has(client) {
		slog.Debug("duplicate join ignored", "room", code, "id", client.ID)
		return
	}

	if room.Full() {
		slog.Info("join failed, room full", "room", code)
		client.Send <- &Message{Type: TypeRoomFull}
		return
	}

	if client.RoomID != "" {
		h.leave(client)
	}

	room.Occupants = append(room.Occupants, client)
	client.RoomID = code

	slog.Info("player joined", "room", code, "players", len(room.Occupants))

	for _, occ := range room.Occupants {
		occ.Send <- &Message{
			Type:        TypePlayerJoined,
			RoomID:      code,
			PlayerCount: len(room.Occupants),
			IsHost:      boolPtr(room.Slot(occ) == 0),
			IsNewPlayer: boolPtr(occ.ID == client.ID),
		}
	}
}

// roomStatus answers a synchronous membership snapshot. A client that
// reconnects to an already-paired room uses this to recover its role
// without re-running join.
func (h *Hub) roomStatus(client *Client, code string) {
	room, ok := h.rooms[code]
	if !ok {
		client.Send <- &Message{Type: TypeError, ErrorText: "Room not found"}
		return
	}

	client.Send <- &Message{
		Type:        TypeRoomStatus,
		RoomID:      code,
		PlayerCount: len(room.Occupants),
		IsHost:      boolPtr(room.Slot(client) == 0),
	}
}

// relay forwards a handshake message verbatim to every other occupant
// of the sender's room. The payload is never inspected, and it is never
// echoed back to the sender: a sender applying its own offer as a
// remote description would corrupt its handshake state machine.
func (h *Hub) relay(msg *Message) {
	client := msg.client
	if client.RoomID == "" {
		slog.Debug("relay dropped, client not in a room", "type", msg.Type)
		return
	}

	room, ok := h.rooms[client.RoomID]
	if !ok {
		slog.Debug("relay dropped, room gone", "room", client.RoomID)
		return
	}

	for _, other := range room.Others(client) {
		other.Send <- &Message{
			Type:   msg.Type,
			RoomID: room.ID,
			Data:   msg.Data,
		}
	}
}

// leave removes the client from its room, deleting the room when it
// empties and notifying survivors otherwise.
func (h *Hub) leave(client *Client) {
	if client.RoomID == "" {
		return
	}

	room, ok := h.rooms[client.RoomID]
	client.RoomID = ""
	if !ok || !room.remove(client) {
		return
	}

	if len(room.Occupants) == 0 {
		delete(h.rooms, room.ID)
		slog.Info("room deleted", "room", room.ID)
		return
	}

	slog.Info("player left", "room", room.ID, "players", len(room.Occupants))
	for _, occ := range room.Occupants {
		occ.Send <- &Message{
			Type:        TypePlayerLeft,
			PlayerCount: len(room.Occupants),
		}
	}
}
