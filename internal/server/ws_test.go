package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

// newTestServer starts a hub and a websocket endpoint for it.
func newTestServer(t *testing.T) string {
	t.Helper()

	hub := signaling.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWs(hub))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg signaling.Message) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// recv reads the next message, failing the test after a short deadline.
func recv(t *testing.T, conn *websocket.Conn) signaling.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg signaling.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

// recvType reads the next message and asserts its type.
func recvType(t *testing.T, conn *websocket.Conn, want signaling.MessageType) signaling.Message {
	t.Helper()
	msg := recv(t, conn)
	if msg.Type != want {
		t.Fatalf("got message type %q, want %q", msg.Type, want)
	}
	return msg
}

// expectSilence asserts that no message arrives within the window.
func expectSilence(t *testing.T, conn *websocket.Conn, window time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(window))
	var msg signaling.Message
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected no message, got %q", msg.Type)
	}
}

// createRoom drives the create flow and returns the room code.
func createRoom(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	send(t, conn, signaling.Message{Type: signaling.TypeCreateRoom})
	created := recvType(t, conn, signaling.TypeRoomCreated)
	joined := recvType(t, conn, signaling.TypePlayerJoined)
	if joined.PlayerCount != 1 {
		t.Fatalf("creator playerCount = %d, want 1", joined.PlayerCount)
	}
	if joined.IsHost == nil || !*joined.IsHost {
		t.Fatalf("creator should be tagged as host")
	}
	return created.RoomID
}

func TestCreateAndJoinRoom(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	if len(code) != 6 {
		t.Fatalf("room code %q should be 6 characters", code)
	}
	if code != signaling.NormalizeCode(code) {
		t.Fatalf("room code %q is not case-normalized", code)
	}

	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})

	aJoined := recvType(t, a, signaling.TypePlayerJoined)
	bJoined := recvType(t, b, signaling.TypePlayerJoined)

	if aJoined.PlayerCount != 2 || bJoined.PlayerCount != 2 {
		t.Fatalf("playerCount = %d/%d, want 2/2", aJoined.PlayerCount, bJoined.PlayerCount)
	}
	if aJoined.IsHost == nil || !*aJoined.IsHost {
		t.Fatal("creator should be the host")
	}
	if bJoined.IsHost == nil || *bJoined.IsHost {
		t.Fatal("joiner should not be the host")
	}
	if aJoined.IsNewPlayer == nil || *aJoined.IsNewPlayer {
		t.Fatal("creator should not be flagged as the new player")
	}
	if bJoined.IsNewPlayer == nil || !*bJoined.IsNewPlayer {
		t.Fatal("joiner should be flagged as the new player")
	}
}

func TestJoinCaseInsensitive(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: strings.ToLower(code)})

	joined := recvType(t, b, signaling.TypePlayerJoined)
	if joined.RoomID != code {
		t.Fatalf("joined room %q, want %q", joined.RoomID, code)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	url := newTestServer(t)

	b := dial(t, url)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: "ZZZZZZ"})

	msg := recvType(t, b, signaling.TypeError)
	if msg.ErrorText != "Room not found" {
		t.Fatalf("error message = %q, want %q", msg.ErrorText, "Room not found")
	}
}

func TestThirdJoinGetsRoomFull(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)
	c := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, a, signaling.TypePlayerJoined)
	recvType(t, b, signaling.TypePlayerJoined)

	send(t, c, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, c, signaling.TypeRoomFull)

	// The existing occupants are unaffected.
	expectSilence(t, a, 150*time.Millisecond)
	expectSilence(t, b, 150*time.Millisecond)
}

func TestDuplicateJoinIsIdempotent(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, a, signaling.TypePlayerJoined)
	recvType(t, b, signaling.TypePlayerJoined)

	// Rejoining the same room from the same connection must not
	// consume a second slot or re-broadcast.
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	expectSilence(t, a, 150*time.Millisecond)

	send(t, b, signaling.Message{Type: signaling.TypeGetRoomStatus, RoomID: code})
	status := recvType(t, b, signaling.TypeRoomStatus)
	if status.PlayerCount != 2 {
		t.Fatalf("playerCount after duplicate join = %d, want 2", status.PlayerCount)
	}
}

func TestRelayNeverEchoesToSender(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, a, signaling.TypePlayerJoined)
	recvType(t, b, signaling.TypePlayerJoined)

	for _, typ := range []signaling.MessageType{
		signaling.TypeOffer,
		signaling.TypeAnswer,
		signaling.TypeICECandidate,
	} {
		payload := json.RawMessage(`{"sdp":"` + string(typ) + `"}`)
		send(t, a, signaling.Message{Type: typ, RoomID: code, Data: payload})

		got := recvType(t, b, typ)
		if string(got.Data) != string(payload) {
			t.Fatalf("%s payload = %s, want %s", typ, got.Data, payload)
		}
		expectSilence(t, a, 100*time.Millisecond)
	}
}

func TestRelayPreservesOrder(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, a, signaling.TypePlayerJoined)
	recvType(t, b, signaling.TypePlayerJoined)

	send(t, a, signaling.Message{Type: signaling.TypeOffer, RoomID: code, Data: json.RawMessage(`{"seq":0}`)})
	for i := 1; i <= 5; i++ {
		data, _ := json.Marshal(map[string]int{"seq": i})
		send(t, a, signaling.Message{Type: signaling.TypeICECandidate, RoomID: code, Data: data})
	}

	recvType(t, b, signaling.TypeOffer)
	for i := 1; i <= 5; i++ {
		got := recvType(t, b, signaling.TypeICECandidate)
		var body struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(got.Data, &body); err != nil {
			t.Fatalf("bad candidate payload: %v", err)
		}
		if body.Seq != i {
			t.Fatalf("candidates reordered: got seq %d, want %d", body.Seq, i)
		}
	}
}

func TestRelayOutsideRoomIsDropped(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	send(t, a, signaling.Message{Type: signaling.TypeOffer, Data: json.RawMessage(`{}`)})
	expectSilence(t, a, 150*time.Millisecond)
}

func TestPlayerLeftOnDisconnect(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, a, signaling.TypePlayerJoined)
	recvType(t, b, signaling.TypePlayerJoined)

	b.Close()

	left := recvType(t, a, signaling.TypePlayerLeft)
	if left.PlayerCount != 1 {
		t.Fatalf("playerCount after leave = %d, want 1", left.PlayerCount)
	}
}

func TestRoomDeletedWhenEmpty(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	code := createRoom(t, a)
	a.Close()

	// Give the hub a moment to process the disconnect.
	time.Sleep(100 * time.Millisecond)

	c := dial(t, url)
	send(t, c, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	msg := recvType(t, c, signaling.TypeError)
	if msg.ErrorText != "Room not found" {
		t.Fatalf("error message = %q, want %q", msg.ErrorText, "Room not found")
	}
}

func TestRoomStatusSnapshot(t *testing.T) {
	url := newTestServer(t)

	a := dial(t, url)
	b := dial(t, url)

	code := createRoom(t, a)
	send(t, b, signaling.Message{Type: signaling.TypeJoinRoom, RoomID: code})
	recvType(t, a, signaling.TypePlayerJoined)
	recvType(t, b, signaling.TypePlayerJoined)

	send(t, b, signaling.Message{Type: signaling.TypeGetRoomStatus, RoomID: code})
	status := recvType(t, b, signaling.TypeRoomStatus)
	if status.RoomID != code || status.PlayerCount != 2 {
		t.Fatalf("status = %+v, want room %s with 2 players", status, code)
	}
	if status.IsHost == nil || *status.IsHost {
		t.Fatal("joiner's status should not be tagged host")
	}

	send(t, a, signaling.Message{Type: signaling.TypeGetRoomStatus, RoomID: code})
	status = recvType(t, a, signaling.TypeRoomStatus)
	if status.IsHost == nil || !*status.IsHost {
		t.Fatal("creator's status should be tagged host")
	}
}
