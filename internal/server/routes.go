package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

// Configure the websocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024, // 64 KB
	WriteBufferSize: 64 * 1024, // 64 KB

	// In production you'd check r.Header.Get("Origin") against the
	// frontend's domain.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("failed to upgrade connection", "error", err)
			return
		}

		client := signaling.NewClient(hub, conn)
		client.Hub.Register <- client

		// Start the client's read and write pumps in separate goroutines.
		// These handle the connection's whole lifecycle.
		go client.WritePump()
		go client.ReadPump()
	}
}

// HealthHandler reports liveness for load balancers.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}
