package signaling

import (
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"
)

// Room codes are short enough to read over a voice call and type on a
// phone. The alphabet drops 0/O/1/I to avoid transcription mistakes.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// NormalizeCode canonicalizes user-entered room codes. Codes are
// case-insensitive on the way in and upper-case everywhere else.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode creates a random room code that is not already in use.
func (h *Hub) generateCode() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[randomIndex(len(codeAlphabet))]
		}
		code := string(b)

		if _, ok := h.rooms[code]; !ok {
			return code
		}
	}
}

// randomIndex returns a cryptographically secure random index for a slice of given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		slog.Error("failed to generate random index", "error", err)
		panic(err)
	}
	return int(n.Int64())
}
