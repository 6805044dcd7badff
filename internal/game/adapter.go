package game

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/jdunham2/dunhamwordle-sub000/internal/peer"
)

// Payload shapes carried inside the data channel envelope. The session
// treats them as opaque; only adapters on either end interpret them.
type (
	WordSelectPayload struct {
		Word string `msgpack:"word"`
	}
	GuessPayload struct {
		Guess string `msgpack:"guess"`
	}
	ChatPayload struct {
		Text string `msgpack:"text"`
	}
	TypingPayload struct {
		Typing bool `msgpack:"typing"`
	}
	GameOverPayload struct {
		Status string `msgpack:"status"`
	}
)

var (
	ErrNoSolution   = errors.New("no word selected yet")
	ErrGameFinished = errors.New("game already finished")
	ErrOutOfGuesses = errors.New("out of guesses")
)

// Events receives decoded game activity from the remote peer. Nil
// handlers are skipped.
type Events struct {
	OnWordSelected func(word string)
	OnGuess        func(guess string, marks []Mark)
	OnChat         func(text string)
	OnTyping       func(typing bool)
	OnGameOver     func(status peer.GameStatus)
}

// Adapter translates between the peer session's opaque message stream
// and game actions. It also owns the session's game status, which is
// what gates teardown: the session closes when the game ends, not when
// a screen unmounts.
type Adapter struct {
	session *peer.Session
	events  Events

	mu       sync.Mutex
	solution string
	guesses  []string
	finished bool
}

// NewAdapter wires the adapter onto the session's message stream.
func NewAdapter(session *peer.Session, events Events) *Adapter {
	a := &Adapter{session: session, events: events}
	session.OnMessage(a.dispatch)
	return a
}

// SelectWord makes this side the word source and announces the word.
func (a *Adapter) SelectWord(word string) error {
	word = strings.ToUpper(strings.TrimSpace(word))

	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return ErrGameFinished
	}
	a.solution = word
	a.mu.Unlock()

	return a.send(peer.MsgWordSelect, WordSelectPayload{Word: word})
}

// SubmitGuess scores a local guess and broadcasts it to the peer.
func (a *Adapter) SubmitGuess(guess string) ([]Mark, error) {
	guess = strings.ToUpper(strings.TrimSpace(guess))

	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return nil, ErrGameFinished
	}
	if a.solution == "" {
		a.mu.Unlock()
		return nil, ErrNoSolution
	}
	if len(a.guesses) >= MaxGuesses {
		a.mu.Unlock()
		return nil, ErrOutOfGuesses
	}
	solution := a.solution
	a.mu.Unlock()

	marks, err := Evaluate(solution, guess)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.guesses = append(a.guesses, guess)
	used := len(a.guesses)
	a.mu.Unlock()

	if err := a.send(peer.MsgGuess, GuessPayload{Guess: guess}); err != nil {
		return marks, err
	}

	switch {
	case Won(solution, guess):
		return marks, a.Finish(peer.StatusWon)
	case used >= MaxGuesses:
		return marks, a.Finish(peer.StatusLost)
	}
	return marks, nil
}

// SendChat forwards a chat line to the peer.
func (a *Adapter) SendChat(text string) error {
	return a.send(peer.MsgChat, ChatPayload{Text: text})
}

// SetTyping forwards the typing indicator.
func (a *Adapter) SetTyping(typing bool) error {
	return a.send(peer.MsgTyping, TypingPayload{Typing: typing})
}

// Finish records the terminal status, tells the peer, and closes the
// session. This is the only routine path to teardown.
func (a *Adapter) Finish(status peer.GameStatus) error {
	a.mu.Lock()
	if a.finished {
		a.mu.Unlock()
		return nil
	}
	a.finished = true
	a.mu.Unlock()

	// Announce before closing so the game-over frame gets out.
	if err := a.send(peer.MsgGameOver, GameOverPayload{Status: string(status)}); err != nil {
		slog.Debug("failed to announce game over", "error", err)
	}

	a.session.SetGameStatus(status)
	return a.session.Close()
}

func (a *Adapter) send(kind string, payload any) error {
	msg, err := peer.NewMessage(kind, payload)
	if err != nil {
		return err
	}
	return a.session.SendMessage(msg)
}

// dispatch decodes one inbound application message and routes it.
func (a *Adapter) dispatch(m peer.Message) {
	switch m.Type {
	case peer.MsgWordSelect:
		var p WordSelectPayload
		if err := m.DecodePayload(&p); err != nil {
			slog.Error("malformed word-select", "error", err)
			return
		}
		a.mu.Lock()
		a.solution = strings.ToUpper(p.Word)
		a.mu.Unlock()
		if a.events.OnWordSelected != nil {
			a.events.OnWordSelected(p.Word)
		}

	case peer.MsgGuess:
		var p GuessPayload
		if err := m.DecodePayload(&p); err != nil {
			slog.Error("malformed guess", "error", err)
			return
		}
		a.mu.Lock()
		solution := a.solution
		a.mu.Unlock()
		var marks []Mark
		if solution != "" {
			marks, _ = Evaluate(solution, p.Guess)
		}
		if a.events.OnGuess != nil {
			a.events.OnGuess(p.Guess, marks)
		}

	case peer.MsgChat:
		var p ChatPayload
		if err := m.DecodePayload(&p); err != nil {
			return
		}
		if a.events.OnChat != nil {
			a.events.OnChat(p.Text)
		}

	case peer.MsgTyping:
		var p TypingPayload
		if err := m.DecodePayload(&p); err != nil {
			return
		}
		if a.events.OnTyping != nil {
			a.events.OnTyping(p.Typing)
		}

	case peer.MsgGameOver:
		var p GameOverPayload
		if err := m.DecodePayload(&p); err != nil {
			slog.Error("malformed game-over", "error", err)
			return
		}
		status := peer.GameStatus(p.Status)

		a.mu.Lock()
		already := a.finished
		a.finished = true
		a.mu.Unlock()

		a.session.SetGameStatus(status)
		if a.events.OnGameOver != nil {
			a.events.OnGameOver(status)
		}
		if !already {
			if err := a.session.Close(); err != nil {
				slog.Debug("close after game over failed", "error", err)
			}
		}

	default:
		slog.Warn("unknown game message", "type", m.Type)
	}
}
