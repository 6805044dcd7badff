package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jdunham2/dunhamwordle-sub000/internal/game"
	"github.com/jdunham2/dunhamwordle-sub000/internal/peer"
)

// playDuel runs the interactive game loop over an established session.
// A non-empty word makes this side the word source; the other side
// types guesses. Lines starting with "/chat " go to the peer as chat.
func playDuel(ctx context.Context, session *peer.Session, word string) error {
	connected := make(chan struct{}, 1)
	dropped := make(chan struct{}, 1)
	session.OnConnectionStateChange(func(state peer.ConnectionState) {
		switch state {
		case peer.StateConnectedOK:
			select {
			case connected <- struct{}{}:
			default:
			}
		case peer.StateDisconnected:
			select {
			case dropped <- struct{}{}:
			default:
			}
		}
	})

	over := make(chan peer.GameStatus, 1)
	adapter := game.NewAdapter(session, game.Events{
		OnWordSelected: func(w string) {
			fmt.Printf("Host picked a %d-letter word. Start guessing!\n", len(w))
		},
		OnGuess: func(guess string, marks []game.Mark) {
			fmt.Printf("peer guessed %s  %s\n", guess, renderMarks(guess, marks))
		},
		OnChat: func(text string) {
			fmt.Printf("[chat] %s\n", text)
		},
		OnTyping: func(typing bool) {
			if typing {
				fmt.Println("peer is typing...")
			}
		},
		OnGameOver: func(status peer.GameStatus) {
			select {
			case over <- status:
			default:
			}
		},
	})

	select {
	case <-connected:
	case <-dropped:
		return peer.ErrPeerDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
	fmt.Println("Connected.")

	if word != "" {
		if err := adapter.SelectWord(word); err != nil {
			return err
		}
		fmt.Println("Word sent. Watch the guesses roll in.")
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case status := <-over:
			fmt.Printf("Game over: %s\n", status)
			return nil

		case <-dropped:
			fmt.Println("Connection lost.")
			return peer.ErrPeerDisconnected

		case <-ctx.Done():
			return session.Shutdown()

		case line, ok := <-lines:
			if !ok {
				return session.Shutdown()
			}
			if err := handleLine(adapter, word == "", line); err != nil {
				fmt.Println(err)
			}
		}
	}
}

func handleLine(adapter *game.Adapter, guesser bool, line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "/chat "):
		return adapter.SendChat(strings.TrimPrefix(line, "/chat "))
	case guesser:
		marks, err := adapter.SubmitGuess(line)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", strings.ToUpper(line), renderMarks(line, marks))
		return nil
	default:
		return adapter.SendChat(line)
	}
}

// renderMarks shows a guess result as one rune per letter.
func renderMarks(guess string, marks []game.Mark) string {
	if len(marks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range marks {
		switch m {
		case game.Correct:
			b.WriteRune('#')
		case game.Present:
			b.WriteRune('+')
		default:
			b.WriteRune('.')
		}
	}
	return b.String()
}
