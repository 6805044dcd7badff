package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdunham2/dunhamwordle-sub000/internal/game"
	"github.com/jdunham2/dunhamwordle-sub000/internal/peer"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signalclient"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

var hostWord string

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Create a room and host a duel",
	Long: `Creates a room on the signaling server, prints the join code, and
waits for an opponent. Once paired, the host initiates the peer
connection and announces the word to be guessed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		word := hostWord
		if word == "" {
			word = game.RandomWord()
		} else if len(word) < 3 {
			return fmt.Errorf("need a word of at least 3 letters, got %q", word)
		} else if !game.IsKnown(word) {
			fmt.Printf("Note: %q is not in the built-in word list.\n", word)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		sup := newSupervisor(cfg)

		// Lobby phase: create the room and learn its code.
		roomID, err := createRoom(ctx, sup)
		if err != nil {
			return err
		}
		fmt.Printf("Room code: %s\n", roomID)
		fmt.Println("Waiting for an opponent...")

		// The lobby released its hold above; keep-alive carried the
		// channel across the handoff. The game phase now owns it.
		client, err := sup.Acquire(ctx)
		if err != nil {
			return err
		}
		defer sup.Release()
		sup.SetKeepAlive(false)

		session := peer.NewSession(peer.Initiator, roomID, client, func() (peer.Transport, error) {
			return peer.NewTransport(cfg)
		}, peer.Options{
			OfferGrace:     cfg.OfferGrace,
			ProbeInterval:  cfg.ProbeInterval,
			StaleThreshold: cfg.StaleThreshold,
		})
		if err := session.Start(); err != nil {
			return err
		}
		defer session.Shutdown()

		return playDuel(ctx, session, word)
	},
}

func init() {
	hostCmd.Flags().StringVar(&hostWord, "word", "", "the word the opponent must guess (random if omitted)")
	rootCmd.AddCommand(hostCmd)
}

// createRoom runs the lobby phase on its own channel hold. It sets the
// keep-alive override before releasing so the shared channel survives
// the handoff to the game phase even though the count reaches zero.
func createRoom(ctx context.Context, sup *signalclient.Supervisor) (string, error) {
	client, err := sup.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		sup.SetKeepAlive(true)
		sup.Release()
	}()

	created := make(chan string, 1)
	sub := client.On(signaling.TypeRoomCreated, func(m *signaling.Message) {
		select {
		case created <- m.RoomID:
		default:
		}
	})
	defer client.Off(sub)

	client.CreateRoom()

	select {
	case roomID := <-created:
		return roomID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
