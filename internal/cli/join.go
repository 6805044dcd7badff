package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdunham2/dunhamwordle-sub000/internal/peer"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signaling"
)

var joinCmd = &cobra.Command{
	Use:   "join CODE",
	Short: "Join a room by its code and play",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := signaling.NormalizeCode(args[0])

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		sup := newSupervisor(cfg)
		client, err := sup.Acquire(ctx)
		if err != nil {
			return err
		}
		defer sup.Release()

		// The session must exist, with its relay subscriptions in
		// place, before the join request goes out: the host's offer can
		// arrive at any moment after the registry pairs the room.
		session := peer.NewSession(peer.Responder, code, client, func() (peer.Transport, error) {
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

		joined := make(chan error, 1)
		report := func(err error) {
			select {
			case joined <- err:
			default:
			}
		}
		subJoined := client.On(signaling.TypePlayerJoined, func(m *signaling.Message) {
			if m.RoomID == code {
				report(nil)
			}
		})
		defer client.Off(subJoined)
		subFull := client.On(signaling.TypeRoomFull, func(m *signaling.Message) {
			report(fmt.Errorf("room %s is full", code))
		})
		defer client.Off(subFull)
		subErr := client.On(signaling.TypeError, func(m *signaling.Message) {
			report(fmt.Errorf("%s", m.ErrorText))
		})
		defer client.Off(subErr)

		client.JoinRoom(code)

		select {
		case err := <-joined:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}

		fmt.Printf("Joined room %s, connecting to host...\n", code)
		return playDuel(ctx, session, "")
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}
