// Package cli wires the cobra command tree for the wordduel client.
package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jdunham2/dunhamwordle-sub000/internal/config"
	"github.com/jdunham2/dunhamwordle-sub000/internal/logging"
	"github.com/jdunham2/dunhamwordle-sub000/internal/signalclient"
)

var (
	flagDomain string
	flagServer string
	flagSTUN   string
	flagTURN   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wordduel",
	Short: "Two-player real-time word duel over a peer-to-peer data channel",
	Long: `wordduel pairs two players through a signaling server, negotiates a
direct peer-to-peer connection between them, and runs a word-guessing
duel over the resulting data channel. One player hosts and picks the
word; the other joins with the room code and guesses.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDomain, "domain", "", "signaling server domain")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "full signaling websocket URL (overrides --domain)")
	rootCmd.PersistentFlags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURN, "turn", "", "TURN server URL")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	logging.Init()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		cobra.CheckErr(err)
	}
}

// loadConfig resolves configuration from flags, env, and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		Domain:     flagDomain,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
	})
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.WebSocketURL = flagServer
	}
	return cfg, nil
}

// newSupervisor builds the shared-channel supervisor for cfg.
func newSupervisor(cfg *config.Config) *signalclient.Supervisor {
	return signalclient.NewSupervisor(func(ctx context.Context) (*signalclient.Client, error) {
		c := signalclient.NewClient(cfg.WebSocketURL)
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
		return c, nil
	})
}

// signalContext returns a context cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
