package config

import (
	"fmt"
	"os"
	"time"
)

// Default configuration values (production)
const (
	DefaultDomain = "duel.dunhamwordle.app"
	DefaultSTUN   = "stun:stun.l.google.com:19302"
	DefaultTURN   = "" // Optional, empty by default
	DefaultListen = ":8080"

	// Keep-alive probe cadence on the data channel and the age at which
	// the session reports the connection as possibly stale.
	DefaultProbeInterval  = 5 * time.Second
	DefaultStaleThreshold = 15 * time.Second

	// Grace interval the initiator waits after pairing before sending
	// its offer, so the responder can finish subscribing to relay events.
	DefaultOfferGrace = 500 * time.Millisecond
)

// Config holds application configuration
type Config struct {
	// Domain is the signaling server domain
	Domain string

	// WebSocketURL is constructed from domain
	WebSocketURL string

	// Listen is the server bind address
	Listen string

	// ICE servers for WebRTC
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	ProbeInterval  time.Duration
	StaleThreshold time.Duration
	OfferGrace     time.Duration
}

// Options for loading config with CLI flag overrides
type Options struct {
	Domain     string
	Listen     string
	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string
}

// Load reads configuration with the following priority:
// 1. CLI flags (passed via Options) - highest priority
// 2. Environment variables
// 3. Hardcoded defaults - lowest priority
func Load(opts Options) (*Config, error) {
	domain := firstOf(opts.Domain, os.Getenv("DOMAIN"), DefaultDomain)
	listen := firstOf(opts.Listen, os.Getenv("LISTEN_ADDR"), DefaultListen)
	stunServer := firstOf(opts.STUNServer, os.Getenv("STUN_SERVER"), DefaultSTUN)
	turnServer := firstOf(opts.TURNServer, os.Getenv("TURN_SERVER"), DefaultTURN)
	turnUser := firstOf(opts.TURNUser, os.Getenv("TURN_USERNAME"), "")
	turnPass := firstOf(opts.TURNPass, os.Getenv("TURN_PASSWORD"), "")

	return &Config{
		Domain:         domain,
		WebSocketURL:   fmt.Sprintf("wss://%s/ws", domain),
		Listen:         listen,
		STUNServer:     stunServer,
		TURNServer:     turnServer,
		TURNUser:       turnUser,
		TURNPass:       turnPass,
		ProbeInterval:  DefaultProbeInterval,
		StaleThreshold: DefaultStaleThreshold,
		OfferGrace:     DefaultOfferGrace,
	}, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetSTUNServers returns STUN server URLs as strings
func (c *Config) GetSTUNServers() []string {
	return []string{c.STUNServer}
}

// GetTURNServers returns TURN server URLs if configured
func (c *Config) GetTURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// GetTURNCredentials returns TURN username and password
func (c *Config) GetTURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
