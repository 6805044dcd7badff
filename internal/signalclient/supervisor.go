package signalclient

import (
	"context"
	"log/slog"
	"sync"
)

// Supervisor owns the one signaling Client shared by every UI consumer
// during a logical multiplayer session. Consumers come and go (a lobby
// screen hands off to a game screen); the channel is torn down only
// when the usage count reaches zero and no keep-alive override is set.
//
// Without this, the dominant failure mode is a transitional consumer
// releasing the channel before its successor acquires it, destroying
// the room mid-handoff.
type Supervisor struct {
	mu        sync.Mutex
	factory   func(ctx context.Context) (*Client, error)
	client    *Client
	refs      int
	keepAlive bool
}

// NewSupervisor creates a supervisor that builds the shared channel
// lazily with factory on first Acquire.
func NewSupervisor(factory func(ctx context.Context) (*Client, error)) *Supervisor {
	return &Supervisor{factory: factory}
}

// Acquire returns the shared channel, creating and connecting it if no
// consumer currently holds one, and increments the usage count.
func (s *Supervisor) Acquire(ctx context.Context) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		client, err := s.factory(ctx)
		if err != nil {
			return nil, err
		}
		s.client = client
	}

	s.refs++
	slog.Debug("signaling channel acquired", "refs", s.refs)
	return s.client, nil
}

// Release decrements the usage count, never below zero, and tears the
// shared channel down once the count reaches zero with no keep-alive
// override in force.
func (s *Supervisor) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs > 0 {
		s.refs--
	}
	slog.Debug("signaling channel released", "refs", s.refs)
	s.teardownLocked()
}

// SetKeepAlive toggles the teardown override. It is set during known
// handoff windows so the count momentarily reaching zero does not kill
// the channel; clearing it applies any deferred teardown.
func (s *Supervisor) SetKeepAlive(keep bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keepAlive = keep
	s.teardownLocked()
}

// Refs reports the current usage count.
func (s *Supervisor) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Active reports whether a shared channel currently exists.
func (s *Supervisor) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

func (s *Supervisor) teardownLocked() {
	if s.refs > 0 || s.keepAlive || s.client == nil {
		return
	}
	slog.Info("tearing down shared signaling channel")
	s.client.Close()
	s.client = nil
}
