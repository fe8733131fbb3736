// Package lifecycle owns the coordination-service connection: initial
// connect, the session-state listener, and the reconnect driver that
// fires on session loss.
package lifecycle

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
)

// connectAttempt is how long each BlockUntilConnected attempt waits
// before the loop re-arms.
const connectAttempt = 5 * time.Second

var ErrShutdown = errors.New("lifecycle: shut down")

// Manager drives the connection. Start blocks until the first session is
// established; afterwards a background task re-runs the connect loop
// whenever the session is lost. Shutdown stops the listener and the
// reconnect task before closing the client.
type Manager struct {
	client coord.Client

	// restart holds at most one pending reconnect signal; further
	// session-loss events while one is pending collapse into it.
	restart chan struct{}
	kill    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	// attempt is connectAttempt, shortened by tests.
	attempt time.Duration
}

func New(client coord.Client) *Manager {
	return &Manager{
		client:  client,
		restart: make(chan struct{}, 1),
		kill:    make(chan struct{}),
		attempt: connectAttempt,
	}
}

// Start connects, retrying in connectAttempt slices until the session is
// up or ctx is canceled, then installs the listener and reconnect task.
func (m *Manager) Start(ctx context.Context) error {
	for !m.client.BlockUntilConnected(m.attempt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.kill:
			return ErrShutdown
		default:
			debug.Logf("lifecycle: still waiting for session\n")
		}
	}
	m.wg.Add(2)
	go m.listen()
	go m.reconnectLoop()
	return nil
}

// listen consumes session-state transitions and enqueues a reconnect
// signal on loss.
func (m *Manager) listen() {
	defer m.wg.Done()
	events := m.client.SessionEvents()
	for {
		select {
		case <-m.kill:
			return
		case state, ok := <-events:
			if !ok {
				return
			}
			if state == coord.SessionLost {
				log.Printf("lifecycle: session lost, scheduling reconnect")
				select {
				case m.restart <- struct{}{}:
				default:
				}
			}
		}
	}
}

// reconnectLoop consumes at most one restart signal at a time and blocks
// until the session is re-established.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.kill:
			return
		case <-m.restart:
			for !m.client.BlockUntilConnected(m.attempt) {
				select {
				case <-m.kill:
					return
				default:
				}
			}
			log.Printf("lifecycle: reconnected")
		}
	}
}

// Shutdown tears the manager down: the listener and reconnect task exit
// before the client is closed, so no callback can observe a closed client.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		close(m.kill)
		m.wg.Wait()
		if m.client.Started() {
			if err := m.client.Close(); err != nil {
				log.Printf("lifecycle: close client: %v", err)
			}
		}
	})
}
