// Package pulse tracks peer liveness through ephemeral nodes: presence of
// the node is the liveness signal, and deletion watches feed membership
// tracking.
package pulse

import (
	"context"
	"time"

	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
)

type Tracker struct {
	client coord.Client
	paths  namespace.Paths
	bus    *monitoring.Bus

	ctx    context.Context
	cancel context.CancelFunc
}

func NewTracker(client coord.Client, paths namespace.Paths, bus *monitoring.Bus) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{client: client, paths: paths, bus: bus, ctx: ctx, cancel: cancel}
}

// Close stops all outstanding deletion watches.
func (t *Tracker) Close() {
	t.cancel()
}

// Register creates the ephemeral pulse node for peerID. The node goes
// away with the session. A still-present node from a live session is
// ErrNodeExists, which propagates: two peers must not share an id.
func (t *Tracker) Register(peerID string) error {
	start := time.Now()
	_, err := t.client.Create(t.paths.Pulse(peerID), nil, coord.ModeEphemeral)
	if err != nil {
		return coord.Guard(err)
	}
	t.bus.Dispatch(monitoring.Event{
		Op:      "register-pulse",
		Latency: time.Since(start),
		ID:      peerID,
	})
	return nil
}

// Exists reports whether peerID currently has a pulse node.
func (t *Tracker) Exists(peerID string) (bool, error) {
	stat, err := t.client.Exists(t.paths.Pulse(peerID))
	if err != nil {
		return false, coord.Guard(err)
	}
	return stat != nil, nil
}

// OnDelete arranges for exactly one true on out once peerID's pulse node
// is gone. A node that is already absent (or unreadable) reports
// immediately. Watches are one-shot, so non-deletion events re-arm the
// watch until the deletion is seen.
func (t *Tracker) OnDelete(peerID string, out chan<- bool) {
	node := t.paths.Pulse(peerID)
	go func() {
		for {
			stat, watch, err := t.client.ExistsW(node)
			if err != nil || stat == nil {
				if err != nil {
					debug.Logf("pulse: watch %s: %v\n", node, err)
				}
				t.report(out)
				return
			}
			select {
			case <-t.ctx.Done():
				return
			case ev, ok := <-watch:
				if !ok {
					t.report(out)
					return
				}
				if ev.Type == coord.EventDeleted {
					t.report(out)
					return
				}
				// Data change or similar consumed the watch; re-arm.
			}
		}
	}()
}

func (t *Tracker) report(out chan<- bool) {
	select {
	case out <- true:
	case <-t.ctx.Done():
	}
}
