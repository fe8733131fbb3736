// Package origin manages the replica origin snapshot: the canonical
// starting state for new log subscribers. The snapshot only ever moves
// forward; updates keyed by an older message id are dropped.
package origin

import (
	"errors"
	"fmt"
	"time"

	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
)

// Snapshot is the stored origin value.
type Snapshot struct {
	MessageID int64 `json:"message-id"`
	Replica   any   `json:"replica"`
}

// Initial is the snapshot a fresh tenancy is seeded with.
func Initial(baseReplica any) Snapshot {
	return Snapshot{MessageID: -1, Replica: baseReplica}
}

type Manager struct {
	client coord.Client
	codec  codec.Codec
	paths  namespace.Paths
	bus    *monitoring.Bus
}

func NewManager(client coord.Client, c codec.Codec, paths namespace.Paths, bus *monitoring.Bus) *Manager {
	return &Manager{client: client, codec: c, paths: paths, bus: bus}
}

// Read returns the current snapshot.
func (m *Manager) Read() (Snapshot, error) {
	start := time.Now()
	var snap Snapshot
	data, _, err := m.client.Get(m.paths.Origin())
	if err != nil {
		return snap, coord.Guard(err)
	}
	if err := m.codec.Decode(data, &snap); err != nil {
		return snap, err
	}
	m.bus.Dispatch(monitoring.Event{Op: "read-origin", Latency: time.Since(start)})
	return snap, nil
}

// Update advances the snapshot to {messageID, replica} iff messageID is
// strictly greater than the stored one. Losing a CAS race is a no-op:
// some concurrent update with a higher message id won, and a later call
// will land. There is deliberately no retry loop here.
func (m *Manager) Update(replica any, messageID int64) error {
	start := time.Now()
	node := m.paths.Origin()

	stat, err := m.client.Exists(node)
	if err != nil {
		return coord.Guard(err)
	}
	if stat == nil {
		return fmt.Errorf("origin: %s not bootstrapped: %w", node, coord.ErrNoNode)
	}

	current, err := m.Read()
	if err != nil {
		return err
	}
	if current.MessageID >= messageID {
		debug.Logf("origin: dropping update at %d, snapshot already at %d\n", messageID, current.MessageID)
		return nil
	}

	data, err := m.codec.Encode(Snapshot{MessageID: messageID, Replica: replica})
	if err != nil {
		return err
	}
	err = m.client.Set(node, data, stat.Version)
	if errors.Is(err, coord.ErrBadVersion) {
		debug.Logf("origin: lost CAS race at %d\n", messageID)
		return nil
	}
	if err != nil {
		return coord.Guard(err)
	}
	m.bus.Dispatch(monitoring.Event{
		Op:       "write-origin",
		Latency:  time.Since(start),
		Bytes:    len(data),
		Position: messageID,
	})
	return nil
}
