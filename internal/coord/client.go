// Package coord is a thin adapter over the external coordination service.
// It exposes the handful of hierarchical-namespace operations the backend
// needs (create, CAS set, one-shot watches, ephemerals, sequentials) and
// normalizes the service's errors into a fixed set of kinds.
package coord

import (
	"time"
)

// CreateMode selects the node kind for Create.
type CreateMode int

const (
	ModePersistent CreateMode = iota
	ModePersistentSequential
	ModeEphemeral
)

// Stat is the subset of node metadata the backend consumes.
type Stat struct {
	Version int32
	Ctime   time.Time
}

// EventType identifies what a fired watch observed.
type EventType int

const (
	EventCreated EventType = iota
	EventDeleted
	EventDataChanged
	EventChildrenChanged
	EventSession
)

// Event is delivered on a watch channel. Watches are one-shot: after a
// single event the channel is closed and a fresh watch must be set.
type Event struct {
	Type EventType
	Path string
}

// SessionState is delivered on the session-event channel.
type SessionState int

const (
	SessionConnected SessionState = iota
	SessionSuspended
	SessionLost
)

// Client is the coordination-service adapter. Implementations must be safe
// for concurrent use; the production implementation wraps go-zookeeper/zk
// and Fake backs the unit tests.
type Client interface {
	// Create makes a single node. Parents must already exist. For
	// ModePersistentSequential the returned path carries the suffix the
	// service assigned.
	Create(path string, data []byte, mode CreateMode) (string, error)

	// CreateAll makes a persistent node, creating missing parents.
	// An already-existing parent is fine; an already-existing final
	// node is ErrNodeExists, same as Create.
	CreateAll(path string, data []byte) (string, error)

	// Exists returns the node's stat, or nil if absent.
	Exists(path string) (*Stat, error)

	// ExistsW is Exists plus a one-shot watch on the path.
	ExistsW(path string) (*Stat, <-chan Event, error)

	Get(path string) ([]byte, *Stat, error)

	// Set writes data iff the node's version matches expected.
	Set(path string, data []byte, expected int32) error

	Children(path string) ([]string, error)

	// ChildrenW is Children plus a one-shot watch on the child list.
	ChildrenW(path string) ([]string, <-chan Event, error)

	Delete(path string) error

	// SessionEvents reports connection-state transitions for the
	// lifecycle manager. The channel is closed on Close.
	SessionEvents() <-chan SessionState

	// BlockUntilConnected waits up to timeout for an established session.
	BlockUntilConnected(timeout time.Duration) bool

	Started() bool
	Close() error
}
