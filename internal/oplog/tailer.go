package oplog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mariusz-jachimowicz-83/onyx/internal/chunk"
	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/debug"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
	"github.com/mariusz-jachimowicz-83/onyx/internal/origin"
)

// parametersBackoff is the fixed delay between log-parameters read
// attempts at subscribe time. The retry is unbounded: a peer cannot make
// progress without the parameters document.
const parametersBackoff = 500 * time.Millisecond

// Entry is one element of the subscription stream. Exactly one of Value
// and Err is meaningful: a terminal failure is delivered as an Entry with
// Err set, after which the subscriber has exited.
type Entry struct {
	MessageID int64
	CreatedAt time.Time
	Value     any
	Err       error
}

// SetReplica is the synthetic value emitted when the subscriber (re)seeds
// from the origin snapshot. It always precedes the real entries and
// carries MessageID -1.
type SetReplica struct {
	Replica any
}

// InitialState is the aggregate a subscriber starts from: the origin
// replica merged with the cluster log parameters.
type InitialState struct {
	Replica    any
	Parameters Parameters
}

// Tailer is a resumable log subscription. It owns an in-memory cursor,
// follows the log through one-shot children watches, and re-seeds from
// the origin snapshot whenever the entry at the cursor has been
// garbage-collected.
//
// A Tailer does not survive connection loss: those failures surface as an
// Err entry on the output channel and the caller recreates the Tailer
// after the lifecycle manager reconnects.
type Tailer struct {
	client coord.Client
	codec  codec.Codec
	paths  namespace.Paths
	origin *origin.Manager
	chunks *chunk.Store
	bus    *monitoring.Bus

	ctx    context.Context
	cancel context.CancelFunc
}

func NewTailer(client coord.Client, c codec.Codec, paths namespace.Paths, om *origin.Manager, cs *chunk.Store, bus *monitoring.Bus) *Tailer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Tailer{
		client: client,
		codec:  c,
		paths:  paths,
		origin: om,
		chunks: cs,
		bus:    bus,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Subscribe starts producing onto out and returns the initial state. The
// first element on out is always the synthetic SetReplica entry, followed
// by real entries from origin.MessageID+1 in strictly ascending order.
// Writes to out block; a slow consumer stalls this subscriber only. The
// caller picks out's buffer size.
func (t *Tailer) Subscribe(out chan<- Entry) (InitialState, error) {
	params, err := t.readParameters()
	if err != nil {
		return InitialState{}, err
	}
	if params.LogVersion != LogVersion {
		return InitialState{}, fmt.Errorf("oplog: log version %q is not compatible with this peer (%q)",
			params.LogVersion, LogVersion)
	}

	snap, err := t.origin.Read()
	if err != nil {
		return InitialState{}, err
	}

	go t.tail(out, snap)

	return InitialState{Replica: snap.Replica, Parameters: params}, nil
}

// Close terminates the subscription. The tail goroutine exits at its next
// blocking point; no further entries are produced.
func (t *Tailer) Close() {
	t.cancel()
}

// readParameters retries with a fixed backoff until the document is
// readable, or until the tailer is closed.
func (t *Tailer) readParameters() (Parameters, error) {
	var params Parameters
	bo := backoff.WithContext(backoff.NewConstantBackOff(parametersBackoff), t.ctx)
	err := backoff.Retry(func() error {
		if err := t.chunks.ReadInto(chunk.KindLogParameters, "", &params); err != nil {
			debug.Logf("oplog: log-parameters not readable yet: %v\n", err)
			return err
		}
		return nil
	}, bo)
	if err != nil {
		return params, fmt.Errorf("oplog: read log-parameters: %w", err)
	}
	return params, nil
}

// tail is the subscriber loop. The synthetic SetReplica entry goes out
// first, then the cursor walks from just past the snapshot: at each step
// it either reads the entry at its position, or parks on a one-shot
// children watch until the log grows. The exists re-check after
// registering the watch closes the registration-vs-change race; the
// re-check after the watch fires covers watches fired by GC deletes
// rather than appends.
func (t *Tailer) tail(out chan<- Entry, snap origin.Snapshot) {
	if !t.send(out, Entry{MessageID: -1, Value: SetReplica{Replica: snap.Replica}}) {
		return
	}
	position := snap.MessageID + 1
	for {
		if t.ctx.Err() != nil {
			return
		}
		entryPath := t.paths.LogEntry(position)

		stat, err := t.client.Exists(entryPath)
		if err != nil {
			t.fail(out, err)
			return
		}
		if stat != nil {
			next, ok := t.emitAt(out, position)
			if !ok {
				return
			}
			position = next
			continue
		}

		_, watch, err := t.client.ChildrenW(t.paths.LogRoot())
		if err != nil {
			t.fail(out, err)
			return
		}
		stat, err = t.client.Exists(entryPath)
		if err != nil {
			t.fail(out, err)
			return
		}
		if stat != nil {
			next, ok := t.emitAt(out, position)
			if !ok {
				return
			}
			position = next
			continue
		}

		select {
		case <-t.ctx.Done():
			return
		case _, ok := <-watch:
			if !ok {
				// The watch channel closes without an event when the
				// client shuts down underneath us.
				t.fail(out, coord.ErrSubscriberClosed)
				return
			}
			stat, err = t.client.Exists(entryPath)
			if err != nil {
				t.fail(out, err)
				return
			}
			if stat == nil {
				// Fired on a delete, not on our entry. Go around.
				continue
			}
			next, okEmit := t.emitAt(out, position)
			if !okEmit {
				return
			}
			position = next
		}
	}
}

// emitAt reads, decodes and emits the entry at position, returning the
// next cursor position. A node missing (or conflicting) where one was
// just observed means GC got there first: re-seek to origin.
func (t *Tailer) emitAt(out chan<- Entry, position int64) (int64, bool) {
	start := time.Now()
	data, stat, err := t.client.Get(t.paths.LogEntry(position))
	if errors.Is(err, coord.ErrNoNode) || errors.Is(err, coord.ErrNodeExists) {
		return t.reseek(out)
	}
	if err != nil {
		t.fail(out, err)
		return 0, false
	}
	var value any
	if err := t.codec.Decode(data, &value); err != nil {
		t.fail(out, err)
		return 0, false
	}
	t.bus.Dispatch(monitoring.Event{
		Op:       "read-log-entry",
		Latency:  time.Since(start),
		Position: position,
	})
	if !t.send(out, Entry{MessageID: position, CreatedAt: stat.Ctime, Value: value}) {
		return 0, false
	}
	return position + 1, true
}

// reseek re-reads the origin snapshot, emits the synthetic SetReplica
// entry, and restarts the cursor just past the snapshot.
func (t *Tailer) reseek(out chan<- Entry) (int64, bool) {
	snap, err := t.origin.Read()
	if err != nil {
		t.fail(out, err)
		return 0, false
	}
	debug.Logf("oplog: re-seeking to origin at %d\n", snap.MessageID)
	if !t.send(out, Entry{MessageID: -1, Value: SetReplica{Replica: snap.Replica}}) {
		return 0, false
	}
	return snap.MessageID + 1, true
}

func (t *Tailer) send(out chan<- Entry, e Entry) bool {
	select {
	case out <- e:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// fail delivers a terminal error onto out, with connection failures
// translated to the SubscriberClosed sentinel.
func (t *Tailer) fail(out chan<- Entry, err error) {
	select {
	case out <- Entry{Err: coord.Guard(err)}:
	case <-t.ctx.Done():
	}
}
