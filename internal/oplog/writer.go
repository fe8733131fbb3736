// Package oplog implements the durable, totally-ordered replicated log:
// sequential appends, the resumable tail subscription, and entry GC.
// Entries are opaque to this package; ordering comes entirely from the
// coordination service's sequential-node counter.
package oplog

import (
	"path"
	"time"

	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
)

// Writer appends entries to the log. Safe for concurrent use; there is no
// in-process coordination between writers.
type Writer struct {
	client coord.Client
	codec  codec.Codec
	paths  namespace.Paths
	bus    *monitoring.Bus
}

func NewWriter(client coord.Client, c codec.Codec, paths namespace.Paths, bus *monitoring.Bus) *Writer {
	return &Writer{client: client, codec: c, paths: paths, bus: bus}
}

// WriteEntry appends value at the next sequentially-numbered position and
// returns the position the service assigned.
func (w *Writer) WriteEntry(value any) (int64, error) {
	start := time.Now()
	data, err := w.codec.Encode(value)
	if err != nil {
		return 0, err
	}
	created, err := w.client.Create(w.paths.LogEntryPrefix(), data, coord.ModePersistentSequential)
	if err != nil {
		return 0, coord.Guard(err)
	}
	position, err := namespace.ParseSequentialID(path.Base(created))
	if err != nil {
		return 0, err
	}
	w.bus.Dispatch(monitoring.Event{
		Op:       "write-log-entry",
		Latency:  time.Since(start),
		Bytes:    len(data),
		Position: position,
	})
	return position, nil
}
