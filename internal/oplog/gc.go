package oplog

import (
	"time"

	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/monitoring"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
)

// GC deletes log entries that the origin snapshot has already covered.
// Callers must advance the origin snapshot to at least the deleted
// position first; subscribers rely on that ordering when they re-seek.
type GC struct {
	client coord.Client
	paths  namespace.Paths
	bus    *monitoring.Bus
}

func NewGC(client coord.Client, paths namespace.Paths, bus *monitoring.Bus) *GC {
	return &GC{client: client, paths: paths, bus: bus}
}

// DeleteEntry removes the entry node at position.
func (g *GC) DeleteEntry(position int64) error {
	start := time.Now()
	if err := g.client.Delete(g.paths.LogEntry(position)); err != nil {
		return coord.Guard(err)
	}
	g.bus.Dispatch(monitoring.Event{
		Op:       "gc-log-entry",
		Latency:  time.Since(start),
		Position: position,
	})
	return nil
}
