// Package monitoring carries the storage-operation event stream. Every
// write/read against the coordination service dispatches one Event; the
// bus hands it to registered handlers, records otel instruments, and
// optionally publishes it to NATS JetStream for out-of-process consumers.
package monitoring

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event is one storage-operation record. Op is the symbolic operation
// name ("write-log-entry", "read-origin", ...); the remaining fields are
// populated where they apply.
type Event struct {
	Op       string        `json:"event"`
	Latency  time.Duration `json:"latency_ns"`
	Bytes    int           `json:"bytes,omitempty"`
	ID       string        `json:"id,omitempty"`
	Position int64         `json:"position,omitempty"`
}

// Handler consumes events in-process. Handlers run synchronously on the
// dispatching goroutine and must be quick.
type Handler interface {
	ID() string
	Handle(Event)
}

// Bus dispatches storage events to registered handlers and, when a
// JetStream context is attached, publishes them for persistence.
// A nil *Bus is valid and drops everything.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	js       nats.JetStreamContext
}

func NewBus() *Bus {
	return &Bus{}
}

// Register adds a handler to the bus.
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Unregister removes a handler by ID. Returns true if one was removed.
func (b *Bus) Unregister(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, h := range b.handlers {
		if h.ID() == id {
			b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// SetJetStream attaches a JetStream context. Publishing is fire-and-forget;
// errors are logged and do not affect the dispatching operation.
func (b *Bus) SetJetStream(js nats.JetStreamContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.js = js
}

// Dispatch delivers ev to all handlers and records its instruments.
func (b *Bus) Dispatch(ev Event) {
	if b == nil {
		return
	}
	instruments.latencyMs.Record(context.Background(),
		float64(ev.Latency)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("op", ev.Op)))
	if ev.Bytes > 0 {
		instruments.bytes.Add(context.Background(), int64(ev.Bytes),
			metric.WithAttributes(attribute.String("op", ev.Op)))
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	js := b.js
	b.mu.RUnlock()

	for _, h := range handlers {
		h.Handle(ev)
	}

	if js != nil {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("monitoring: marshal %s event: %v", ev.Op, err)
			return
		}
		if _, err := js.PublishAsync(SubjectPrefix+ev.Op, payload); err != nil {
			log.Printf("monitoring: publish %s event: %v", ev.Op, err)
		}
	}
}

// instruments holds the otel instruments for the storage layer. They are
// registered against the global delegating meter at init time, so they
// forward to the real provider once one is installed.
var instruments struct {
	latencyMs metric.Float64Histogram
	bytes     metric.Int64Counter
}

func init() {
	m := otel.Meter("github.com/mariusz-jachimowicz-83/onyx/monitoring")
	instruments.latencyMs, _ = m.Float64Histogram("onyx.storage.latency_ms",
		metric.WithDescription("Latency of coordination-service storage operations"),
		metric.WithUnit("ms"),
	)
	instruments.bytes, _ = m.Int64Counter("onyx.storage.bytes",
		metric.WithDescription("Payload bytes written to the coordination service"),
		metric.WithUnit("By"),
	)
}
