package monitoring

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// testHandler records the events it sees.
type testHandler struct {
	id     string
	events []Event
}

func (h *testHandler) ID() string      { return h.id }
func (h *testHandler) Handle(ev Event) { h.events = append(h.events, ev) }

func TestDispatchToHandlers(t *testing.T) {
	bus := NewBus()
	a := &testHandler{id: "a"}
	b := &testHandler{id: "b"}
	bus.Register(a)
	bus.Register(b)

	ev := Event{Op: "write-log-entry", Latency: time.Millisecond, Bytes: 10, Position: 3}
	bus.Dispatch(ev)

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both handlers to see the event, got %d/%d", len(a.events), len(b.events))
	}
	if a.events[0].Op != "write-log-entry" {
		t.Errorf("wrong op: %q", a.events[0].Op)
	}
}

func TestUnregister(t *testing.T) {
	bus := NewBus()
	h := &testHandler{id: "h"}
	bus.Register(h)

	if !bus.Unregister("h") {
		t.Fatal("Unregister should report removal")
	}
	if bus.Unregister("h") {
		t.Fatal("second Unregister should report nothing to remove")
	}

	bus.Dispatch(Event{Op: "read-origin"})
	if len(h.events) != 0 {
		t.Errorf("unregistered handler saw %d events", len(h.events))
	}
}

func TestNilBusDropsEvents(t *testing.T) {
	var bus *Bus
	bus.Dispatch(Event{Op: "write-log-entry"}) // must not panic
}

func TestDispatchRecordsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	defer otel.SetMeterProvider(prev)

	bus := NewBus()
	bus.Dispatch(Event{Op: "write-catalog", Latency: 2 * time.Millisecond, Bytes: 64})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	found := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			found[m.Name] = true
		}
	}
	if !found["onyx.storage.latency_ms"] {
		t.Error("latency histogram was not recorded")
	}
	if !found["onyx.storage.bytes"] {
		t.Error("bytes counter was not recorded")
	}
}
