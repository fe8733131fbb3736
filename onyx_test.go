package onyx_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	onyx "github.com/mariusz-jachimowicz-83/onyx"
	"github.com/mariusz-jachimowicz-83/onyx/internal/config"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
)

func testConfig() *config.Config {
	return &config.Config{
		TenancyID:            "t1",
		Address:              "unused-with-fake",
		SubscriberBufferSize: 16,
		SessionTimeoutMS:     10000,
	}
}

func openTestBackend(t *testing.T) *onyx.Backend {
	t.Helper()
	backend, err := onyx.Open(context.Background(), testConfig(),
		map[string]any{"base": true}, onyx.WithClient(coord.NewFake()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close(context.Background()) })
	return backend
}

func TestOpenBootstrapsNamespace(t *testing.T) {
	backend := openTestBackend(t)

	snap, err := backend.Origin.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), snap.MessageID)
	assert.Equal(t, map[string]any{"base": true}, snap.Replica)
}

func TestWriteThenSubscribe(t *testing.T) {
	backend := openTestBackend(t)

	position, err := backend.Writer.WriteEntry(map[string]any{"x": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), position)

	tailer := backend.NewTailer()
	defer tailer.Close()
	out := backend.NewEntryChannel()
	state, err := tailer.Subscribe(out)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"base": true}, state.Replica)

	first := <-out
	require.NoError(t, first.Err)
	replica, ok := first.Value.(onyx.SetReplica)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"base": true}, replica.Replica)

	second := <-out
	require.NoError(t, second.Err)
	assert.Equal(t, int64(0), second.MessageID)
	assert.Equal(t, map[string]any{"x": float64(1)}, second.Value)
}

func TestChunkAndPulseThroughFacade(t *testing.T) {
	backend := openTestBackend(t)

	require.NoError(t, backend.Chunks.Write(onyx.KindCatalog, "job", "catalog"))
	got, err := backend.Chunks.Read(onyx.KindCatalog, "job")
	require.NoError(t, err)
	assert.Equal(t, "catalog", got)

	require.NoError(t, backend.Pulses.Register("peer-1"))
	alive, err := backend.Pulses.Exists("peer-1")
	require.NoError(t, err)
	assert.True(t, alive)
}

func TestMonitoringEventsFlow(t *testing.T) {
	backend := openTestBackend(t)

	seen := make(chan onyx.Event, 8)
	backend.Monitoring().Register(recordingHandler{out: seen})

	_, err := backend.Writer.WriteEntry(map[string]any{"x": float64(1)})
	require.NoError(t, err)

	select {
	case ev := <-seen:
		assert.Equal(t, "write-log-entry", ev.Op)
		assert.Greater(t, ev.Bytes, 0)
	case <-time.After(time.Second):
		t.Fatal("no monitoring event observed")
	}
}

type recordingHandler struct {
	out chan onyx.Event
}

func (recordingHandler) ID() string             { return "recording" }
func (h recordingHandler) Handle(ev onyx.Event) { h.out <- ev }
