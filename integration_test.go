package onyx_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	onyx "github.com/mariusz-jachimowicz-83/onyx"
	"github.com/mariusz-jachimowicz-83/onyx/internal/config"
	"github.com/mariusz-jachimowicz-83/onyx/internal/zkserver"
)

// TestAgainstRealServer runs the write/subscribe round trip against a
// containerized ZooKeeper. Opt in with ONYX_ZK_INTEGRATION=1; it needs a
// working container runtime.
func TestAgainstRealServer(t *testing.T) {
	if os.Getenv("ONYX_ZK_INTEGRATION") == "" {
		t.Skip("set ONYX_ZK_INTEGRATION=1 to run the container-backed integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	server, err := zkserver.Start(ctx, 0)
	require.NoError(t, err)
	defer func() { _ = server.Stop(ctx) }()

	cfg := &config.Config{
		TenancyID:            "integration",
		Address:              server.Addr(),
		SubscriberBufferSize: 16,
		SessionTimeoutMS:     10000,
	}
	backend, err := onyx.Open(ctx, cfg, map[string]any{"base": true})
	require.NoError(t, err)
	defer func() { _ = backend.Close(ctx) }()

	for i := 0; i < 5; i++ {
		position, err := backend.Writer.WriteEntry(map[string]any{"i": float64(i)})
		require.NoError(t, err)
		assert.Equal(t, int64(i), position)
	}

	tailer := backend.NewTailer()
	defer tailer.Close()
	out := backend.NewEntryChannel()
	_, err = tailer.Subscribe(out)
	require.NoError(t, err)

	first := <-out
	require.NoError(t, first.Err)
	_, ok := first.Value.(onyx.SetReplica)
	require.True(t, ok, "first element must be the synthetic replica seed")

	for want := int64(0); want < 5; want++ {
		entry := <-out
		require.NoError(t, entry.Err)
		assert.Equal(t, want, entry.MessageID)
	}
}
