package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
)

func TestStartConnects(t *testing.T) {
	client := coord.NewFake()
	m := New(client)
	require.NoError(t, m.Start(context.Background()))
	m.Shutdown()
	assert.False(t, client.Started(), "shutdown must close the client")
}

func TestStartHonorsContextWhileDisconnected(t *testing.T) {
	client := coord.NewFake()
	client.Disconnect()
	m := New(client)
	m.attempt = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := m.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	m.Shutdown()
}

func TestReconnectOnSessionLoss(t *testing.T) {
	client := coord.NewFake()
	m := New(client)
	require.NoError(t, m.Start(context.Background()))
	defer m.Shutdown()

	client.Disconnect()
	client.ExpireSession()

	// The reconnect task is now blocking on the connection; letting the
	// fake reconnect must release it rather than wedge the manager.
	time.Sleep(20 * time.Millisecond)
	client.Reconnect()

	require.Eventually(t, func() bool {
		return client.BlockUntilConnected(10 * time.Millisecond)
	}, time.Second, 10*time.Millisecond)
}

func TestShutdownIsIdempotent(t *testing.T) {
	client := coord.NewFake()
	m := New(client)
	require.NoError(t, m.Start(context.Background()))
	m.Shutdown()
	m.Shutdown()
}

func TestShutdownWhileReconnecting(t *testing.T) {
	client := coord.NewFake()
	m := New(client)
	m.attempt = 10 * time.Millisecond
	require.NoError(t, m.Start(context.Background()))

	client.Disconnect()
	client.ExpireSession()
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown wedged while reconnect loop was spinning")
	}
}
