package chunk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariusz-jachimowicz-83/onyx/internal/chunk"
	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
	"github.com/mariusz-jachimowicz-83/onyx/internal/oplog"
	"github.com/mariusz-jachimowicz-83/onyx/internal/origin"
)

func newStore(t *testing.T) *chunk.Store {
	t.Helper()
	client := coord.NewFake()
	paths := namespace.New("t1")
	c := codec.GzipJSON{}
	originData, err := c.Encode(origin.Initial("base"))
	require.NoError(t, err)
	paramsData, err := c.Encode(oplog.DefaultParameters())
	require.NoError(t, err)
	require.NoError(t, namespace.Bootstrap(client, paths, originData, paramsData))
	return chunk.NewStore(client, c, paths, nil)
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newStore(t)
	catalog := map[string]any{"entries": []any{"in", "out"}}

	require.NoError(t, store.Write(chunk.KindCatalog, "job-1", catalog))
	got, err := store.Read(chunk.KindCatalog, "job-1")
	require.NoError(t, err)
	assert.Equal(t, catalog, got)
}

func TestWriteIsCreateOnce(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write(chunk.KindWorkflow, "w1", "v1"))
	err := store.Write(chunk.KindWorkflow, "w1", "v2")
	assert.ErrorIs(t, err, coord.ErrNodeExists)
}

func TestTaskRequiresSubID(t *testing.T) {
	store := newStore(t)
	err := store.Write(chunk.KindTask, "job-1", "task-def")
	require.Error(t, err)

	require.NoError(t, store.Write(chunk.KindTask, "job-1", "task-def", "task-a"))
	got, err := store.Read(chunk.KindTask, "job-1", "task-a")
	require.NoError(t, err)
	assert.Equal(t, "task-def", got)

	// Second task under the same job reuses the parent.
	require.NoError(t, store.Write(chunk.KindTask, "job-1", "other", "task-b"))
}

func TestForceWriteChunk(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.ForceWrite(chunk.KindChunk, "c", "v1"))
	require.NoError(t, store.ForceWrite(chunk.KindChunk, "c", "v2"))

	got, err := store.Read(chunk.KindChunk, "c")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestForceWriteOnlyForChunkKind(t *testing.T) {
	store := newStore(t)
	err := store.ForceWrite(chunk.KindCatalog, "c", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "force")
}

func TestManagedKindsAreReadOnly(t *testing.T) {
	store := newStore(t)
	err := store.Write(chunk.KindOrigin, "", "nope")
	require.Error(t, err)

	// But they are readable through the same dispatch.
	got, err := store.Read(chunk.KindOrigin, "")
	require.NoError(t, err)
	snap := got.(map[string]any)
	assert.Equal(t, float64(-1), snap["message-id"])
	assert.Equal(t, "base", snap["replica"])

	params, err := store.Read(chunk.KindLogParameters, "")
	require.NoError(t, err)
	assert.Equal(t, oplog.LogVersion, params.(map[string]any)["log-version"])
}

func TestReadMissingChunk(t *testing.T) {
	store := newStore(t)
	_, err := store.Read(chunk.KindJobHash, "nope")
	assert.ErrorIs(t, err, coord.ErrNoNode)
}

func TestEveryImmutableKindRoundTrips(t *testing.T) {
	store := newStore(t)
	kinds := []chunk.Kind{
		chunk.KindJobHash, chunk.KindCatalog, chunk.KindWorkflow,
		chunk.KindFlow, chunk.KindLifecycles, chunk.KindWindows,
		chunk.KindTriggers, chunk.KindJobMetadata, chunk.KindException,
	}
	for _, kind := range kinds {
		value := map[string]any{"kind": kind.String()}
		require.NoError(t, store.Write(kind, "id", value), "kind %s", kind)
		got, err := store.Read(kind, "id")
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, value, got, "kind %s", kind)
	}
}
