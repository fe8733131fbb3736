package origin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariusz-jachimowicz-83/onyx/internal/codec"
	"github.com/mariusz-jachimowicz-83/onyx/internal/coord"
	"github.com/mariusz-jachimowicz-83/onyx/internal/namespace"
	"github.com/mariusz-jachimowicz-83/onyx/internal/origin"
)

func newManager(t *testing.T) (*origin.Manager, *coord.Fake, namespace.Paths) {
	t.Helper()
	client := coord.NewFake()
	paths := namespace.New("t1")
	c := codec.GzipJSON{}
	data, err := c.Encode(origin.Initial("base"))
	require.NoError(t, err)
	require.NoError(t, namespace.Bootstrap(client, paths, data, nil))
	return origin.NewManager(client, c, paths, nil), client, paths
}

func TestInitialSnapshot(t *testing.T) {
	m, _, _ := newManager(t)
	snap, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), snap.MessageID)
	assert.Equal(t, "base", snap.Replica)
}

func TestUpdateAdvances(t *testing.T) {
	m, _, _ := newManager(t)
	require.NoError(t, m.Update("r1", 7))

	snap, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.MessageID)
	assert.Equal(t, "r1", snap.Replica)
}

func TestUpdateRejectsRegression(t *testing.T) {
	m, _, _ := newManager(t)
	require.NoError(t, m.Update("r1", 7))
	require.NoError(t, m.Update("r0", 3))

	snap, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(7), snap.MessageID)
	assert.Equal(t, "r1", snap.Replica)
}

func TestUpdateEqualMessageIDIsNoOp(t *testing.T) {
	m, _, _ := newManager(t)
	require.NoError(t, m.Update("r1", 7))
	require.NoError(t, m.Update("other", 7))

	snap, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, "r1", snap.Replica)
}

// casRacer lets a rival write land between the manager's version read and
// its Set, forcing the BadVersion path.
type casRacer struct {
	coord.Client
	rival func()
	once  bool
}

func (r *casRacer) Set(path string, data []byte, expected int32) error {
	if !r.once {
		r.once = true
		r.rival()
	}
	return r.Client.Set(path, data, expected)
}

func TestUpdateLostCASRaceIsNoOp(t *testing.T) {
	fake := coord.NewFake()
	paths := namespace.New("t1")
	c := codec.GzipJSON{}
	data, err := c.Encode(origin.Initial("base"))
	require.NoError(t, err)
	require.NoError(t, namespace.Bootstrap(fake, paths, data, nil))

	racer := &casRacer{Client: fake, rival: func() {
		winner, err := c.Encode(origin.Snapshot{MessageID: 9, Replica: "winner"})
		require.NoError(t, err)
		stat, err := fake.Exists(paths.Origin())
		require.NoError(t, err)
		require.NoError(t, fake.Set(paths.Origin(), winner, stat.Version))
	}}
	m := origin.NewManager(racer, c, paths, nil)

	// The losing update is silently dropped, not surfaced.
	require.NoError(t, m.Update("loser", 5))

	snap, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.MessageID)
	assert.Equal(t, "winner", snap.Replica)
}

func TestMonotonicSequence(t *testing.T) {
	m, _, _ := newManager(t)
	last := int64(-1)
	for _, id := range []int64{0, 3, 2, 8, 5, 13} {
		require.NoError(t, m.Update(id, id))
		snap, err := m.Read()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.MessageID, last)
		last = snap.MessageID
	}
	snap, err := m.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(13), snap.MessageID)
}
