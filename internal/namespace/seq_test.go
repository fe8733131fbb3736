package namespace

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadSequentialID(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0000000000"},
		{1, "0000000001"},
		{42, "0000000042"},
		{199, "0000000199"},
		{9999999999, "9999999999"},
		{10000000000, "10000000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PadSequentialID(tt.n))
	}
}

func TestPadSequentialIDSortsLexicographically(t *testing.T) {
	ids := []int64{0, 1, 9, 10, 99, 100, 12345, 999999999, 1000000000}
	padded := make([]string, len(ids))
	for i, n := range ids {
		padded[i] = PadSequentialID(n)
	}
	assert.True(t, sort.StringsAreSorted(padded),
		"padded ids must sort the same as their numeric order: %v", padded)
}

func TestParseSequentialID(t *testing.T) {
	n, err := ParseSequentialID("entry-0000000042")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = ParseSequentialID("0000000007")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = ParseSequentialID("entry-abc")
	assert.Error(t, err)
}

func TestPadParseRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 5, 100, 4294967296} {
		got, err := ParseSequentialID("entry-" + PadSequentialID(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestLogEntryPath(t *testing.T) {
	p := New("t1")
	assert.Equal(t, "/onyx/t1/log/entry-0000000003", p.LogEntry(3))
	assert.Equal(t, "/onyx/t1/task/j1/t2", p.Task("j1", "t2"))
	assert.Equal(t, "/onyx/t1/chunk/c/chunk", p.Chunk("c"))
	assert.Equal(t, fmt.Sprintf("%s/origin/origin", p.Prefix()), p.Origin())
}
