package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipJSONRoundTrip(t *testing.T) {
	c := GzipJSON{}
	value := map[string]any{"x": float64(1), "nested": map[string]any{"y": "z"}}

	data, err := c.Encode(value)
	require.NoError(t, err)

	var got any
	require.NoError(t, c.Decode(data, &got))
	assert.Equal(t, value, got)
}

func TestGzipJSONTypedDecode(t *testing.T) {
	c := GzipJSON{}
	type snapshot struct {
		MessageID int64 `json:"message-id"`
	}
	data, err := c.Encode(snapshot{MessageID: 42})
	require.NoError(t, err)

	var got snapshot
	require.NoError(t, c.Decode(data, &got))
	assert.Equal(t, int64(42), got.MessageID)
}

func TestGzipJSONRejectsGarbage(t *testing.T) {
	c := GzipJSON{}
	var got any
	assert.Error(t, c.Decode([]byte("not gzip"), &got))
}
