package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "msgpack"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}
	_, ok := ByName("gob")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	type record struct {
		Name string   `json:"name" msgpack:"name"`
		Tags []string `json:"tags" msgpack:"tags"`
	}
	in := record{Name: "alice", Tags: []string{"x", "y"}}

	for _, c := range []Codec{JSON{}, GoJSON{}, Msgpack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var out record
			require.NoError(t, c.Unmarshal(mustMarshal(t, c, in), &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestMsgpack_LooseInterfaceDecoding(t *testing.T) {
	data := mustMarshal(t, Msgpack{}, map[string]any{"age": 42, "score": float32(1.5), "ok": true})

	var out map[string]any
	require.NoError(t, Msgpack{}.Unmarshal(data, &out))
	assert.Equal(t, int64(42), out["age"])
	assert.Equal(t, float64(1.5), out["score"])
	assert.Equal(t, true, out["ok"])
}

func mustMarshal(tb testing.TB, c Codec, v any) []byte {
	tb.Helper()
	b, err := c.Marshal(v)
	require.NoError(tb, err)
	return b
}

func TestMarshal_Unsupported(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}, Msgpack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			_, err := c.Marshal(make(chan int))
			assert.Error(t, err)
		})
	}
}
