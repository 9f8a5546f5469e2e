package codec

import (
	"testing"
)

func benchProps() map[string]any {
	return map[string]any{
		"name":    "alice",
		"age":     42,
		"score":   4.75,
		"active":  true,
		"tags":    []string{"a", "b", "c"},
		"address": map[string]any{"city": "Berlin", "zip": "10115"},
	}
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal(b *testing.B, c Codec, data []byte) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	b.ResetTimer()
	for b.Loop() {
		var v map[string]any
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCodec_Properties(b *testing.B) {
	props := benchProps()
	for _, c := range []Codec{JSON{}, GoJSON{}, Msgpack{}} {
		b.Run(c.Name()+"/marshal", func(b *testing.B) { benchmarkCodecMarshal(b, c, props) })
		b.Run(c.Name()+"/unmarshal", func(b *testing.B) {
			benchmarkCodecUnmarshal(b, c, mustMarshal(b, c, props))
		})
	}
}
