package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	data := []byte("edge segment payload")

	h := NewCRC32C()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])

	assert.Equal(t, CRC32C(data), h.Sum32())
	assert.NotEqual(t, CRC32C(data), CRC32C([]byte("other")))
}

func TestString(t *testing.T) {
	assert.Equal(t, String("p1"), String("p1"))
	assert.NotEqual(t, Combine(String("p1"), 0), Combine(String("p1"), 1))
}
