package visualizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferReadReturnsMostRecentBytes(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte{1, 2, 3})
	assert.Equal(t, []byte{1, 2, 3}, rb.Read(10))
}

func TestRingBufferWrapsAndOverwritesOldest(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte{1, 2, 3, 4})
	rb.Write([]byte{5, 6}) // overwrites 1, 2

	assert.Equal(t, []byte{3, 4, 5, 6}, rb.Read(4))
	assert.Equal(t, []byte{5, 6}, rb.Read(2))
}

func TestRingBufferReadCapsAtAvailableLength(t *testing.T) {
	rb := NewRingBuffer(8)
	rb.Write([]byte{1, 2})
	assert.Equal(t, []byte{1, 2}, rb.Read(100))
}

func TestRingBufferReadZeroWhenEmpty(t *testing.T) {
	rb := NewRingBuffer(4)
	assert.Nil(t, rb.Read(4))
}

func TestRingBufferClearResetsState(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte{1, 2, 3})
	rb.Clear()
	assert.Nil(t, rb.Read(4))

	rb.Write([]byte{9})
	assert.Equal(t, []byte{9}, rb.Read(4))
}
