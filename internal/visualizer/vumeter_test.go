package visualizer

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func pcmSample(values ...int16) []byte {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(v))
	}
	return buf
}

func TestVUMeterLevelZeroOnSilence(t *testing.T) {
	rb := NewRingBuffer(64)
	rb.Write(pcmSample(0, 0, 0, 0))
	meter := NewVUMeter(rb)
	assert.Equal(t, 0.0, meter.Level(8))
}

func TestVUMeterLevelFullScaleOnMaxAmplitude(t *testing.T) {
	rb := NewRingBuffer(64)
	rb.Write(pcmSample(32767, -32767))
	meter := NewVUMeter(rb)
	assert.InDelta(t, 1.0, meter.Level(4), 0.01)
}

func TestVUMeterLevelZeroWithNoData(t *testing.T) {
	rb := NewRingBuffer(64)
	meter := NewVUMeter(rb)
	assert.Equal(t, 0.0, meter.Level(8))
}

func TestVUMeterBarWidthMatchesRequestedWidth(t *testing.T) {
	rb := NewRingBuffer(64)
	rb.Write(pcmSample(16000, -16000))
	meter := NewVUMeter(rb)

	bar := meter.Bar(4, 10)
	assert.Len(t, bar, 12) // brackets + width
	assert.Equal(t, byte('['), bar[0])
	assert.Equal(t, byte(']'), bar[len(bar)-1])
}

func TestVUMeterBarAllDashesOnSilence(t *testing.T) {
	rb := NewRingBuffer(64)
	rb.Write(pcmSample(0, 0))
	meter := NewVUMeter(rb)
	assert.Equal(t, "[----------]", meter.Bar(4, 10))
}
