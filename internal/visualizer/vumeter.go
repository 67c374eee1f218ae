package visualizer

import (
	"encoding/binary"
	"math"
	"strings"
)

// VUMeter renders the RMS level of the most recently played samples as an
// ASCII bar, for the TUI status line when running with -nodisp.
type VUMeter struct {
	buf *RingBuffer
}

// NewVUMeter wraps buf for rendering.
func NewVUMeter(buf *RingBuffer) *VUMeter { return &VUMeter{buf: buf} }

// Level returns the RMS level of the last n bytes (s16le PCM) as 0..1.
func (v *VUMeter) Level(n int) float64 {
	raw := v.buf.Read(n)
	if len(raw) < 2 {
		return 0
	}
	var sumSq float64
	count := 0
	for i := 0; i+1 < len(raw); i += 2 {
		s := int16(binary.LittleEndian.Uint16(raw[i:]))
		f := float64(s) / math.MaxInt16
		sumSq += f * f
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(count))
}

// Bar renders Level(n) as a fixed-width ASCII bar, e.g. "[####------]".
func (v *VUMeter) Bar(n, width int) string {
	level := v.Level(n)
	filled := int(level*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
