package demux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRealtimeByFormatName(t *testing.T) {
	assert.True(t, IsRealtime("rtp", "file.mp4"))
	assert.True(t, IsRealtime("rtsp", "file.mp4"))
	assert.True(t, IsRealtime("sdp", "file.mp4"))
	assert.False(t, IsRealtime("mov,mp4,m4a", "file.mp4"))
}

func TestIsRealtimeByURLScheme(t *testing.T) {
	assert.True(t, IsRealtime("", "rtp://239.0.0.1:1234"))
	assert.True(t, IsRealtime("", "udp://239.0.0.1:1234"))
	assert.False(t, IsRealtime("", "https://example.com/movie.mp4"))
	assert.False(t, IsRealtime("", "/local/path/movie.mkv"))
}
