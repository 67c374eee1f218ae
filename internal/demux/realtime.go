package demux

import "strings"

// realtimeFormats are the container format names treated as realtime
// sources, never throttled by queue-size heuristics.
var realtimeFormats = map[string]bool{
	"rtp":  true,
	"rtsp": true,
	"sdp":  true,
}

// IsRealtime reports true if the container format name is rtp/rtsp/sdp, or
// the URL scheme is rtp: or udp:.
func IsRealtime(formatName, url string) bool {
	if realtimeFormats[formatName] {
		return true
	}
	return strings.HasPrefix(url, "rtp:") || strings.HasPrefix(url, "udp:")
}
