package decode

import (
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/frame"
	"github.com/erparts/avplay/internal/packet"
)

// AudioDecoder implements Capability for audio streams. Filter-graph/
// resampler rebuilds triggered by a format/layout/rate/serial change are
// tracked so the audio presenter can detect a configuration change.
type AudioDecoder struct {
	lastSampleRate int
	lastChannels   int
	lastSerial     int64
	reconfigured   bool
}

func (d *AudioDecoder) Flush() {}

// Reconfigured reports (and clears) whether the last DecodeOne call observed
// a format/channel/rate/serial change that should trigger a filter-graph
// rebuild downstream.
func (d *AudioDecoder) Reconfigured() bool {
	r := d.reconfigured
	d.reconfigured = false
	return r
}

func (d *AudioDecoder) DecodeOne(pkt packet.Packet, attachment any) (frame.Frame, error) {
	raw, ok := attachment.(demux.RawFrame)
	if !ok {
		return frame.Frame{}, errs.ErrAgain
	}

	if raw.SampleRate != d.lastSampleRate || raw.ChannelCount != d.lastChannels || pkt.Serial != d.lastSerial {
		d.lastSampleRate = raw.SampleRate
		d.lastChannels = raw.ChannelCount
		d.lastSerial = pkt.Serial
		d.reconfigured = true
	}

	pts := raw.PresentationOffset.Seconds()
	nbSamples := raw.NbSamples
	if nbSamples == 0 && raw.SampleRate > 0 && raw.ChannelCount > 0 {
		// 16-bit samples, interleaved.
		nbSamples = len(raw.Data) / (raw.ChannelCount * 2)
	}
	duration := 0.0
	if raw.SampleRate > 0 {
		duration = float64(nbSamples) / float64(raw.SampleRate)
	}

	return frame.Frame{
		Kind: frame.Audio,
		Audio: frame.AudioPayload{
			Samples:       raw.Data,
			SampleFormat:  "s16",
			SampleRate:    raw.SampleRate,
			ChannelLayout: channelLayoutName(raw.ChannelCount),
			NbSamples:     nbSamples,
		},
		PTS:      pts,
		Duration: duration,
	}, nil
}

func channelLayoutName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return "multichannel"
	}
}
