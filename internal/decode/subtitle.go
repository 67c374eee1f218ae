package decode

import (
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/frame"
	"github.com/erparts/avplay/internal/packet"
)

// SubtitleDecoder implements Capability for subtitle streams. reisen has no
// subtitle decode surface (it wraps ffmpeg's audio/video paths only), so
// this decoder carries the queue/serial/abort contract without rasterizing
// bitmaps; subtitle regions stay opaque payloads for a renderer to blend.
type SubtitleDecoder struct{}

func (d *SubtitleDecoder) Flush() {}

func (d *SubtitleDecoder) DecodeOne(pkt packet.Packet, attachment any) (frame.Frame, error) {
	raw, ok := attachment.(demux.RawFrame)
	if !ok {
		return frame.Frame{}, errs.ErrAgain
	}
	return frame.Frame{
		Kind: frame.Subtitle,
		Subtitle: frame.SubtitlePayload{
			Regions: []frame.SubtitleRegion{{W: raw.Width, H: raw.Height, Bitmap: raw.Data}},
		},
		PTS: raw.PresentationOffset.Seconds(),
	}, nil
}
