package decode

import (
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/frame"
	"github.com/erparts/avplay/internal/packet"
)

// VideoDecoder implements Capability for video streams.
type VideoDecoder struct {
	FrameRateNum, FrameRateDen int

	// Framedrop controls: Auto drops only when the master clock isn't
	// video; Always/Never override it. GetMaster is read live by the
	// framedrop-early check (shouldDropEarly) for the master clock's value
	// and whether video is master.
	FramedropMode FramedropMode
	GetMaster     func() (pts float64, isVideo bool)

	FrameDropsEarly int64

	// FaultyDTS/FaultyPTS count decoded packets that arrived without a
	// DTS/PTS, reset on Flush. No timestamp monotonicity check is made.
	FaultyDTS, FaultyPTS int64
}

type FramedropMode int

const (
	FramedropAuto FramedropMode = iota
	FramedropAlways
	FramedropNever
)

func (d *VideoDecoder) Flush() {
	d.FaultyDTS = 0
	d.FaultyPTS = 0
}

func (d *VideoDecoder) frameDuration() float64 {
	if d.FrameRateNum <= 0 {
		return 0
	}
	return float64(d.FrameRateDen) / float64(d.FrameRateNum)
}

// DecodeOne adjusts pts from the decoded payload, applies the framedrop
// policy, and returns the frame to publish.
func (d *VideoDecoder) DecodeOne(pkt packet.Packet, attachment any) (frame.Frame, error) {
	raw, ok := attachment.(demux.RawFrame)
	if !ok {
		return frame.Frame{}, errs.ErrAgain
	}

	pts := raw.PresentationOffset.Seconds()
	if !pkt.HasPTS {
		d.FaultyPTS++
	}
	if !pkt.HasDTS {
		d.FaultyDTS++
	}

	if d.shouldDropEarly(pts) {
		d.FrameDropsEarly++
		return frame.Frame{}, errs.ErrStale
	}

	return frame.Frame{
		Kind: frame.Video,
		Video: frame.VideoPayload{
			Pix:             raw.Data,
			Width:           raw.Width,
			Height:          raw.Height,
			PixelFormat:     "RGBA",
			SampleAspectNum: 1,
			SampleAspectDen: 1,
		},
		PTS:      pts,
		Duration: d.frameDuration(),
		Pos:      0,
	}, nil
}

// shouldDropEarly is the framedrop-early predicate: drop when framedrop is
// on (or auto and master isn't video) and pts - master_clock is behind by
// more than frame_last_filter_delay (approximated here as 0, since there's
// no filter graph in this pipeline to measure it from).
func (d *VideoDecoder) shouldDropEarly(pts float64) bool {
	if d.FramedropMode == FramedropNever {
		return false
	}
	if d.GetMaster == nil {
		return false
	}
	masterPTS, isVideo := d.GetMaster()
	if d.FramedropMode == FramedropAuto && isVideo {
		return false
	}
	return pts-masterPTS < 0
}
