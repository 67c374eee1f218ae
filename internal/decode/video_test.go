package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/packet"
)

func TestVideoDecoderDecodeOneRejectsWrongAttachment(t *testing.T) {
	d := &VideoDecoder{}
	_, err := d.DecodeOne(packet.Packet{}, "not a raw frame")
	assert.ErrorIs(t, err, errs.ErrAgain)
}

func TestVideoDecoderDecodeOnePublishesWithComputedDuration(t *testing.T) {
	d := &VideoDecoder{FrameRateNum: 30, FrameRateDen: 1}
	raw := demux.RawFrame{Data: []byte{1, 2, 3, 4}, Width: 2, Height: 1}
	fr, err := d.DecodeOne(packet.Packet{HasPTS: true, HasDTS: true}, raw)

	assert.NoError(t, err)
	assert.InDelta(t, 1.0/30.0, fr.Duration, 1e-9)
	assert.Equal(t, "RGBA", fr.Video.PixelFormat)
	assert.Equal(t, 2, fr.Video.Width)
}

func TestVideoDecoderTracksFaultyPTSAndDTS(t *testing.T) {
	d := &VideoDecoder{}
	_, err := d.DecodeOne(packet.Packet{HasPTS: false, HasDTS: false}, demux.RawFrame{})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, d.FaultyPTS)
	assert.EqualValues(t, 1, d.FaultyDTS)
}

func TestVideoDecoderFlushResetsFaultyCounters(t *testing.T) {
	d := &VideoDecoder{FaultyPTS: 5, FaultyDTS: 3}
	d.Flush()
	assert.EqualValues(t, 0, d.FaultyPTS)
	assert.EqualValues(t, 0, d.FaultyDTS)
}

func TestShouldDropEarlyNeverModeAlwaysKeeps(t *testing.T) {
	d := &VideoDecoder{FramedropMode: FramedropNever, GetMaster: func() (float64, bool) { return 100, false }}
	assert.False(t, d.shouldDropEarly(0))
}

func TestShouldDropEarlyAutoModeSkipsDropWhenMasterIsVideo(t *testing.T) {
	d := &VideoDecoder{FramedropMode: FramedropAuto, GetMaster: func() (float64, bool) { return 100, true }}
	assert.False(t, d.shouldDropEarly(0))
}

func TestShouldDropEarlyDropsWhenBehindMaster(t *testing.T) {
	d := &VideoDecoder{FramedropMode: FramedropAlways, GetMaster: func() (float64, bool) { return 10, false }}
	assert.True(t, d.shouldDropEarly(5)) // 5 - 10 < 0
	assert.False(t, d.shouldDropEarly(15))
}

func TestShouldDropEarlyNoopWithoutGetMaster(t *testing.T) {
	d := &VideoDecoder{FramedropMode: FramedropAlways}
	assert.False(t, d.shouldDropEarly(0))
}

func TestDecodeOneDropsEarlyReturnsErrStale(t *testing.T) {
	d := &VideoDecoder{FramedropMode: FramedropAlways, GetMaster: func() (float64, bool) { return 100, false }}
	_, err := d.DecodeOne(packet.Packet{HasPTS: true, HasDTS: true}, demux.RawFrame{})
	assert.ErrorIs(t, err, errs.ErrStale)
	assert.EqualValues(t, 1, d.FrameDropsEarly)
}
