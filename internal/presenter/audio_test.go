package presenter

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/engineconst"
	"github.com/erparts/avplay/internal/frame"
)

func pcm16(samples ...int16) []byte {
	buf := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
	}
	return buf
}

func TestApplyVolumeUnityIsNoop(t *testing.T) {
	in := pcm16(100, -200, 30000)
	out := applyVolume(in, 1.0)
	assert.Equal(t, in, out)
}

func TestApplyVolumeScalesAndClamps(t *testing.T) {
	in := pcm16(10000, -10000)
	out := applyVolume(in, 0.5)
	assert.Equal(t, int16(5000), int16(binary.LittleEndian.Uint16(out[0:])))
	assert.Equal(t, int16(-5000), int16(binary.LittleEndian.Uint16(out[2:])))

	loud := pcm16(math.MaxInt16)
	clamped := applyVolume(loud, 2.0)
	assert.Equal(t, int16(math.MaxInt16), int16(binary.LittleEndian.Uint16(clamped)))
}

func TestResampleFrameCountStretchesAndShrinks(t *testing.T) {
	in := pcm16(1, 2, 3, 4) // 4 mono frames

	longer := resampleFrameCount(in, 2, 8)
	assert.Equal(t, 16, len(longer))

	shorter := resampleFrameCount(in, 2, 2)
	assert.Equal(t, 4, len(shorter))
}

func TestResampleFrameCountNoopOnInvalidArgs(t *testing.T) {
	in := pcm16(1, 2)
	assert.Equal(t, in, resampleFrameCount(in, 0, 4))
	assert.Equal(t, in, resampleFrameCount(in, 2, 0))
}

func TestSynchronizeAudioReturnsUnchangedBeforeEnoughHistory(t *testing.T) {
	p := &AudioPresenter{
		Clock:      clock.New(nil),
		ExternalClock: clock.New(nil),
		MasterType: func() clock.MasterType { return clock.MasterExternal },
	}
	p.Clock.Set(1.0, 1)
	p.ExternalClock.Set(1.2, 1) // within AVNoSyncThreshold, below AudioDiffAvgNB history

	payload := frame.AudioPayload{SampleRate: 48000, ChannelLayout: "stereo"}
	samples := pcm16(1, 2, 3, 4)
	out := p.synchronizeAudio(samples, payload)
	assert.Equal(t, samples, out)
	assert.Equal(t, 1, p.audioDiffAvgCount)
}

func TestSynchronizeAudioResetsAccumulatorBeyondNoSyncThreshold(t *testing.T) {
	p := &AudioPresenter{
		Clock:      clock.New(nil),
		ExternalClock: clock.New(nil),
		MasterType: func() clock.MasterType { return clock.MasterExternal },
	}
	p.Clock.Set(0.0, 1)
	p.ExternalClock.Set(engineconst.AVNoSyncThreshold+5, 1)
	p.audioDiffAvgCount = 15
	p.audioDiffCum = 3.0

	payload := frame.AudioPayload{SampleRate: 48000, ChannelLayout: "stereo"}
	out := p.synchronizeAudio(pcm16(1, 2), payload)

	assert.Equal(t, 0, p.audioDiffAvgCount)
	assert.Equal(t, 0.0, p.audioDiffCum)
	assert.Equal(t, pcm16(1, 2), out)
}

func TestSynchronizeAudioNoopWhenClocksInvalid(t *testing.T) {
	p := &AudioPresenter{
		Clock:      clock.New(nil),
		ExternalClock: clock.New(nil),
		MasterType: func() clock.MasterType { return clock.MasterExternal },
	}
	// neither clock has been Set: both Get() calls return NaN.
	payload := frame.AudioPayload{SampleRate: 48000, ChannelLayout: "stereo"}
	samples := pcm16(1, 2)
	assert.Equal(t, samples, p.synchronizeAudio(samples, payload))
}

func TestChannelsResolvesFromLayoutThenFallback(t *testing.T) {
	p := &AudioPresenter{OutputChannels: 6}
	assert.Equal(t, 1, p.channels(frame.AudioPayload{ChannelLayout: "mono"}))
	assert.Equal(t, 2, p.channels(frame.AudioPayload{ChannelLayout: "stereo"}))
	assert.Equal(t, 6, p.channels(frame.AudioPayload{ChannelLayout: "5.1"}))
}

func TestRateResolvesFromPayloadThenOutputThenDefault(t *testing.T) {
	p := &AudioPresenter{OutputSampleRate: 48000}
	assert.Equal(t, 44100, p.rate(frame.AudioPayload{SampleRate: 44100}))
	assert.Equal(t, 48000, p.rate(frame.AudioPayload{}))

	bare := &AudioPresenter{}
	assert.Equal(t, 44100, bare.rate(frame.AudioPayload{}))
}
