package presenter

import (
	"encoding/binary"
	"io"
	"math"
	"sync"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/engineconst"
	"github.com/erparts/avplay/internal/frame"
)

// AudioPresenter is a pull-callback consumer of the audio frame queue,
// exposed as an io.Reader so it can be wired directly into
// ebiten/v2/audio.Player's streaming source. Each Read pulls whole decoded
// frames, applies the synchronize_audio sample-count correction when audio
// isn't the master clock, and sets the audio clock to the frame's pts plus
// the duration of the pulled chunk at the moment the chunk is pulled.
type AudioPresenter struct {
	Queue  *frame.Queue
	Clock  *clock.Clock // this presenter's own clock, updated on every pull

	MasterType                func() clock.MasterType
	VideoClock, ExternalClock *clock.Clock

	Volume func() float64 // 0.0..1.0 linear gain
	Muted  func() bool

	OutputSampleRate int // fixed output format the sink expects
	OutputChannels   int

	Reconfigured func() bool // true once per format/rate/channel/serial change

	mu           sync.Mutex
	audioDiffCum float64
	audioDiffAvgCount int
	audioBuf     []byte // leftover bytes from a partially-consumed frame
	bufSerial    int64
	paused       func() bool
}

// SetPaused wires the presenter to the session's pause predicate so Read can
// emit silence instead of blocking when paused.
func (p *AudioPresenter) SetPaused(f func() bool) { p.paused = f }

// Read implements io.Reader for an ebiten audio.Player source. It fills buf
// with s16le interleaved PCM at OutputSampleRate/OutputChannels, pulling
// frames from the queue as needed. Read never returns io.EOF for a live
// stream; once the queue is aborted, a call that has copied no bytes
// returns io.EOF (and every later call does too), so the player stops.
func (p *AudioPresenter) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused != nil && p.paused() {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}

	n := 0
	for n < len(buf) {
		if len(p.audioBuf) == 0 {
			chunk, serial, err := p.nextChunk()
			if err != nil {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			p.audioBuf = chunk
			p.bufSerial = serial
		}
		c := copy(buf[n:], p.audioBuf)
		p.audioBuf = p.audioBuf[c:]
		n += c
	}
	return n, nil
}

// nextChunk pulls the next ready audio frame, applies volume, applies the
// synchronize_audio correction, and updates the audio clock from its pts.
func (p *AudioPresenter) nextChunk() ([]byte, int64, error) {
	fr, err := p.Queue.PeekReadable()
	if err != nil {
		return nil, 0, err
	}
	payload := fr.Audio
	serial := fr.Serial

	if p.Reconfigured != nil && p.Reconfigured() {
		p.audioDiffAvgCount = 0
		p.audioDiffCum = 0
	}

	samples := applyVolume(payload.Samples, p.volume())

	if p.MasterType == nil || p.MasterType() != clock.MasterAudio {
		samples = p.synchronizeAudio(samples, payload)
	}

	bytesPerSample := 2 * p.channels(payload)
	nbSamples := len(samples) / max(1, bytesPerSample)
	now := nowSeconds()
	if !math.IsNaN(fr.PTS) {
		audioClockVal := fr.PTS + float64(nbSamples)/float64(p.rate(payload))
		p.Clock.SetAt(audioClockVal, serial, now)
		if p.ExternalClock != nil {
			p.ExternalClock.SyncSlave(p.Clock, engineconst.AVNoSyncThreshold)
		}
	}

	p.Queue.Next()
	return samples, serial, nil
}

func (p *AudioPresenter) volume() float64 {
	v := 1.0
	if p.Volume != nil {
		v = p.Volume()
	}
	if p.Muted != nil && p.Muted() {
		v = 0
	}
	return v
}

func (p *AudioPresenter) rate(payload frame.AudioPayload) int {
	if payload.SampleRate > 0 {
		return payload.SampleRate
	}
	if p.OutputSampleRate > 0 {
		return p.OutputSampleRate
	}
	return 44100
}

func (p *AudioPresenter) channels(payload frame.AudioPayload) int {
	switch payload.ChannelLayout {
	case "mono":
		return 1
	case "stereo":
		return 2
	}
	if p.OutputChannels > 0 {
		return p.OutputChannels
	}
	return 2
}

// synchronizeAudio tracks a rolling average of the pts-vs-clock diff and,
// once AUDIO_DIFF_AVG_NB samples of history have accumulated and the
// average exceeds the sync threshold, stretches or compresses the buffer by
// adding or dropping whole sample frames (clamped to
// SAMPLE_CORRECTION_PERCENT_MAX). reisen exposes no resampler, so the
// correction works at the frame level rather than ffmpeg's swr_convert.
func (p *AudioPresenter) synchronizeAudio(samples []byte, payload frame.AudioPayload) []byte {
	masterVal := p.master().Get()
	if math.IsNaN(masterVal) {
		return samples
	}

	clockVal := p.Clock.Get()
	if math.IsNaN(clockVal) {
		return samples
	}
	diff := clockVal - masterVal

	if math.Abs(diff) >= engineconst.AVNoSyncThreshold {
		p.audioDiffAvgCount = 0
		p.audioDiffCum = 0
		return samples
	}

	p.audioDiffCum = diff + engineconst.AudioDiffAvgCoef*p.audioDiffCum
	p.audioDiffAvgCount++
	if p.audioDiffAvgCount < engineconst.AudioDiffAvgNB {
		return samples
	}

	avgDiff := p.audioDiffCum * (1 - engineconst.AudioDiffAvgCoef)
	bytesPerSample := 2 * p.channels(payload)
	nbSamples := len(samples) / max(1, bytesPerSample)
	wantedSamples := nbSamples
	threshold := float64(nbSamples) / float64(p.rate(payload))
	if threshold > 0 && math.Abs(avgDiff) > threshold*0.01 {
		wantedSamples = nbSamples + int(diff*float64(p.rate(payload)))
		minSamples := nbSamples * (100 - engineconst.SampleCorrectionPercentMax) / 100
		maxSamples := nbSamples * (100 + engineconst.SampleCorrectionPercentMax) / 100
		if wantedSamples < minSamples {
			wantedSamples = minSamples
		}
		if wantedSamples > maxSamples {
			wantedSamples = maxSamples
		}
	}

	if wantedSamples == nbSamples {
		return samples
	}
	return resampleFrameCount(samples, bytesPerSample, wantedSamples)
}

func (p *AudioPresenter) master() *clock.Clock {
	mt := clock.MasterExternal
	if p.MasterType != nil {
		mt = p.MasterType()
	}
	return clock.Master(mt, p.Clock, p.VideoClock, p.ExternalClock)
}

// resampleFrameCount stretches or truncates samples to exactly wantedSamples
// frames of bytesPerSample each, by dropping or repeating whole frames
// evenly across the buffer.
func resampleFrameCount(samples []byte, bytesPerSample, wantedSamples int) []byte {
	if bytesPerSample <= 0 || wantedSamples <= 0 {
		return samples
	}
	nbSamples := len(samples) / bytesPerSample
	if nbSamples == 0 {
		return samples
	}
	out := make([]byte, wantedSamples*bytesPerSample)
	for i := 0; i < wantedSamples; i++ {
		src := i * nbSamples / wantedSamples
		if src >= nbSamples {
			src = nbSamples - 1
		}
		copy(out[i*bytesPerSample:(i+1)*bytesPerSample], samples[src*bytesPerSample:(src+1)*bytesPerSample])
	}
	return out
}

// applyVolume scales 16-bit little-endian interleaved PCM by gain in place
// on a copy, clamping to avoid wraparound.
func applyVolume(samples []byte, gain float64) []byte {
	if gain == 1.0 {
		return samples
	}
	out := make([]byte, len(samples))
	for i := 0; i+1 < len(samples); i += 2 {
		v := int16(binary.LittleEndian.Uint16(samples[i:]))
		scaled := float64(v) * gain
		if scaled > math.MaxInt16 {
			scaled = math.MaxInt16
		}
		if scaled < math.MinInt16 {
			scaled = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[i:], uint16(int16(scaled)))
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
