package session

import (
	"math"
	"time"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/engineconst"
)

// TogglePause flips the paused flag and pauses/resumes every clock so
// get_clock keeps returning a frozen value while paused.
func (s *State) TogglePause() {
	s.mu.Lock()
	s.paused = !s.paused
	paused := s.paused
	s.mu.Unlock()

	if !paused {
		// Resuming: re-anchor the external clock at its frozen value so
		// extrapolation continues from here rather than jumping.
		s.ExternalClock.SetAt(s.ExternalClock.Get(), s.ExternalClock.Serial(), nowSeconds())
	}
	s.VideoClock.SetPaused(paused)
	s.AudioClock.SetPaused(paused)
	s.ExternalClock.SetPaused(paused)
}

func nowSeconds() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// RequestSeek queues a seek for the demuxer loop to pick up on its next
// iteration. target is absolute when rel == 0, otherwise rel is a hint used
// only for UI feedback (e.g. "seeking forward").
func (s *State) RequestSeek(target, rel time.Duration, bytes bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seekPending = &demux.SeekRequest{Target: target, Rel: rel, Bytes: bytes}
}

// SeekRelative applies the configured seek ladder (the -seek_interval flag
// and the left/right/page key bindings) against the master clock's
// current position.
func (s *State) SeekRelative(step time.Duration) {
	pos := time.Duration(s.masterClock().Get() * float64(time.Second))
	if pos < 0 {
		pos = 0
	}
	s.RequestSeek(pos+step, step, false)
}

// DefaultSeekStep resolves the configured seek increment, falling back to
// the player's documented default.
func (s *State) DefaultSeekStep() time.Duration {
	if s.Config.SeekInterval > 0 {
		return s.Config.SeekInterval
	}
	return engineconst.DefaultSeekIncrement
}

// SetVolume sets the linear volume in 0..100, clamped.
func (s *State) SetVolume(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.mu.Lock()
	s.volumePercent = percent
	s.mu.Unlock()
}

// AdjustVolume applies ffplay's logarithmic volume-step law
// (SDL_VOLUME_STEP, ~0.75dB per step) in either direction.
func (s *State) AdjustVolume(steps int) {
	s.mu.Lock()
	v := s.volumePercent
	s.mu.Unlock()
	gain := float64(v) / 100
	if gain <= 0 {
		gain = 0.001
	}
	db := 20 * math.Log10(gain)
	db += float64(steps) * engineconst.SDLVolumeStepDB
	gain = math.Pow(10, db/20)
	s.SetVolume(int(gain*100 + 0.5))
}

func (s *State) volumeGain() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.volumePercent) / 100
}

// ToggleMute flips the mute flag.
func (s *State) ToggleMute() {
	s.mu.Lock()
	s.muted = !s.muted
	s.mu.Unlock()
}

// Muted reports the mute flag.
func (s *State) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// StepFrame requests the video presenter advance exactly one frame while
// paused, matching ffplay's step_to_next_frame: resumes briefly, shows one
// frame, then re-pauses.
func (s *State) StepFrame() {
	s.mu.Lock()
	if s.paused {
		s.paused = false
	}
	s.stepPending = true
	s.mu.Unlock()
}

func (s *State) stepPendingFlag() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepPending
}

func (s *State) clearStepPending() {
	s.mu.Lock()
	s.stepPending = false
	s.paused = true
	s.mu.Unlock()
	s.VideoClock.SetPaused(true)
}

// CycleSyncMaster advances the master-clock selection, matching ffplay's
// runtime 's' key toggle.
func (s *State) CycleSyncMaster() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.syncMaster {
	case clock.MasterAudio:
		s.syncMaster = clock.MasterVideo
	case clock.MasterVideo:
		s.syncMaster = clock.MasterExternal
	default:
		s.syncMaster = clock.MasterAudio
	}
}
