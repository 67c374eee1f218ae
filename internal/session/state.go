// Package session implements the player's session state and component
// lifecycle: it owns every queue, clock, decoder worker, and presenter for
// one open media source, and exposes the control operations (pause, seek,
// volume, stream cycling, frame-step) the player needs.
package session

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/config"
	"github.com/erparts/avplay/internal/decode"
	"github.com/erparts/avplay/internal/demux"
	"github.com/erparts/avplay/internal/frame"
	"github.com/erparts/avplay/internal/packet"
	"github.com/erparts/avplay/internal/presenter"
)

// component bundles the three layers a stream kind owns: packet queue,
// frame queue, and decoder worker. Index is -1 when the kind wasn't
// selected (a disabled component).
type component struct {
	Index      int
	PacketQueue *packet.Queue
	FrameQueue  *frame.Queue
	Worker      *decode.Worker
}

func (c component) active() bool { return c.Index >= 0 }

// State is the session's PlayerState: every piece of mutable playback state
// plus the wired pipeline components. Exported presenters (Video/Audio) are
// read by cmd/avplay to drive the display sink and the audio output player.
type State struct {
	Config *config.Config
	Source demux.Source

	Video, Audio, Subtitle component

	VideoClock, AudioClock, ExternalClock *clock.Clock

	VideoDecoder    *decode.VideoDecoder
	AudioDecoder    *decode.AudioDecoder
	SubtitleDecoder *decode.SubtitleDecoder

	DemuxLoop *demux.Loop

	VideoPresenter *presenter.VideoPresenter
	AudioPresenter *presenter.AudioPresenter

	mu            sync.Mutex
	paused        bool
	muted         bool
	volumePercent int
	loopCount     int
	seekPending   *demux.SeekRequest
	stepPending   bool
	syncMaster    clock.MasterType

	quitOnce sync.Once
	quitCh   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Context returns the session's lifetime context, canceled when Quit is
// called; callers (the video presenter's refresh loop, in particular) use
// it to stop promptly rather than running until process exit.
func (s *State) Context() context.Context { return s.ctx }

// MasterType resolves the effective master clock: the configured sync type,
// falling back to whichever component is actually active (ffplay's
// get_master_sync_type fallback chain, generalized to honor -an/-vn).
func (s *State) MasterType() clock.MasterType {
	s.mu.Lock()
	want := s.syncMaster
	s.mu.Unlock()

	switch want {
	case clock.MasterVideo:
		if s.Video.active() {
			return clock.MasterVideo
		}
	case clock.MasterAudio:
		if s.Audio.active() {
			return clock.MasterAudio
		}
	default:
		return clock.MasterExternal
	}
	if s.Audio.active() {
		return clock.MasterAudio
	}
	if s.Video.active() {
		return clock.MasterVideo
	}
	return clock.MasterExternal
}

// Paused implements demux.Host.
func (s *State) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// TakeSeekRequest implements demux.Host.
func (s *State) TakeSeekRequest() (demux.SeekRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seekPending == nil {
		return demux.SeekRequest{}, false
	}
	req := *s.seekPending
	s.seekPending = nil
	return req, true
}

// ResetExternalClock implements demux.Host.
func (s *State) ResetExternalClock(byteSeek bool, targetSeconds float64, serial int64) {
	if byteSeek {
		s.ExternalClock.Set(math.NaN(), s.ExternalClock.Serial())
		return
	}
	s.ExternalClock.Set(targetSeconds, serial)
}

// DecodersDrained implements demux.Host: every active component's worker has
// observed EOF at its queue's current serial and its frame queue is empty.
func (s *State) DecodersDrained() bool {
	for _, c := range []component{s.Video, s.Audio, s.Subtitle} {
		if !c.active() {
			continue
		}
		if c.Worker.Finished() != c.PacketQueue.Serial() {
			return false
		}
		if c.FrameQueue.NbRemaining() > 0 {
			return false
		}
	}
	return true
}

// LoopCount implements demux.Host.
func (s *State) LoopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopCount
}

// SetLoopCount implements demux.Host.
func (s *State) SetLoopCount(n int) {
	s.mu.Lock()
	s.loopCount = n
	s.mu.Unlock()
}

// AutoExit implements demux.Host.
func (s *State) AutoExit() bool { return s.Config.AutoExit }

// Quit implements demux.Host: closes the quit channel exactly once, cancels
// the session context, and aborts every active packet queue (waking its
// frame queue) so blocked decoder workers and presenters return.
func (s *State) Quit() {
	s.quitOnce.Do(func() { close(s.quitCh) })
	if s.cancel != nil {
		s.cancel()
	}
	for _, c := range []component{s.Video, s.Audio, s.Subtitle} {
		if c.active() && c.PacketQueue != nil {
			c.PacketQueue.Abort()
			c.FrameQueue.Signal()
		}
	}
}

// Done returns a channel closed once Quit has been called.
func (s *State) Done() <-chan struct{} { return s.quitCh }

// PlayRangeSeconds implements demux.Host.
func (s *State) PlayRangeSeconds() (float64, float64) {
	start := s.Config.StartTime.Seconds()
	end := 0.0
	if s.Config.Duration > 0 {
		end = start + s.Config.Duration.Seconds()
	}
	return start, end
}

// masterClock resolves the clock.Clock matching MasterType, used by
// diagnostics/status formatting.
func (s *State) masterClock() *clock.Clock {
	return clock.Master(s.MasterType(), s.AudioClock, s.VideoClock, s.ExternalClock)
}

// Duration returns the selected media's total length, preferring the video
// stream's duration and falling back to the audio stream's. Zero if
// neither is known (e.g. a live source).
func (s *State) Duration() time.Duration {
	for _, info := range s.Source.Streams() {
		if s.Video.active() && info.Index == s.Video.Index {
			return info.Duration
		}
	}
	for _, info := range s.Source.Streams() {
		if s.Audio.active() && info.Index == s.Audio.Index {
			return info.Duration
		}
	}
	return 0
}

// Position returns the current playback position.
func (s *State) Position() time.Duration {
	pos := s.masterClock().Get()
	if pos < 0 || math.IsNaN(pos) {
		return 0
	}
	return time.Duration(pos * float64(time.Second))
}
