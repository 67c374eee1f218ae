// Package presenter implements the two consumer ends of the pipeline: a
// refresh-timer-driven video presenter and a pull-callback audio presenter,
// both reading from internal/frame queues and steering off internal/clock.
package presenter

import (
	"context"
	"math"
	"time"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/engineconst"
	"github.com/erparts/avplay/internal/frame"
)

// Display is the sink a VideoPresenter writes shown frames to. Subtitle
// frames are passed alongside so the sink can composite an overlay; nil
// means none is active for the current tick.
type Display interface {
	PresentVideo(video, subtitle *frame.Frame) error
}

// VideoPresenter is a refresh-timer loop that pops ready frames from the
// video frame queue, computes how long to hold each one via
// computeTargetDelay, drops frames that have fallen too far behind the
// master clock (frame-drop-late), and calls Display.PresentVideo otherwise.
type VideoPresenter struct {
	Queue         *frame.Queue
	SubtitleQueue *frame.Queue // nil when no subtitle stream is active

	VideoClock, AudioClock, ExternalClock *clock.Clock
	MasterType                            func() clock.MasterType

	Display Display

	Paused        func() bool
	StepRequested func() bool // consumed via ConsumeStep
	ConsumeStep   func()

	FramedropEnabled func() bool

	FrameDropsLate int64

	frameTimer      float64
	lastShownSerial int64
}

// master resolves the authoritative clock per the session's current sync
// type.
func (p *VideoPresenter) master() *clock.Clock {
	mt := clock.MasterVideo
	if p.MasterType != nil {
		mt = p.MasterType()
	}
	return clock.Master(mt, p.AudioClock, p.VideoClock, p.ExternalClock)
}

// Run drives the refresh timer until ctx is canceled, making a per-tick
// decision of "sleep, re-check, or present."
func (p *VideoPresenter) Run(ctx context.Context) error {
	p.frameTimer = nowSeconds()
	for {
		if ctx.Err() != nil {
			return nil
		}

		remaining := p.tick()
		if remaining > 0 {
			sleepCtx(ctx, remaining)
			continue
		}
	}
}

// tick implements one pass of ffplay's video_refresh: if paused and no step
// is pending, nothing to do; otherwise peek the next frame, compute its
// target delay against the currently-shown frame, and either wait for it,
// drop it (frame-drop-late), or present it. Presenting sets the video clock
// to the frame's pts and re-bases the external clock from it. Returns how
// long to sleep before the next tick (0 meaning "call again immediately",
// e.g. right after a present or drop).
func (p *VideoPresenter) tick() time.Duration {
	if p.Queue == nil {
		return engineconst.MinRefreshDelay
	}

	stepping := p.StepRequested != nil && p.StepRequested()
	if p.Paused != nil && p.Paused() && !stepping {
		return engineconst.RefreshRate
	}

	if p.Queue.NbRemaining() <= 0 {
		return engineconst.RefreshRate
	}
	cur := p.Queue.Peek()
	hasNext := p.Queue.NbRemaining() > 1
	var next *frame.Frame
	if hasNext {
		next = p.Queue.PeekNext()
	}

	if cur.Serial != p.lastShownSerial {
		p.frameTimer = nowSeconds()
	}

	lastShown := p.Queue.PeekLast()
	lastDuration := p.frameDuration(lastShown, cur, true)
	delay := p.computeTargetDelay(lastDuration)

	now := nowSeconds()
	if now < p.frameTimer+delay && !stepping {
		return durationUntil(p.frameTimer + delay)
	}

	p.frameTimer += delay
	if delay > 0 && now-p.frameTimer > engineconst.AVSyncThresholdMax {
		p.frameTimer = now
	}

	if p.VideoClock != nil {
		p.VideoClock.Set(cur.PTS, cur.Serial)
		if p.ExternalClock != nil {
			p.ExternalClock.SyncSlave(p.VideoClock, engineconst.AVNoSyncThreshold)
		}
	}

	if hasNext && !stepping {
		duration := p.frameDuration(cur, next, true)
		if p.shouldDropLate(now, duration, cur, next) {
			p.FrameDropsLate++
			p.Queue.Next()
			return 0
		}
	}

	var sub *frame.Frame
	if p.SubtitleQueue != nil && p.SubtitleQueue.NbRemaining() > 0 {
		sub = p.SubtitleQueue.Peek()
	}
	if p.Display != nil {
		_ = p.Display.PresentVideo(cur, sub)
	}
	p.lastShownSerial = cur.Serial
	p.Queue.Next()

	if stepping && p.ConsumeStep != nil {
		p.ConsumeStep()
	}
	return 0
}

// frameDuration returns the duration to hold cur, clamped against next's pts
// delta, matching ffplay's vp_duration helper. Called both as
// frameDuration(lastShown, cur) to derive last_duration (how long the
// previously-shown frame was held) and as frameDuration(cur, next) to derive
// the hold duration cur itself is due for.
func (p *VideoPresenter) frameDuration(cur, next *frame.Frame, hasNext bool) float64 {
	if !hasNext || next.Serial != cur.Serial {
		return cur.Duration
	}
	d := next.PTS - cur.PTS
	if math.IsNaN(d) || d <= 0 || d > engineconst.MaxFrameDurationContinuous.Seconds() {
		return cur.Duration
	}
	return d
}

// computeTargetDelay follows ffplay's compute_target_delay: when video isn't
// the master clock, diff = video clock - master clock and the sync threshold
// is duration clamped to [AVSyncThresholdMin, AVSyncThresholdMax]. If video
// is behind by at least the threshold the delay becomes max(0, duration+diff);
// if ahead by at least the threshold it becomes duration+diff for frames
// longer than AVSyncFramedupThreshold and 2*duration otherwise. Diffs that
// are NaN or beyond AV_NOSYNC_THRESHOLD leave the duration unchanged.
func (p *VideoPresenter) computeTargetDelay(duration float64) float64 {
	delay := duration
	mt := clock.MasterVideo
	if p.MasterType != nil {
		mt = p.MasterType()
	}
	if mt == clock.MasterVideo {
		return delay
	}

	diff := p.VideoClock.Get() - p.master().Get()
	if math.IsNaN(diff) {
		return delay
	}

	syncThreshold := math.Max(engineconst.AVSyncThresholdMin, math.Min(engineconst.AVSyncThresholdMax, duration))
	if !math.IsNaN(diff) && math.Abs(diff) < engineconst.AVNoSyncThreshold {
		if diff <= -syncThreshold {
			delay = math.Max(0, duration+diff)
		} else if diff >= syncThreshold && duration > engineconst.AVSyncFramedupThreshold {
			delay = duration + diff
		} else if diff >= syncThreshold {
			delay = 2 * duration
		}
	}
	return delay
}

// shouldDropLate is the frame-drop-late predicate: once the current frame's
// hold duration has fully elapsed (now past frameTimer+duration) and
// framedrop is enabled, skip straight to the next frame rather than
// presenting a stale one.
func (p *VideoPresenter) shouldDropLate(now, duration float64, cur, next *frame.Frame) bool {
	if p.FramedropEnabled != nil && !p.FramedropEnabled() {
		return false
	}
	return now > p.frameTimer+duration && next.Serial == cur.Serial
}

var nowSeconds = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }

func durationUntil(target float64) time.Duration {
	d := target - nowSeconds()
	if d < 0 {
		d = 0
	}
	return time.Duration(d * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d > engineconst.RefreshRate {
		d = engineconst.RefreshRate
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
