// Package clock implements a monotonic PTS tracker: three instances (audio,
// video, external) are held by the session, each tracking a logical media
// time derived from wall-clock drift with pause/speed support and
// obsolescence detection against its feeding queue's serial.
package clock

import (
	"math"
	"sync"
	"time"
)

// nowFunc is swappable in tests so Clock arithmetic can be exercised without
// real sleeps.
var nowFunc = func() float64 { return float64(time.Now().UnixNano()) / 1e9 }

// Clock tracks pts_drift = pts - wall_time_at_last_update, so that reads
// extrapolate forward using wall-clock elapsed time scaled by speed.
type Clock struct {
	mu           sync.Mutex
	pts          float64
	ptsDrift     float64
	lastUpdated  float64
	speed        float64
	paused       bool
	serial       int64
	queueSerial  func() int64 // observes the feeding queue's current serial
}

// New builds a Clock in the invalid (NaN) state with speed 1.0, observing
// queueSerial for obsolescence checks.
func New(queueSerial func() int64) *Clock {
	return &Clock{
		pts:         math.NaN(),
		ptsDrift:    math.NaN(),
		speed:       1.0,
		queueSerial: queueSerial,
	}
}

// Get returns the clock's current value: NaN if obsolete (queue serial no
// longer matches) or never set, pts if paused, else the drift-extrapolated
// value at the current wall time.
func (c *Clock) Get() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getAt(nowFunc())
}

func (c *Clock) getAt(now float64) float64 {
	if c.queueSerial != nil && c.queueSerial() != c.serial {
		return math.NaN()
	}
	if math.IsNaN(c.pts) {
		return math.NaN()
	}
	if c.paused {
		return c.pts
	}
	return c.ptsDrift + now - (now-c.lastUpdated)*(1-c.speed)
}

// Set writes pts at the current wall time, tagged with serial.
func (c *Clock) Set(pts float64, serial int64) {
	c.SetAt(pts, serial, nowFunc())
}

// SetAt writes pts, pts_drift, last_updated, and serial explicitly, used by
// the audio presenter which computes `now` once per callback.
func (c *Clock) SetAt(pts float64, serial int64, now float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pts = pts
	c.lastUpdated = now
	c.ptsDrift = c.pts - now
	c.serial = serial
}

// SetSpeed re-anchors the clock at its currently-computed pts, then updates
// speed, so the extrapolation formula stays continuous across the change.
func (c *Clock) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pts := c.getAt(nowFunc())
	now := nowFunc()
	if !math.IsNaN(pts) {
		c.pts = pts
		c.lastUpdated = now
		c.ptsDrift = c.pts - now
	}
	c.speed = speed
}

// Speed returns the clock's current speed.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetPaused sets the paused flag. While paused, Get returns pts unchanged.
func (c *Clock) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = paused
}

// Paused reports the clock's paused flag.
func (c *Clock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// Serial returns the serial this clock's value derives from.
func (c *Clock) Serial() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serial
}

// MasterType selects which of the three clocks is authoritative.
type MasterType int

const (
	MasterAudio MasterType = iota
	MasterVideo
	MasterExternal
)

// Master returns the clock the given sync type designates as authoritative.
// It does no fallback of its own: the nominated clock is returned even when
// obsolete (session.State.MasterType falls back when a stream is inactive).
func Master(sync MasterType, audio, video, external *Clock) *Clock {
	switch sync {
	case MasterVideo:
		return video
	case MasterAudio:
		return audio
	default:
		return external
	}
}

// SyncSlave re-bases self from other when other is valid and either self is
// invalid or the two differ by more than the no-sync threshold. Used to
// re-base the external clock from whichever of audio/video is authoritative.
func (c *Clock) SyncSlave(other *Clock, noSyncThreshold float64) {
	selfVal := c.Get()
	otherVal := other.Get()
	if math.IsNaN(otherVal) {
		return
	}
	if math.IsNaN(selfVal) || math.Abs(selfVal-otherVal) > noSyncThreshold {
		c.Set(otherVal, other.Serial())
	}
}
