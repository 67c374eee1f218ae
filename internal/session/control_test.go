package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/engineconst"
)

func TestTogglePausePropagatesToEveryClock(t *testing.T) {
	s := newTestState(0, 0)
	assert.False(t, s.Paused())

	s.TogglePause()
	assert.True(t, s.Paused())
	assert.True(t, s.VideoClock.Paused())
	assert.True(t, s.AudioClock.Paused())
	assert.True(t, s.ExternalClock.Paused())

	s.TogglePause()
	assert.False(t, s.Paused())
	assert.False(t, s.VideoClock.Paused())
}

func TestSetVolumeClampsToPercentRange(t *testing.T) {
	s := newTestState(0, 0)
	s.SetVolume(150)
	assert.Equal(t, 1.0, s.volumeGain())

	s.SetVolume(-10)
	assert.Equal(t, 0.0, s.volumeGain())

	s.SetVolume(50)
	assert.Equal(t, 0.5, s.volumeGain())
}

func TestAdjustVolumeStepsUpAndDown(t *testing.T) {
	s := newTestState(0, 0)
	s.SetVolume(50)

	s.AdjustVolume(1)
	assert.Greater(t, s.volumeGain(), 0.5)

	s.SetVolume(50)
	s.AdjustVolume(-1)
	assert.Less(t, s.volumeGain(), 0.5)
}

func TestToggleMuteFlipsFlag(t *testing.T) {
	s := newTestState(0, 0)
	assert.False(t, s.Muted())
	s.ToggleMute()
	assert.True(t, s.Muted())
	s.ToggleMute()
	assert.False(t, s.Muted())
}

func TestStepFrameResumesAndRequestsStep(t *testing.T) {
	s := newTestState(0, 0)
	s.TogglePause() // paused
	assert.True(t, s.Paused())

	s.StepFrame()
	assert.False(t, s.Paused())
	assert.True(t, s.stepPendingFlag())

	s.clearStepPending()
	assert.False(t, s.stepPendingFlag())
	assert.True(t, s.Paused())
	assert.True(t, s.VideoClock.Paused())
}

func TestCycleSyncMasterRotatesThroughAllThree(t *testing.T) {
	s := newTestState(0, 0)
	assert.Equal(t, clock.MasterAudio, s.syncMaster)

	s.CycleSyncMaster()
	assert.Equal(t, clock.MasterVideo, s.syncMaster)

	s.CycleSyncMaster()
	assert.Equal(t, clock.MasterExternal, s.syncMaster)

	s.CycleSyncMaster()
	assert.Equal(t, clock.MasterAudio, s.syncMaster)
}

func TestRequestSeekQueuesSeekForDemuxLoop(t *testing.T) {
	s := newTestState(0, 0)
	_, ok := s.TakeSeekRequest()
	assert.False(t, ok)

	s.RequestSeek(5_000_000_000, 0, false)
	req, ok := s.TakeSeekRequest()
	assert.True(t, ok)
	assert.EqualValues(t, 5_000_000_000, req.Target)

	// consumed exactly once
	_, ok = s.TakeSeekRequest()
	assert.False(t, ok)
}

func TestDefaultSeekStepFallsBackWhenUnconfigured(t *testing.T) {
	s := newTestState(0, 0)
	assert.Equal(t, engineconst.DefaultSeekIncrement, s.DefaultSeekStep())

	s.Config.SeekInterval = 30 * time.Second
	assert.Equal(t, 30*time.Second, s.DefaultSeekStep())
}
