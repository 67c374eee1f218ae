// Package engineconst collects the playback engine's numeric tunables, so
// every component references one source of truth instead of re-deriving
// magic numbers.
package engineconst

import (
	"math"
	"time"
)

const (
	MaxQueueSizeBytes = 15 * 1024 * 1024 // ffplay's MAX_QUEUE_SIZE
	MinFrames         = 25               // "enough packets" packet-count threshold

	ExternalClockMinFrames = 2
	ExternalClockMaxFrames = 10
	ExternalClockSpeedMin  = 0.900
	ExternalClockSpeedMax  = 1.010
	ExternalClockSpeedStep = 0.001

	SDLAudioMinBufferSize      = 512 // silence-fill rounding
	SDLAudioMaxCallbacksPerSec = 30
	SDLVolumeStepDB            = 0.75 // volume step, in dB (log domain)

	AVSyncThresholdMin      = 0.04
	AVSyncThresholdMax      = 0.1
	AVSyncFramedupThreshold = 0.1 // delay>0.1 branch
	AVNoSyncThreshold       = 10.0

	SampleCorrectionPercentMax = 10 // ±10% clamp
	AudioDiffAvgNB             = 20

	RefreshRate     = 10 * time.Millisecond
	DemuxerThrottle = 10 * time.Millisecond
	EOFBackoff      = 10 * time.Millisecond
	MinRefreshDelay = 10 * time.Millisecond
	CursorHideDelay = 1 * time.Second

	MaxFrameDurationDiscontinuous = 10 * time.Second
	MaxFrameDurationContinuous    = 3600 * time.Second

	DefaultSeekIncrement = 10 * time.Second
	PageSeekIncrement    = 600 * time.Second
	UpDownSeekIncrement  = 60 * time.Second
)

// AudioDiffAvgCoef is exp(log(0.01)/AudioDiffAvgNB): 20 samples reduce
// influence by 100x.
var AudioDiffAvgCoef = math.Exp(math.Log(0.01) / float64(AudioDiffAvgNB))
