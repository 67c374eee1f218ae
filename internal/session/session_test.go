package session

import (
	"time"

	"github.com/erparts/avplay/internal/clock"
	"github.com/erparts/avplay/internal/config"
	"github.com/erparts/avplay/internal/demux"
)

// fakeSource is a minimal demux.Source double so State can be exercised
// without a real media file.
type fakeSource struct {
	streams []demux.StreamInfo
}

func (f *fakeSource) FormatName() string            { return "fake" }
func (f *fakeSource) Streams() []demux.StreamInfo    { return f.streams }
func (f *fakeSource) OpenDecode() error              { return nil }
func (f *fakeSource) CloseDecode() error             { return nil }
func (f *fakeSource) Close() error                   { return nil }
func (f *fakeSource) OpenStream(index int) error     { return nil }
func (f *fakeSource) CloseStream(index int) error    { return nil }
func (f *fakeSource) ReadPacket() (demux.RawPacket, bool, error) {
	return demux.RawPacket{}, false, nil
}
func (f *fakeSource) ReadVideoFrame(streamIndex int) (demux.RawFrame, bool, error) {
	return demux.RawFrame{}, false, nil
}
func (f *fakeSource) ReadAudioFrame(streamIndex int) (demux.RawFrame, bool, error) {
	return demux.RawFrame{}, false, nil
}
func (f *fakeSource) Rewind(streamIndex int, target time.Duration) error { return nil }

// newTestState builds a State with inert components, enough to exercise
// control-flow methods (pause, volume, sync-master, seek bookkeeping, clock
// selection) without running the demuxer/decoder/presenter goroutines.
func newTestState(videoDuration, audioDuration time.Duration) *State {
	streams := []demux.StreamInfo{
		{Index: 0, Type: demux.StreamVideo, Duration: videoDuration},
		{Index: 1, Type: demux.StreamAudio, Duration: audioDuration},
	}
	s := &State{
		Config:        &config.Config{Volume: 100},
		Source:        &fakeSource{streams: streams},
		quitCh:        make(chan struct{}),
		volumePercent: 100,
		Video:         component{Index: 0},
		Audio:         component{Index: 1},
		Subtitle:      component{Index: -1},
	}
	s.VideoClock = clock.New(func() int64 { return 0 })
	s.AudioClock = clock.New(func() int64 { return 0 })
	s.ExternalClock = clock.New(func() int64 { return s.ExternalClock.Serial() })
	return s
}
