package demux

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erparts/avplay/internal/engineconst"
	"github.com/erparts/avplay/internal/packet"
)

func fillPackets(q *packet.Queue, n int, durationEach float64) {
	for i := 0; i < n; i++ {
		_ = q.Put(packet.Packet{StreamIndex: 0, Duration: durationEach, Size: 1})
	}
}

func TestStreamHasEnoughPacketsNilQueueAlwaysEnough(t *testing.T) {
	assert.True(t, streamHasEnoughPackets(nil))
}

func TestStreamHasEnoughPacketsAbortedAlwaysEnough(t *testing.T) {
	q := packet.New()
	q.Abort()
	assert.True(t, streamHasEnoughPackets(q))
}

func TestStreamHasEnoughPacketsRequiresCountAndDuration(t *testing.T) {
	q := packet.New()
	fillPackets(q, engineconst.MinFrames+1, 0.01) // enough count, not enough duration
	assert.False(t, streamHasEnoughPackets(q))

	q2 := packet.New()
	fillPackets(q2, engineconst.MinFrames+1, 0.1) // > MinFrames * 0.1 = well over 1s
	assert.True(t, streamHasEnoughPackets(q2))

	q3 := packet.New()
	fillPackets(q3, 1, 10.0) // long duration but too few packets
	assert.False(t, streamHasEnoughPackets(q3))
}

func TestEnoughPacketsNeverThrottlesRealtimeSources(t *testing.T) {
	q := packet.New()
	l := &Loop{
		Realtime: true,
		Video:    StreamQueue{Index: 0, Queue: q},
		Audio:    StreamQueue{Index: -1},
		Subtitle: StreamQueue{Index: -1},
	}
	assert.False(t, l.enoughPackets())
}

func TestEnoughPacketsThrottlesOnAggregateByteSize(t *testing.T) {
	q := packet.New()
	_ = q.Put(packet.Packet{StreamIndex: 0, Size: engineconst.MaxQueueSizeBytes + 1})
	l := &Loop{
		Video:    StreamQueue{Index: 0, Queue: q},
		Audio:    StreamQueue{Index: -1},
		Subtitle: StreamQueue{Index: -1},
	}
	assert.True(t, l.enoughPackets())
}

func TestEnoughPacketsRequiresEveryActiveStreamToHaveEnough(t *testing.T) {
	full := packet.New()
	fillPackets(full, engineconst.MinFrames+1, 0.1)
	empty := packet.New()

	l := &Loop{
		Video:    StreamQueue{Index: 0, Queue: full},
		Audio:    StreamQueue{Index: 1, Queue: empty},
		Subtitle: StreamQueue{Index: -1},
	}
	assert.False(t, l.enoughPackets()) // audio queue isn't full yet
}

func TestStreamForFindsMatchingQueueByIndex(t *testing.T) {
	v := StreamQueue{Index: 0, Queue: packet.New()}
	a := StreamQueue{Index: 1, Queue: packet.New()}
	l := &Loop{Video: v, Audio: a, Subtitle: StreamQueue{Index: -1, Queue: packet.New()}}

	assert.Same(t, &l.Audio, l.streamFor(1))
	assert.Nil(t, l.streamFor(99))
}

// fakeRewindSource only implements Rewind (the only method doSeek calls on
// Source); the other Source methods are unused by this test.
type fakeRewindSource struct {
	rewound map[int]time.Duration
}

func (f *fakeRewindSource) FormatName() string          { return "" }
func (f *fakeRewindSource) Streams() []StreamInfo       { return nil }
func (f *fakeRewindSource) OpenDecode() error            { return nil }
func (f *fakeRewindSource) CloseDecode() error           { return nil }
func (f *fakeRewindSource) Close() error                 { return nil }
func (f *fakeRewindSource) OpenStream(index int) error   { return nil }
func (f *fakeRewindSource) CloseStream(index int) error  { return nil }
func (f *fakeRewindSource) ReadPacket() (RawPacket, bool, error) {
	return RawPacket{}, false, nil
}
func (f *fakeRewindSource) ReadVideoFrame(streamIndex int) (RawFrame, bool, error) {
	return RawFrame{}, false, nil
}
func (f *fakeRewindSource) ReadAudioFrame(streamIndex int) (RawFrame, bool, error) {
	return RawFrame{}, false, nil
}
func (f *fakeRewindSource) Rewind(streamIndex int, target time.Duration) error {
	f.rewound[streamIndex] = target
	return nil
}

type fakeHost struct {
	externalResetByteSeek bool
	externalResetTarget   float64
	externalResetSerial   int64
}

func (h *fakeHost) Paused() bool                         { return false }
func (h *fakeHost) TakeSeekRequest() (SeekRequest, bool)  { return SeekRequest{}, false }
func (h *fakeHost) ResetExternalClock(byteSeek bool, target float64, serial int64) {
	h.externalResetByteSeek = byteSeek
	h.externalResetTarget = target
	h.externalResetSerial = serial
}
func (h *fakeHost) DecodersDrained() bool { return true }
func (h *fakeHost) LoopCount() int        { return 0 }
func (h *fakeHost) SetLoopCount(n int)    {}
func (h *fakeHost) AutoExit() bool        { return false }
func (h *fakeHost) Quit()                 {}
func (h *fakeHost) PlayRangeSeconds() (float64, float64) { return 0, 0 }

func TestDoSeekFlushesQueuesAndResetsClockForTimeSeek(t *testing.T) {
	videoQ := packet.New()
	videoQ.Start()
	fillPackets(videoQ, 5, 0.1)

	src := &fakeRewindSource{rewound: map[int]time.Duration{}}
	host := &fakeHost{}
	l := &Loop{
		Source:   src,
		Host:     host,
		Video:    StreamQueue{Index: 0, Queue: videoQ},
		Audio:    StreamQueue{Index: -1},
		Subtitle: StreamQueue{Index: -1},
	}

	require.NoError(t, l.doSeek(SeekRequest{Target: 5 * time.Second}))

	assert.Equal(t, 5*time.Second, src.rewound[0])
	assert.Equal(t, 1, videoQ.NbPackets()) // flush dropped old packets, one flush sentinel remains
	assert.False(t, host.externalResetByteSeek)
	assert.InDelta(t, 5.0, host.externalResetTarget, 1e-9)
}

func TestDoSeekResetsClockToNaNForByteSeek(t *testing.T) {
	videoQ := packet.New()
	videoQ.Start()

	src := &fakeRewindSource{rewound: map[int]time.Duration{}}
	host := &fakeHost{}
	l := &Loop{
		Source:   src,
		Host:     host,
		Video:    StreamQueue{Index: 0, Queue: videoQ},
		Audio:    StreamQueue{Index: -1},
		Subtitle: StreamQueue{Index: -1},
	}

	require.NoError(t, l.doSeek(SeekRequest{Bytes: true}))
	assert.True(t, host.externalResetByteSeek)
}
