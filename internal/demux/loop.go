package demux

import (
	"context"
	"math"
	"time"

	"github.com/erparts/avplay/internal/engineconst"
	"github.com/erparts/avplay/internal/logging"
	"github.com/erparts/avplay/internal/packet"
)

// SeekRequest carries a pending seek: an absolute target plus a relative
// hint and the byte/time flag.
type SeekRequest struct {
	Target time.Duration
	Rel    time.Duration
	Bytes  bool
}

// StreamQueue pairs a stream's index with its packet queue. Index is -1 for
// a disabled/unselected component.
type StreamQueue struct {
	Index int
	Queue *packet.Queue
}

// Host is the set of session callbacks the demuxer loop needs, kept narrow
// so internal/demux has no dependency on internal/session (session depends
// on demux, not the reverse).
type Host interface {
	// Paused reports whether playback is currently paused.
	Paused() bool
	// TakeSeekRequest returns a pending seek request and clears it, or
	// ok=false if none is pending.
	TakeSeekRequest() (req SeekRequest, ok bool)
	// ResetExternalClock resets the external clock: to NaN for byte seeks,
	// to target seconds (serial bumped) for time seeks.
	ResetExternalClock(byteSeek bool, targetSeconds float64, serial int64)
	// DecodersDrained reports whether every active decoder has signaled EOF
	// at the current serial and its frame queue is empty.
	DecodersDrained() bool
	// LoopCount returns the remaining loop count: 0 means stop at EOF,
	// negative means loop indefinitely, positive decrements per lap.
	LoopCount() int
	SetLoopCount(n int)
	AutoExit() bool
	// Quit is invoked when playback should terminate (EOF + autoexit, or a
	// fatal condition).
	Quit()
	// PlayRangeSeconds returns [start, end) in seconds; end<=0 means
	// unbounded.
	PlayRangeSeconds() (start, end float64)
}

// Loop runs the demuxer goroutine body until ctx is canceled or Host.Quit
// fires. video/audio/subtitle may have Index == -1 when that component
// isn't selected; their Queue is still non-nil so flush sentinels can be
// broadcast uniformly.
type Loop struct {
	Source    Source
	Host      Host
	Video     StreamQueue
	Audio     StreamQueue
	Subtitle  StreamQueue
	Realtime  bool
	URL       string
	eofSignaled bool
}

func (l *Loop) active(sq StreamQueue) bool { return sq.Index >= 0 }

func (l *Loop) queues() []StreamQueue {
	out := make([]StreamQueue, 0, 3)
	for _, sq := range []StreamQueue{l.Video, l.Audio, l.Subtitle} {
		if l.active(sq) {
			out = append(out, sq)
		}
	}
	return out
}

// Run executes the loop body until ctx is done. It is meant to run inside an
// errgroup goroutine alongside the decoder workers.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if req, ok := l.Host.TakeSeekRequest(); ok {
			if err := l.doSeek(req); err != nil {
				logging.Warnf("seek failed: %v", err)
			}
		}

		if l.enoughPackets() {
			l.wait(engineconst.DemuxerThrottle)
			continue
		}

		if l.eofSignaled && !l.Host.Paused() && l.Host.DecodersDrained() {
			n := l.Host.LoopCount()
			if n > 1 {
				l.Host.SetLoopCount(n - 1)
				_ = l.doSeek(SeekRequest{Target: 0})
				continue
			} else if n < 0 {
				_ = l.doSeek(SeekRequest{Target: 0})
				continue
			} else if l.Host.AutoExit() {
				l.Host.Quit()
				return nil
			}
			l.wait(engineconst.DemuxerThrottle)
			continue
		}

		pkt, found, err := l.Source.ReadPacket()
		if err != nil || !found {
			if !l.eofSignaled {
				for _, sq := range l.queues() {
					_ = sq.Queue.Put(packet.EOF(sq.Index))
				}
				l.eofSignaled = true
			}
			l.wait(engineconst.EOFBackoff)
			continue
		}
		l.eofSignaled = false

		start, end := l.Host.PlayRangeSeconds()
		if end > 0 && pkt.PTS >= 0 && pkt.HasPTS && pkt.PTS > end {
			continue
		}
		if start > 0 && pkt.HasDTS && pkt.DTS < start {
			continue
		}

		sq := l.streamFor(pkt.StreamIndex)
		if sq == nil {
			continue
		}

		var attachment any
		switch pkt.Type {
		case StreamVideo:
			if rf, found, err := l.Source.ReadVideoFrame(pkt.StreamIndex); err == nil && found {
				attachment = rf
			}
		case StreamAudio:
			if rf, found, err := l.Source.ReadAudioFrame(pkt.StreamIndex); err == nil && found {
				attachment = rf
			}
		}

		_ = sq.Queue.Put(packet.Packet{
			StreamIndex: pkt.StreamIndex,
			Data:        pkt.Data,
			Size:        pkt.Size,
			Duration:    pkt.Duration,
			PTS:         pkt.PTS,
			DTS:         pkt.DTS,
			HasPTS:      pkt.HasPTS,
			HasDTS:      pkt.HasDTS,
			Attachment:  attachment,
		})
	}
}

func (l *Loop) streamFor(index int) *StreamQueue {
	for _, sq := range []*StreamQueue{&l.Video, &l.Audio, &l.Subtitle} {
		if sq.Index == index {
			return sq
		}
	}
	return nil
}

// wait is a plain sleep for d; neither ctx cancellation nor a queue abort
// cuts it short. Callers pass short waits, and the next loop iteration
// re-checks ctx and the quit state.
func (l *Loop) wait(d time.Duration) { time.Sleep(d) }

// enoughPackets is the demuxer's throttle predicate: realtime sources are
// never throttled; otherwise throttle when the aggregate byte size exceeds
// MAX_QUEUE_SIZE or every active stream individually has "enough packets"
// queued.
func (l *Loop) enoughPackets() bool {
	if l.Realtime {
		return false
	}
	total := 0
	for _, sq := range l.queues() {
		total += sq.Queue.Size()
	}
	if total > engineconst.MaxQueueSizeBytes {
		return true
	}
	for _, sq := range l.queues() {
		if !streamHasEnoughPackets(sq.Queue) {
			return false
		}
	}
	return true
}

// streamHasEnoughPackets is the per-stream predicate matching ffplay's
// stream_has_enough_packets, with explicit parentheses for its boolean
// precedence: aborted OR (count > MinFrames AND (duration unknown OR
// duration in seconds > 1.0)).
func streamHasEnoughPackets(q *packet.Queue) bool {
	if q == nil {
		return true
	}
	if q.Aborted() {
		return true
	}
	count := q.NbPackets()
	durUnknown := false // packet.Queue always tracks a concrete duration sum
	dur := q.Duration()
	return count > engineconst.MinFrames && (durUnknown || dur > 1.0)
}

// doSeek translates the request, invokes the source seek primitive per
// active stream, flushes queues, injects a flush sentinel, and resets the
// external clock.
func (l *Loop) doSeek(req SeekRequest) error {
	for _, sq := range l.queues() {
		if err := l.Source.Rewind(sq.Index, req.Target); err != nil {
			return err
		}
		sq.Queue.Flush()
		_ = sq.Queue.Put(packet.Flush())
	}
	if req.Bytes {
		l.Host.ResetExternalClock(true, math.NaN(), 0)
	} else {
		l.Host.ResetExternalClock(false, req.Target.Seconds(), l.Video.Queue.Serial())
	}
	return nil
}
