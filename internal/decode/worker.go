// Package decode implements the decoder workers: one per stream
// (video/audio/subtitle), sharing a common outer loop and diverging only in
// how a decoded payload becomes a published frame.Frame — modeled as a
// capability set (DecodeOne/Flush) rather than three
// unrelated worker loops.
//
// reisen couples demuxing and decoding in a single call pair
// (ReadPacket+ReadVideoFrame/ReadAudioFrame operate on the same underlying
// codec context), so the packet this worker receives already carries its
// decoded payload as an attachment stashed by the demuxer loop at read time
// (see internal/demux.Loop). The decoder worker's job is everything
// downstream of that: pts rebase, duration estimation, framedrop-early,
// filter-graph rebuild bookkeeping, and publishing into the frame queue —
// not raw bitstream decoding, which reisen has already done.
package decode

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/frame"
	"github.com/erparts/avplay/internal/packet"
)

// Capability is the set of operations a concrete decoder kind implements.
// DecodeOne receives the packet and its reisen-decoded attachment (nil if
// reisen produced no frame for this packet) and returns the published
// frame, or errs.ErrAgain if nothing should be published this iteration
// (errs.ErrStale when a video frame is dropped early).
type Capability interface {
	DecodeOne(pkt packet.Packet, attachment any) (frame.Frame, error)
	Flush()
}

// Worker runs the shared outer loop for one decoder kind.
type Worker struct {
	PacketQueue *packet.Queue
	FrameQueue  *frame.Queue
	Decoder     Capability

	pktSerial int64
	finished  atomic.Int64 // serial at which EOF was observed, 0 = not finished

	mu sync.Mutex
}

// Finished reports the serial EOF was last observed at (0 if not finished).
func (w *Worker) Finished() int64 { return w.finished.Load() }

// Run executes the worker loop until the packet queue is aborted. It is
// meant to run inside an errgroup goroutine alongside the demuxer and the
// other decoder workers.
func (w *Worker) Run() error {
	for {
		pkt, serial, err := w.PacketQueue.Get(true)
		if errors.Is(err, errs.ErrAborted) {
			return nil
		}
		if err != nil {
			continue
		}

		if serial != w.pktSerial {
			// Stale relative to our last-seen epoch: resync silently.
			w.pktSerial = serial
		}

		switch {
		case pkt.IsFlush():
			w.Decoder.Flush()
			w.finished.Store(0)
			continue
		case pkt.IsEOF():
			w.finished.Store(serial)
			continue
		}

		fr, derr := w.Decoder.DecodeOne(pkt, pktAttachment(pkt))
		if errors.Is(derr, errs.ErrAgain) || errors.Is(derr, errs.ErrStale) {
			continue
		}
		if derr != nil {
			// Recoverable decode error: drop and continue.
			continue
		}

		slot, werr := w.FrameQueue.PeekWritable()
		if errors.Is(werr, errs.ErrAborted) {
			return nil
		}
		if werr != nil {
			continue
		}
		fr.Serial = serial
		*slot = fr
		w.FrameQueue.Push()
	}
}

// pktAttachment extracts the reisen-decoded payload the demuxer loop stashed
// on the packet, if any.
func pktAttachment(pkt packet.Packet) any { return pkt.Attachment }
