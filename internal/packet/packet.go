// Package packet implements the serial-tagged packet queue shared
// between the demuxer and the decoder workers. The queue is unbounded in
// element count — callers throttle by observing Size() — but
// every element is stamped with the queue's serial at the moment it is
// enqueued, so consumers can detect work that predates a seek or stream
// switch.
package packet

import (
	"container/list"
	"sync"

	"github.com/erparts/avplay/internal/errs"
)

// Packet is an opaque compressed-bitstream element. Data is nil for the two
// distinguished sentinel kinds: the flush sentinel (a seek/switch epoch
// boundary) and the EOF marker (container drained for this stream).
type Packet struct {
	StreamIndex int
	Data        []byte
	Size        int // payload byte size; Queue.Put adds the per-node overhead below
	Duration    float64
	PTS         float64 // seconds; meaningful only when HasPTS
	DTS         float64 // seconds; meaningful only when HasDTS
	HasPTS      bool
	HasDTS      bool

	flush bool
	eof   bool

	// Serial is stamped by Queue.Put at enqueue time: the serial in force
	// immediately after processing this element (so a flush sentinel's own
	// Serial is the post-increment value).
	Serial int64

	// Attachment carries the demux library's already-decoded payload for
	// this packet (see internal/demux.Loop), since reisen couples demux and
	// decode into one call pair. Nil means "no frame produced this packet"
	// (e.g. B-frame reordering), the EAGAIN-equivalent case for a decoder.
	Attachment any
}

// perNodeOverhead approximates the bookkeeping cost of a queue node so that
// Size() tracks something closer to real memory pressure than raw payload
// bytes.
const perNodeOverhead = 64

// Flush builds the flush sentinel: a null-data packet whose dequeue causes
// the queue's serial to have already been incremented (see Put) and whose
// receipt by a decoder triggers a codec flush.
func Flush() Packet { return Packet{flush: true} }

// EOF builds the per-stream EOF marker enqueued when the demuxer reaches
// the end of the container.
func EOF(streamIndex int) Packet { return Packet{StreamIndex: streamIndex, eof: true} }

func (p Packet) IsFlush() bool { return p.flush }
func (p Packet) IsEOF() bool   { return p.eof }

// Queue is a serial-tagged FIFO of packets, thread-safe via a mutex/
// condition-variable pair. Build one with New; the zero Queue has no list or
// condition variable and is not usable.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   *list.List
	size    int // bytes, per-node overhead included
	dur     float64
	serial  int64
	aborted bool
}

// New returns a Queue ready for Start.
func New() *Queue {
	q := &Queue{items: list.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Serial returns the queue's current serial.
func (q *Queue) Serial() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.serial
}

// NbPackets returns the number of elements currently queued.
func (q *Queue) NbPackets() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Size returns the total byte size (including per-node overhead) of queued
// elements, used by the demuxer to throttle against MAX_QUEUE_SIZE.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Duration returns the total duration (seconds) of queued elements.
func (q *Queue) Duration() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dur
}

// Put appends pkt, transferring ownership. It increments the queue's serial
// first when pkt is the flush sentinel, so the enqueued copy carries the
// post-increment serial. Returns errs.ErrAborted if the queue has been
// aborted.
func (q *Queue) Put(pkt Packet) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.aborted {
		return errs.ErrAborted
	}
	if pkt.flush {
		q.serial++
	}
	pkt.Serial = q.serial
	q.items.PushBack(pkt)
	q.size += pkt.Size + perNodeOverhead
	q.dur += pkt.Duration
	q.cond.Signal()
	return nil
}

// Get removes and returns the head packet. When blocking is true and the
// queue is empty, Get waits on the condition variable (re-checking abort and
// emptiness after every wakeup); when false, it returns errs.ErrEmpty
// immediately. Returns errs.ErrAborted once abort has been requested.
func (q *Queue) Get(blocking bool) (Packet, int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.aborted {
			return Packet{}, q.serial, errs.ErrAborted
		}
		front := q.items.Front()
		if front != nil {
			pkt := q.items.Remove(front).(Packet)
			q.size -= pkt.Size + perNodeOverhead
			q.dur -= pkt.Duration
			return pkt, pkt.Serial, nil
		}
		if !blocking {
			return Packet{}, q.serial, errs.ErrEmpty
		}
		q.cond.Wait()
	}
}

// Flush drops all queued elements without touching the serial or abort
// state.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.Init()
	q.size = 0
	q.dur = 0
}

// Abort sets the abort flag and wakes every waiter; each must re-check the
// flag and return without consuming.
func (q *Queue) Abort() {
	q.mu.Lock()
	q.aborted = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Aborted reports whether Abort has been called.
func (q *Queue) Aborted() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.aborted
}

// Start clears the abort flag and enqueues one flush sentinel; Put bumps the
// serial for it, so on a fresh queue the serial is 1 once Start returns.
func (q *Queue) Start() {
	q.mu.Lock()
	q.aborted = false
	q.mu.Unlock()
	_ = q.Put(Flush())
}
