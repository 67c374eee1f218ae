package frame

import (
	"sync"

	"github.com/erparts/avplay/internal/errs"
	"github.com/erparts/avplay/internal/packet"
)

// Queue capacities: 3 for video, 16 for subtitles, 9 for audio, matching
// ffplay's VIDEO_PICTURE_QUEUE_SIZE/SUBPICTURE_QUEUE_SIZE/SAMPLE_QUEUE_SIZE.
const (
	VideoCapacity    = 3
	SubtitleCapacity = 16
	AudioCapacity    = 9

	// maxCapacity is the static slot-array size: the max of the above.
	maxCapacity = SubtitleCapacity
)

// Queue is a fixed-capacity ring buffer. At most one writer and one reader
// operate on it concurrently; the mutex serializes index and
// size bookkeeping, not slot contents (a writer owns the write slot
// exclusively until Push, a reader owns the read slot exclusively until
// Next).
type Queue struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots   [maxCapacity]Frame
	rindex  int
	windex  int
	size    int
	maxSize int

	keepLast   bool
	shownState ShownState

	pktq *packet.Queue // feeding packet queue, observed for abort/serial
}

// NewQueue builds a Queue of the given capacity, backed by pktq for abort and
// serial observation. keepLast enables PeekLast (used by the video and
// subtitle queues, not the audio queue).
func NewQueue(pktq *packet.Queue, capacity int, keepLast bool) *Queue {
	if capacity > maxCapacity {
		capacity = maxCapacity
	}
	q := &Queue{maxSize: capacity, keepLast: keepLast, pktq: pktq}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Signal wakes any goroutine blocked in PeekWritable/PeekReadable, used when
// the feeding packet queue is aborted (it has no condition variable of its
// own to broadcast on frame-queue waiters).
func (q *Queue) Signal() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *Queue) aborted() bool { return q.pktq != nil && q.pktq.Aborted() }

// PeekWritable waits until size < maxSize or the backing packet queue is
// aborted, then returns the writable slot. The caller must fully initialize
// it before calling Push.
func (q *Queue) PeekWritable() (*Frame, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size >= q.maxSize {
		if q.aborted() {
			return nil, errs.ErrAborted
		}
		q.cond.Wait()
		if q.aborted() {
			return nil, errs.ErrAborted
		}
	}
	if q.aborted() {
		return nil, errs.ErrAborted
	}
	return &q.slots[q.windex], nil
}

// Push advances the write index (wrapping), increments size, and signals one
// waiter. The writer must have finished populating the slot PeekWritable
// returned.
func (q *Queue) Push() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.windex = (q.windex + 1) % q.maxSize
	q.size++
	q.cond.Signal()
}

// PeekReadable waits until there is at least one unshown frame or the
// backing packet queue is aborted, then returns the readable slot.
func (q *Queue) PeekReadable() (*Frame, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.size-int(q.shownState) <= 0 {
		if q.aborted() {
			return nil, errs.ErrAborted
		}
		q.cond.Wait()
		if q.aborted() {
			return nil, errs.ErrAborted
		}
	}
	return &q.slots[(q.rindex+int(q.shownState))%q.maxSize], nil
}

// Peek returns the slot at (rindex + shown) mod maxSize without waiting.
func (q *Queue) Peek() *Frame {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &q.slots[(q.rindex+int(q.shownState))%q.maxSize]
}

// PeekNext returns the slot one past the current peek position.
func (q *Queue) PeekNext() *Frame {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &q.slots[(q.rindex+int(q.shownState)+1)%q.maxSize]
}

// PeekLast returns the slot at rindex: the most recently displayed frame.
// Only valid when keepLast is set and a frame has already been shown.
func (q *Queue) PeekLast() *Frame {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &q.slots[q.rindex]
}

// Next releases the current read slot and advances, or — if keepLast is set
// and no frame has yet been shown — marks the current slot as shown without
// advancing (so PeekLast can address it).
func (q *Queue) Next() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.keepLast && q.shownState == NotYet {
		q.shownState = Held
		return
	}
	q.rindex = (q.rindex + 1) % q.maxSize
	q.size--
	q.cond.Signal()
}

// NbRemaining returns size - shown(0 or 1).
func (q *Queue) NbRemaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size - int(q.shownState)
}

// Size returns the number of occupied slots (including the held-last slot).
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// LastPos returns the byte offset of the most recently shown frame, or -1 if
// that slot's serial no longer matches the backing queue's current serial
// (i.e. a seek flushed past it).
func (q *Queue) LastPos() int64 {
	q.mu.Lock()
	last := q.slots[q.rindex]
	q.mu.Unlock()
	if q.pktq != nil && last.Serial != q.pktq.Serial() {
		return -1
	}
	return last.Pos
}
