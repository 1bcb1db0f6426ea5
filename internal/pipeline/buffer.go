package pipeline

import (
	"sync"
	"sync/atomic"

	"anti-instagram/internal/models"
)

// FrameBuffer holds the most recently received frame.
//
// Deposit overwrites unconditionally: there is no queue and no backpressure,
// so a slow consumer never works through a stale backlog. Frames are
// published by swapping a pointer, so TakeLatest always observes a complete
// frame. Deposits are serialized so sequence numbers reach the slot in
// order even with several producers.
type FrameBuffer struct {
	mu       sync.Mutex
	latest   atomic.Pointer[models.Frame]
	seq      atomic.Uint64
	lastRead atomic.Uint64
	deposits atomic.Uint64
	drops    atomic.Uint64
}

// BufferStats counts deposits and frames overwritten before anyone read them
type BufferStats struct {
	Deposits uint64
	Drops    uint64
	LastSeq  uint64
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Deposit stores a copy of the frame header of f as the latest frame and
// assigns it the next sequence number; f itself is left untouched. The pixel
// data is shared, so the caller must not modify f.Pix afterwards.
func (b *FrameBuffer) Deposit(f *models.Frame) {
	if f == nil {
		return
	}
	held := *f

	b.mu.Lock()
	defer b.mu.Unlock()

	held.Seq = b.seq.Add(1)
	b.deposits.Add(1)

	prev := b.latest.Swap(&held)
	if prev != nil && prev.Seq > b.lastRead.Load() {
		b.drops.Add(1)
	}
}

// TakeLatest returns the held frame without removing it. The second result
// is false when nothing has ever arrived.
func (b *FrameBuffer) TakeLatest() (*models.Frame, bool) {
	f := b.latest.Load()
	if f == nil {
		return nil, false
	}
	for {
		last := b.lastRead.Load()
		if f.Seq <= last || b.lastRead.CompareAndSwap(last, f.Seq) {
			break
		}
	}
	return f, true
}

func (b *FrameBuffer) Stats() BufferStats {
	return BufferStats{
		Deposits: b.deposits.Load(),
		Drops:    b.drops.Load(),
		LastSeq:  b.seq.Load(),
	}
}
