package pipeline

import (
	"sync"
	"testing"
	"time"

	"anti-instagram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, v uint8) *models.Frame {
	f := models.NewFrame(w, h, time.Now())
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func TestFrameBufferEmpty(t *testing.T) {
	b := NewFrameBuffer()
	f, ok := b.TakeLatest()
	assert.False(t, ok)
	assert.Nil(t, f)
}

func TestFrameBufferLatestWins(t *testing.T) {
	b := NewFrameBuffer()
	b.Deposit(solidFrame(2, 2, 1))
	b.Deposit(solidFrame(2, 2, 2))

	f, ok := b.TakeLatest()
	require.True(t, ok)
	assert.Equal(t, uint8(2), f.Pix[0])
	assert.Equal(t, uint64(2), f.Seq)

	again, ok := b.TakeLatest()
	require.True(t, ok)
	assert.Same(t, f, again, "take does not remove the frame")

	stats := b.Stats()
	assert.Equal(t, uint64(2), stats.Deposits)
	assert.Equal(t, uint64(1), stats.Drops)
}

func TestFrameBufferKeepsCallerFrameUntouched(t *testing.T) {
	b := NewFrameBuffer()
	in := solidFrame(2, 2, 9)

	b.Deposit(in)
	first, ok := b.TakeLatest()
	require.True(t, ok)

	b.Deposit(in)
	second, ok := b.TakeLatest()
	require.True(t, ok)

	assert.Zero(t, in.Seq, "deposit must not write to the caller's frame")
	assert.NotSame(t, in, first)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, uint64(0), b.Stats().Drops)
}

func TestFrameBufferSequenceMonotonicUnderConcurrentDeposits(t *testing.T) {
	b := NewFrameBuffer()
	const writers = 8
	const perWriter = 500

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f := solidFrame(1, 1, 0)
			for i := 0; i < perWriter; i++ {
				b.Deposit(f)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var last uint64
	for {
		if f, ok := b.TakeLatest(); ok {
			require.GreaterOrEqual(t, f.Seq, last, "held frame went back in sequence")
			last = f.Seq
		}
		select {
		case <-done:
			f, ok := b.TakeLatest()
			require.True(t, ok)
			assert.Equal(t, uint64(writers*perWriter), f.Seq)
			stats := b.Stats()
			assert.Equal(t, uint64(writers*perWriter), stats.Deposits)
			assert.Less(t, stats.Drops, stats.Deposits)
			return
		default:
		}
	}
}

func TestFrameBufferIgnoresNil(t *testing.T) {
	b := NewFrameBuffer()
	b.Deposit(nil)
	_, ok := b.TakeLatest()
	assert.False(t, ok)
}

func TestFrameBufferNeverTorn(t *testing.T) {
	b := NewFrameBuffer()
	const writers = 4
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(v uint8) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Deposit(solidFrame(16, 8, v))
			}
		}(uint8(w + 1))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		if f, ok := b.TakeLatest(); ok {
			first := f.Pix[0]
			for _, p := range f.Pix {
				if p != first {
					t.Fatalf("torn frame: saw %d and %d", first, p)
				}
			}
		}
		select {
		case <-done:
			assert.Equal(t, uint64(writers*perWriter), b.Stats().Deposits)
			return
		default:
		}
	}
}
