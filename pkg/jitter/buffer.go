// ABOUTME: Bounded drop-oldest frame queue
// ABOUTME: Serializes push/pop across the reader and pump goroutines
package jitter

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the queue depth in frames when none is given.
	DefaultCapacity = 12

	// DefaultPollInterval bounds how long Pop waits before re-checking.
	DefaultPollInterval = 50 * time.Millisecond
)

// ErrEmptyFrame is returned by Push for a nil or zero-length frame.
var ErrEmptyFrame = errors.New("jitter: empty frame")

// Stats tracks buffer counters since creation
type Stats struct {
	Pushed  uint64
	Popped  uint64
	Evicted uint64
	Depth   int
}

// Buffer is a bounded FIFO of frames with drop-oldest admission.
type Buffer struct {
	mu       sync.Mutex
	frames   [][]byte
	head     int
	count    int
	notify   chan struct{}
	pushed   uint64
	popped   uint64
	evicted  uint64
	capacity int
}

// New creates a buffer holding at most capacity frames. A non-positive
// capacity falls back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		frames:   make([][]byte, capacity),
		notify:   make(chan struct{}, 1),
		capacity: capacity,
	}
}

// Push appends frame, evicting the oldest frame first when full. It never
// blocks. The buffer takes ownership of frame.
func (b *Buffer) Push(frame []byte) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}

	b.mu.Lock()
	if b.count == b.capacity {
		b.frames[b.head] = nil
		b.head = (b.head + 1) % b.capacity
		b.count--
		b.evicted++
	}
	b.frames[(b.head+b.count)%b.capacity] = frame
	b.count++
	b.pushed++
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes and returns the oldest frame, blocking until one is available.
// It returns (nil, false) as soon as ctx is cancelled.
func (b *Buffer) Pop(ctx context.Context, pollInterval time.Duration) ([]byte, bool) {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	var timer *time.Timer
	for {
		if ctx.Err() != nil {
			return nil, false
		}

		if frame, ok := b.TryPop(); ok {
			if timer != nil {
				timer.Stop()
			}
			return frame, true
		}

		if timer == nil {
			timer = time.NewTimer(pollInterval)
		} else {
			timer.Reset(pollInterval)
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		case <-b.notify:
		case <-timer.C:
		}
	}
}

// TryPop removes the oldest frame without waiting.
func (b *Buffer) TryPop() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil, false
	}
	frame := b.frames[b.head]
	b.frames[b.head] = nil
	b.head = (b.head + 1) % b.capacity
	b.count--
	b.popped++
	return frame, true
}

// Len returns the number of queued frames.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Cap returns the configured capacity.
func (b *Buffer) Cap() int {
	return b.capacity
}

// Clear drops every queued frame. Dropped frames are not counted as evicted.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.frames {
		b.frames[i] = nil
	}
	b.head = 0
	b.count = 0
}

// Stats returns a snapshot of the buffer counters.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Pushed:  b.pushed,
		Popped:  b.popped,
		Evicted: b.evicted,
		Depth:   b.count,
	}
}
