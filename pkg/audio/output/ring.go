// ABOUTME: Byte ring buffer between a blocking writer and a device callback
// ABOUTME: Writers wait for space; the reader never blocks and zero-fills underruns
package output

import "sync"

// RingBuffer is a bounded byte FIFO. Write blocks while full; Read never blocks.
type RingBuffer struct {
	mu       sync.Mutex
	space    *sync.Cond
	buffer   []byte
	readPos  int
	writePos int
	count    int
	closed   bool
}

// NewRingBuffer creates a ring buffer with the given capacity in bytes
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{buffer: make([]byte, capacity)}
	rb.space = sync.NewCond(&rb.mu)
	return rb
}

// Write copies p into the buffer, waiting for the reader to free space.
// Returns ErrClosed if the buffer is closed before p is fully written.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for written < len(p) {
		for rb.count == len(rb.buffer) && !rb.closed {
			rb.space.Wait()
		}
		if rb.closed {
			return written, ErrClosed
		}
		for written < len(p) && rb.count < len(rb.buffer) {
			rb.buffer[rb.writePos] = p[written]
			rb.writePos = (rb.writePos + 1) % len(rb.buffer)
			rb.count++
			written++
		}
	}
	return written, nil
}

// Read fills p from the buffer and zero-fills the rest on underrun.
// Returns the number of real bytes copied.
func (rb *RingBuffer) Read(p []byte) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for read < len(p) && rb.count > 0 {
		p[read] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % len(rb.buffer)
		rb.count--
		read++
	}
	for i := read; i < len(p); i++ {
		p[i] = 0
	}
	if read > 0 {
		rb.space.Broadcast()
	}
	return read
}

// Available returns the number of buffered bytes
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Close wakes blocked writers; later writes fail.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.mu.Unlock()
	rb.space.Broadcast()
}
