// ABOUTME: Discard audio output
// ABOUTME: Accepts PCM and drops it, for headless players and tests
package output

import (
	"sync"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
)

// Discard is a sink that counts and drops everything written to it
type Discard struct {
	mu      sync.Mutex
	open    bool
	written uint64
}

// NewDiscard creates a new Discard output
func NewDiscard() Output {
	return &Discard{}
}

// Open marks the sink ready
func (d *Discard) Open(format audio.Format) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	d.mu.Lock()
	d.open = true
	d.mu.Unlock()
	return nil
}

// Write drops pcm
func (d *Discard) Write(pcm []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return 0, ErrClosed
	}
	d.written += uint64(len(pcm))
	return len(pcm), nil
}

// Written returns the number of bytes accepted so far
func (d *Discard) Written() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.written
}

// Close releases resources
func (d *Discard) Close() error {
	d.mu.Lock()
	d.open = false
	d.mu.Unlock()
	return nil
}
