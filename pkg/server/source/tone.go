// ABOUTME: Sine wave generator source
// ABOUTME: Produces an endless tone at the configured pitch
package source

import (
	"fmt"
	"math"
	"sync"
)

// DefaultToneHz is concert A
const DefaultToneHz = 440.0

// Tone generates a sine wave duplicated to every channel
type Tone struct {
	mu          sync.Mutex
	sampleIndex uint64
	frequency   float64
	sampleRate  int
	channels    int
}

// NewTone creates a tone generator. Zero values fall back to 440 Hz,
// 48 kHz, stereo.
func NewTone(hz float64, sampleRate, channels int) *Tone {
	if hz <= 0 {
		hz = DefaultToneHz
	}
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 2
	}
	return &Tone{frequency: hz, sampleRate: sampleRate, channels: channels}
}

func (s *Tone) Read(samples []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(samples) / s.channels
	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		// 50% volume
		v := int16(math.Sin(2*math.Pi*s.frequency*t) * 32767.0 * 0.5)
		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = v
		}
	}
	s.sampleIndex += uint64(frames)

	return frames * s.channels, nil
}

func (s *Tone) SampleRate() int { return s.sampleRate }
func (s *Tone) Channels() int   { return s.channels }
func (s *Tone) Name() string    { return fmt.Sprintf("Test Tone %.0f Hz", s.frequency) }
func (s *Tone) Close() error    { return nil }
