// ABOUTME: G.722 audio encoder
// ABOUTME: Encodes 16kHz mono int16 samples at 64 kbit/s
package encode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	g722 "github.com/gotranspile/g722"
)

// G722Encoder encodes G.722 audio
type G722Encoder struct {
	encoder *g722.Encoder
}

// NewG722 creates a new G.722 encoder
func NewG722(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecG722 {
		return nil, fmt.Errorf("invalid codec for G.722 encoder: %s", format.Codec)
	}
	if format.SampleRate != 16000 || format.Channels != 1 {
		return nil, fmt.Errorf("g722 requires 16000Hz mono, got %dHz %dch",
			format.SampleRate, format.Channels)
	}
	return &G722Encoder{encoder: g722.NewEncoder(g722.Rate64000, 0)}, nil
}

// Encode converts int16 samples to G.722 code words
func (e *G722Encoder) Encode(samples []int16) ([]byte, error) {
	// Two samples per output byte at 64 kbit/s.
	buf := make([]byte, (len(samples)+1)/2)
	n := e.encoder.Encode(buf, samples)
	if n < 0 {
		return nil, fmt.Errorf("g722 encode failed: %d", n)
	}
	return buf[:n], nil
}

// Close releases resources
func (e *G722Encoder) Close() error {
	return nil
}
