// ABOUTME: G.722 audio decoder
// ABOUTME: Decodes 64 kbit/s wideband G.722 frames to int16 samples
package decode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	g722 "github.com/gotranspile/g722"
)

// G722SampleRate is the only rate G.722 codes natively.
const G722SampleRate = 16000

// G722Decoder decodes G.722 audio
type G722Decoder struct {
	decoder *g722.Decoder
}

// NewG722 creates a new G.722 decoder (16kHz mono, 64 kbit/s)
func NewG722(format audio.Format) (Decoder, error) {
	if format.Codec != audio.CodecG722 {
		return nil, fmt.Errorf("invalid codec for G.722 decoder: %s", format.Codec)
	}
	if format.SampleRate != G722SampleRate || format.Channels != 1 {
		return nil, fmt.Errorf("g722 requires %dHz mono, got %dHz %dch",
			G722SampleRate, format.SampleRate, format.Channels)
	}

	return &G722Decoder{
		decoder: g722.NewDecoder(g722.Rate64000, 0),
	}, nil
}

// Decode converts G.722 code words to int16 samples
func (d *G722Decoder) Decode(data []byte) ([]int16, error) {
	// At 64 kbit/s every byte carries two 16kHz samples.
	pcm := make([]int16, len(data)*2)
	n := d.decoder.Decode(pcm, data)
	if n < 0 {
		return nil, fmt.Errorf("g722 decode failed: %d", n)
	}
	return pcm[:n], nil
}

// Close releases decoder resources
func (d *G722Decoder) Close() error {
	return nil
}
