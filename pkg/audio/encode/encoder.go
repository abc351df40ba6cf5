// ABOUTME: Encoder interface definition
// ABOUTME: Common interface and codec lookup for all frame encoders
package encode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
)

// Encoder encodes PCM int16 samples to one frame payload
type Encoder interface {
	// Encode converts interleaved PCM samples to a frame payload
	Encode(samples []int16) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// New creates the encoder for format.Codec.
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case audio.CodecRaw:
		return NewRaw(format)
	case audio.CodecOpus, audio.CodecOpusSILK:
		return NewOpus(format)
	case audio.CodecG722:
		return NewG722(format)
	case audio.CodecZstd:
		return NewZstdPCM(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
