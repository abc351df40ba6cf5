// ABOUTME: Decoder interface definition
// ABOUTME: Common interface and codec lookup for all frame decoders
package decode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
)

// Decoder decodes one compressed frame to PCM int16 samples
type Decoder interface {
	// Decode converts one encoded frame to interleaved PCM samples
	Decode(data []byte) ([]int16, error)

	// Close releases decoder resources
	Close() error
}

// Func adapts a plain function to the Decoder interface.
type Func func(data []byte) ([]int16, error)

// Decode calls f(data).
func (f Func) Decode(data []byte) ([]int16, error) { return f(data) }

// Close is a no-op.
func (f Func) Close() error { return nil }

// New creates the decoder for format.Codec.
func New(format audio.Format) (Decoder, error) {
	switch format.Codec {
	case audio.CodecOpus:
		return NewOpus(format)
	case audio.CodecOpusSILK:
		return NewOpusSILK(format)
	case audio.CodecG722:
		return NewG722(format)
	case audio.CodecZstd:
		return NewZstdPCM(format)
	case audio.CodecRaw:
		return nil, fmt.Errorf("raw frames are not decoded")
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
