// ABOUTME: Raw PCM encoder
// ABOUTME: Serializes int16 samples as little-endian bytes
package encode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
)

// RawEncoder passes PCM through as s16le bytes
type RawEncoder struct{}

// NewRaw creates a new raw PCM encoder
func NewRaw(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecRaw {
		return nil, fmt.Errorf("invalid codec for raw encoder: %s", format.Codec)
	}
	if format.BitDepth != 0 && format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	return RawEncoder{}, nil
}

// Encode converts int16 samples to PCM bytes
func (RawEncoder) Encode(samples []int16) ([]byte, error) {
	return audio.Int16ToBytes(samples), nil
}

// Close releases resources
func (RawEncoder) Close() error {
	return nil
}
