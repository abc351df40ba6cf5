// ABOUTME: zstd PCM encoder
// ABOUTME: Losslessly compresses s16le PCM chunks with zstd
package encode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/klauspost/compress/zstd"
)

// ZstdPCMEncoder compresses PCM chunks
type ZstdPCMEncoder struct {
	encoder *zstd.Encoder
}

// NewZstdPCM creates a new zstd PCM encoder
func NewZstdPCM(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecZstd {
		return nil, fmt.Errorf("invalid codec for zstd encoder: %s", format.Codec)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &ZstdPCMEncoder{encoder: enc}, nil
}

// Encode compresses int16 samples into one frame
func (e *ZstdPCMEncoder) Encode(samples []int16) ([]byte, error) {
	return e.encoder.EncodeAll(audio.Int16ToBytes(samples), nil), nil
}

// Close releases resources
func (e *ZstdPCMEncoder) Close() error {
	return e.encoder.Close()
}
