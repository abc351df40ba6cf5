// ABOUTME: zstd-compressed PCM decoder
// ABOUTME: Decompresses lossless zstd frames back to int16 samples
package decode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/klauspost/compress/zstd"
)

// MaxZstdFrameSize caps the decompressed size of one frame.
const MaxZstdFrameSize = 4 << 20

// ZstdPCMDecoder decodes frames that hold zstd-compressed s16le PCM
type ZstdPCMDecoder struct {
	decoder *zstd.Decoder
	scratch []byte
}

// NewZstdPCM creates a new zstd PCM decoder
func NewZstdPCM(format audio.Format) (Decoder, error) {
	if format.Codec != audio.CodecZstd {
		return nil, fmt.Errorf("invalid codec for zstd decoder: %s", format.Codec)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxZstdFrameSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ZstdPCMDecoder{decoder: dec}, nil
}

// Decode decompresses one frame to int16 samples
func (d *ZstdPCMDecoder) Decode(data []byte) ([]int16, error) {
	raw, err := d.decoder.DecodeAll(data, d.scratch[:0])
	if err != nil {
		return nil, fmt.Errorf("zstd decode failed: %w", err)
	}
	d.scratch = raw
	if len(raw)%audio.BytesPerSample != 0 {
		return nil, fmt.Errorf("zstd frame holds %d bytes, not whole samples", len(raw))
	}
	return audio.BytesToInt16(raw), nil
}

// Close releases decoder resources
func (d *ZstdPCMDecoder) Close() error {
	d.decoder.Close()
	return nil
}
