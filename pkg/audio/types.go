// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, codec identifiers and PCM byte conversions
package audio

import (
	"encoding/binary"
	"fmt"
)

// Codec identifiers understood by both the player and the companion server.
const (
	CodecRaw      = "raw"       // interleaved s16le PCM, no decoding
	CodecOpus     = "opus"      // libopus packets
	CodecOpusSILK = "opus-silk" // Opus packets decoded by the pure-Go SILK decoder
	CodecG722     = "g722"      // G.722 at 64 kbit/s, 16kHz mono
	CodecZstd     = "zstd"      // zstd-compressed s16le PCM
)

// BytesPerSample is the width of one PCM sample on the playback path.
const BytesPerSample = 2

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Compressed reports whether frames in this format need a decoder.
func (f Format) Compressed() bool {
	return f.Codec != "" && f.Codec != CodecRaw
}

// Validate checks that the format can be played.
func (f Format) Validate() error {
	switch f.Codec {
	case CodecRaw, CodecOpus, CodecOpusSILK, CodecG722, CodecZstd:
	default:
		return fmt.Errorf("unsupported codec: %q", f.Codec)
	}
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("invalid channel count: %d (supported: 1, 2)", f.Channels)
	}
	if f.BitDepth != 0 && f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16)", f.BitDepth)
	}
	return nil
}

// String renders the format the way it is logged.
func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch", f.Codec, f.SampleRate, f.Channels)
}

// BytesPerSecond returns the PCM byte rate of the decoded stream.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * BytesPerSample
}

// Int16ToBytes converts samples to interleaved little-endian bytes.
func Int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// BytesToInt16 converts little-endian bytes to samples. A trailing odd byte
// is ignored.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
