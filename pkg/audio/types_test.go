// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation and sample conversion functions
package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt16ToBytes(t *testing.T) {
	tests := []struct {
		name     string
		input    []int16
		expected []byte
	}{
		{"empty", []int16{}, []byte{}},
		{"positive", []int16{0x0100}, []byte{0x00, 0x01}},
		{"negative", []int16{-2}, []byte{0xFE, 0xFF}},
		{"stereo pair", []int16{1, -1}, []byte{0x01, 0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Int16ToBytes(tt.input))
		})
	}
}

func TestBytesToInt16(t *testing.T) {
	// 0x00, 0x01 -> 256; 0x02, 0x03 -> 770; trailing byte dropped
	got := BytesToInt16([]byte{0x00, 0x01, 0x02, 0x03, 0x7F})
	assert.Equal(t, []int16{256, 770}, got)
}

func TestRoundTrip16Bit(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}
	assert.Equal(t, samples, BytesToInt16(Int16ToBytes(samples)))
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"raw stereo", Format{Codec: CodecRaw, SampleRate: 48000, Channels: 2, BitDepth: 16}, false},
		{"opus mono", Format{Codec: CodecOpus, SampleRate: 48000, Channels: 1}, false},
		{"unknown codec", Format{Codec: "mp4", SampleRate: 48000, Channels: 2}, true},
		{"zero rate", Format{Codec: CodecRaw, SampleRate: 0, Channels: 2}, true},
		{"surround", Format{Codec: CodecRaw, SampleRate: 48000, Channels: 6}, true},
		{"24 bit", Format{Codec: CodecRaw, SampleRate: 48000, Channels: 2, BitDepth: 24}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatCompressed(t *testing.T) {
	assert.False(t, Format{Codec: CodecRaw}.Compressed())
	assert.True(t, Format{Codec: CodecOpus}.Compressed())
	assert.True(t, Format{Codec: CodecZstd}.Compressed())
	assert.Equal(t, 192000, Format{SampleRate: 48000, Channels: 2}.BytesPerSecond())
}
