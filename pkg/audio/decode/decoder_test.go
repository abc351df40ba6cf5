// ABOUTME: Tests for decoder lookup and the lossless codecs
// ABOUTME: Covers New, G.722 and zstd round trips
package decode

import (
	"errors"
	"testing"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/encode"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.Format
		wantErr bool
	}{
		{"opus", audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2}, false},
		{"opus silk", audio.Format{Codec: audio.CodecOpusSILK, SampleRate: 48000, Channels: 1}, false},
		{"g722", audio.Format{Codec: audio.CodecG722, SampleRate: 16000, Channels: 1}, false},
		{"g722 stereo", audio.Format{Codec: audio.CodecG722, SampleRate: 16000, Channels: 2}, true},
		{"zstd", audio.Format{Codec: audio.CodecZstd, SampleRate: 48000, Channels: 2}, false},
		{"raw", audio.Format{Codec: audio.CodecRaw, SampleRate: 48000, Channels: 2}, true},
		{"unknown", audio.Format{Codec: "mp3", SampleRate: 48000, Channels: 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := New(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, dec.Close())
		})
	}
}

func TestFunc(t *testing.T) {
	want := errors.New("bad frame")
	var d Decoder = Func(func(data []byte) ([]int16, error) {
		if len(data) == 0 {
			return nil, want
		}
		return []int16{int16(data[0])}, nil
	})

	pcm, err := d.Decode([]byte{7})
	require.NoError(t, err)
	assert.Equal(t, []int16{7}, pcm)

	_, err = d.Decode(nil)
	assert.ErrorIs(t, err, want)
	assert.NoError(t, d.Close())
}

func TestG722RoundTrip(t *testing.T) {
	format := audio.Format{Codec: audio.CodecG722, SampleRate: 16000, Channels: 1}

	enc, err := encode.NewG722(format)
	require.NoError(t, err)
	dec, err := NewG722(format)
	require.NoError(t, err)

	samples := make([]int16, 320) // 20ms
	for i := range samples {
		samples[i] = int16((i % 32) * 500)
	}

	payload, err := enc.Encode(samples)
	require.NoError(t, err)
	assert.Len(t, payload, 160)

	pcm, err := dec.Decode(payload)
	require.NoError(t, err)
	assert.Len(t, pcm, 320)
}

func TestZstdRoundTrip(t *testing.T) {
	format := audio.Format{Codec: audio.CodecZstd, SampleRate: 48000, Channels: 2}

	enc, err := encode.NewZstdPCM(format)
	require.NoError(t, err)
	defer enc.Close()
	dec, err := NewZstdPCM(format)
	require.NoError(t, err)
	defer dec.Close()

	samples := []int16{0, 1, -1, 32767, -32768, 1234, -4321, 42}
	payload, err := enc.Encode(samples)
	require.NoError(t, err)

	pcm, err := dec.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, samples, pcm)
}

func TestZstdDecodeGarbage(t *testing.T) {
	dec, err := NewZstdPCM(audio.Format{Codec: audio.CodecZstd, SampleRate: 48000, Channels: 2})
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.Decode([]byte("not a zstd frame"))
	assert.Error(t, err)
}

func TestZstdRejectsOversizedFrame(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	bomb := enc.EncodeAll(make([]byte, 2*MaxZstdFrameSize), nil)
	require.NoError(t, enc.Close())
	require.Less(t, len(bomb), 0xFFFF, "must fit in one frame")

	dec, err := NewZstdPCM(audio.Format{Codec: audio.CodecZstd, SampleRate: 48000, Channels: 2})
	require.NoError(t, err)
	defer dec.Close()

	_, err = dec.Decode(bomb)
	assert.Error(t, err)

	// The decoder stays usable for well-formed frames.
	small := make([]byte, 64)
	ok, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	samples, err := dec.Decode(ok.EncodeAll(small, nil))
	require.NoError(t, ok.Close())
	require.NoError(t, err)
	assert.Len(t, samples, 32)
}
