// ABOUTME: Tests for audio encoders
// ABOUTME: Tests encoder lookup, validation and output sizes
package encode

import (
	"testing"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		format  audio.Format
		wantErr bool
	}{
		{"raw", audio.Format{Codec: audio.CodecRaw, SampleRate: 48000, Channels: 2, BitDepth: 16}, false},
		{"raw 24bit", audio.Format{Codec: audio.CodecRaw, SampleRate: 48000, Channels: 2, BitDepth: 24}, true},
		{"opus", audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2}, false},
		{"opus silk", audio.Format{Codec: audio.CodecOpusSILK, SampleRate: 48000, Channels: 1}, false},
		{"g722", audio.Format{Codec: audio.CodecG722, SampleRate: 16000, Channels: 1}, false},
		{"g722 wrong rate", audio.Format{Codec: audio.CodecG722, SampleRate: 48000, Channels: 1}, true},
		{"zstd", audio.Format{Codec: audio.CodecZstd, SampleRate: 48000, Channels: 2}, false},
		{"unknown", audio.Format{Codec: "aac"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := New(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, enc)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, enc.Close())
		})
	}
}

func TestRawEncode(t *testing.T) {
	enc, err := NewRaw(audio.Format{Codec: audio.CodecRaw, SampleRate: 48000, Channels: 2, BitDepth: 16})
	require.NoError(t, err)

	out, err := enc.Encode([]int16{0x0102, -1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01, 0xff, 0xff}, out)
}

func TestNewRaw_InvalidCodec(t *testing.T) {
	_, err := NewRaw(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2})
	require.Error(t, err)
	assert.Equal(t, "invalid codec for raw encoder: opus", err.Error())
}

func TestOpusFrameSize(t *testing.T) {
	enc, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2})
	require.NoError(t, err)

	opusEnc, ok := enc.(*OpusEncoder)
	require.True(t, ok)
	assert.Equal(t, 960, opusEnc.FrameSize())

	packet, err := enc.Encode(make([]int16, 960*2))
	require.NoError(t, err)
	assert.NotEmpty(t, packet)
	assert.LessOrEqual(t, len(packet), maxOpusPacket)
}

func TestOpusEncode_BadFrameSize(t *testing.T) {
	enc, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2})
	require.NoError(t, err)

	// 7 samples per channel is not a legal Opus frame duration.
	_, err = enc.Encode(make([]int16, 14))
	assert.Error(t, err)
}

func TestG722Encode(t *testing.T) {
	enc, err := NewG722(audio.Format{Codec: audio.CodecG722, SampleRate: 16000, Channels: 1})
	require.NoError(t, err)

	out, err := enc.Encode(make([]int16, 320))
	require.NoError(t, err)
	assert.Len(t, out, 160)
}

func TestZstdEncodeCompressesSilence(t *testing.T) {
	enc, err := NewZstdPCM(audio.Format{Codec: audio.CodecZstd, SampleRate: 48000, Channels: 2})
	require.NoError(t, err)
	defer enc.Close()

	out, err := enc.Encode(make([]int16, 4096))
	require.NoError(t, err)
	assert.Less(t, len(out), 8192)
}
