// ABOUTME: Tests for Opus decoders
// ABOUTME: Tests Opus decoder creation, validation and round trips
package decode

import (
	"testing"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/encode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpus(t *testing.T) {
	format := audio.Format{
		Codec:      audio.CodecOpus,
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewOpus(format)
	require.NoError(t, err)
	require.NotNil(t, decoder)
	assert.NoError(t, decoder.Close())
}

func TestNewOpus_InvalidCodec(t *testing.T) {
	format := audio.Format{
		Codec:      audio.CodecRaw,
		SampleRate: 48000,
		Channels:   2,
		BitDepth:   16,
	}

	decoder, err := NewOpus(format)
	require.Error(t, err)
	assert.Nil(t, decoder)
	assert.Equal(t, "invalid codec for Opus decoder: raw", err.Error())
}

func TestOpusRoundTrip(t *testing.T) {
	format := audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 2, BitDepth: 16}

	enc, err := encode.NewOpus(format)
	require.NoError(t, err)
	defer enc.Close()

	dec, err := NewOpus(format)
	require.NoError(t, err)
	defer dec.Close()

	// One 20ms stereo frame.
	samples := make([]int16, 960*2)
	for i := range samples {
		samples[i] = int16((i % 64) * 200)
	}

	packet, err := enc.Encode(samples)
	require.NoError(t, err)
	require.NotEmpty(t, packet)

	pcm, err := dec.Decode(packet)
	require.NoError(t, err)
	assert.Len(t, pcm, 960*2)
}

func TestOpusDecodeGarbage(t *testing.T) {
	dec, err := NewOpus(audio.Format{Codec: audio.CodecOpus, SampleRate: 48000, Channels: 1})
	require.NoError(t, err)

	_, err = dec.Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}

func TestNewOpusSILK_RequiresFullRate(t *testing.T) {
	_, err := NewOpusSILK(audio.Format{Codec: audio.CodecOpusSILK, SampleRate: 16000, Channels: 1})
	assert.Error(t, err)

	dec, err := NewOpusSILK(audio.Format{Codec: audio.CodecOpusSILK, SampleRate: 48000, Channels: 2})
	require.NoError(t, err)
	assert.NotNil(t, dec)
}

func TestOpusSILKDecodeEmpty(t *testing.T) {
	dec, err := NewOpusSILK(audio.Format{Codec: audio.CodecOpusSILK, SampleRate: 48000, Channels: 1})
	require.NoError(t, err)

	_, err = dec.Decode(nil)
	assert.Error(t, err)
}
