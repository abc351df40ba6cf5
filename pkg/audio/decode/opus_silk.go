// ABOUTME: Pure-Go Opus decoder for SILK-mode packets
// ABOUTME: Uses pion/opus so compressed playback works without cgo/libopus
package decode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/pion/opus"
)

// silkFrameBytes is one 20ms SILK frame upsampled to 48kHz mono s16le.
const silkFrameBytes = 960 * audio.BytesPerSample

// OpusSILKDecoder decodes SILK-only Opus packets. Output is always 48kHz;
// mono output is duplicated when the stream is stereo.
type OpusSILKDecoder struct {
	decoder  opus.Decoder
	channels int
	out      []byte
}

// NewOpusSILK creates a pion/opus backed decoder
func NewOpusSILK(format audio.Format) (Decoder, error) {
	if format.Codec != audio.CodecOpusSILK {
		return nil, fmt.Errorf("invalid codec for Opus SILK decoder: %s", format.Codec)
	}
	if format.SampleRate != 48000 {
		return nil, fmt.Errorf("opus-silk decodes to 48000Hz only, got %d", format.SampleRate)
	}

	return &OpusSILKDecoder{
		decoder:  opus.NewDecoder(),
		channels: format.Channels,
		out:      make([]byte, silkFrameBytes),
	}, nil
}

// Decode converts one SILK packet to int16 samples
func (d *OpusSILKDecoder) Decode(data []byte) ([]int16, error) {
	if _, _, err := d.decoder.Decode(data, d.out); err != nil {
		return nil, fmt.Errorf("opus silk decode failed: %w", err)
	}

	mono := audio.BytesToInt16(d.out)
	if d.channels == 1 {
		return mono, nil
	}

	stereo := make([]int16, len(mono)*2)
	for i, s := range mono {
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	return stereo, nil
}

// Close releases decoder resources
func (d *OpusSILKDecoder) Close() error {
	return nil
}
