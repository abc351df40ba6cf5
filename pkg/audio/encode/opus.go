// ABOUTME: Opus audio encoder
// ABOUTME: Encodes int16 samples to Opus packets
package encode

import (
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	log "github.com/sirupsen/logrus"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket is the largest packet libopus will produce.
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int
}

// NewOpus creates a new Opus encoder. SILK-mode streams are produced by
// restricting the encoder to VoIP at wideband so the pure-Go decoder can
// play them.
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != audio.CodecOpus && format.Codec != audio.CodecOpusSILK {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	app := opus.AppAudio
	if format.Codec == audio.CodecOpusSILK {
		app = opus.AppVoIP
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, app)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	// 64 kbps per channel
	if err := encoder.SetBitrate(64000 * format.Channels); err != nil {
		log.WithError(err).Warn("failed to set Opus bitrate")
	}
	if format.Codec == audio.CodecOpusSILK {
		if err := encoder.SetMaxBandwidth(opus.Wideband); err != nil {
			log.WithError(err).Warn("failed to limit Opus bandwidth")
		}
	}

	return &OpusEncoder{
		encoder:    encoder,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		frameSize:  format.SampleRate / 50, // 20ms
	}, nil
}

// FrameSize returns samples per channel in one 20ms frame
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Encode converts one frame of int16 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []int16) ([]byte, error) {
	data := make([]byte, maxOpusPacket)
	n, err := e.encoder.Encode(samples, data)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}
	return data[:n], nil
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
