// ABOUTME: Session configuration and defaults
// ABOUTME: Immutable per-session settings plus injected sink and decoder factories
package stream

import (
	"fmt"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/decode"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/output"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/jitter"
)

// Defaults used when a SessionConfig field is left zero.
const (
	DefaultPort           = 8765
	DefaultSampleRate     = 48000
	DefaultChannels       = 2
	DefaultBackoff        = 2 * time.Second
	DefaultConnectTimeout = 2 * time.Second
	DefaultAuthTimeout    = 3 * time.Second
)

// DecoderFactory builds the decoder for a compressed stream.
type DecoderFactory func(format audio.Format) (decode.Decoder, error)

// SessionConfig holds everything one session needs. A session never
// modifies it.
type SessionConfig struct {
	Host       string
	Port       int
	Credential string // empty skips the handshake

	Codec      string // audio.CodecRaw or a compressed codec
	SampleRate int
	Channels   int

	BufferCapacity int           // jitter buffer frames
	PollInterval   time.Duration // jitter buffer re-check interval
	ConnectTimeout time.Duration
	AuthTimeout    time.Duration

	// Output opens the audio sink. Defaults to the oto backend.
	Output output.Opener
	// NewDecoder builds the decoder for compressed codecs. Defaults to decode.New.
	NewDecoder DecoderFactory
}

// Format returns the stream format described by the config.
func (c SessionConfig) Format() audio.Format {
	return audio.Format{
		Codec:      c.Codec,
		SampleRate: c.SampleRate,
		Channels:   c.Channels,
		BitDepth:   16,
	}
}

// withDefaults returns a copy with zero fields filled in.
func (c SessionConfig) withDefaults() SessionConfig {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Codec == "" {
		c.Codec = audio.CodecRaw
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = jitter.DefaultCapacity
	}
	if c.PollInterval <= 0 {
		c.PollInterval = jitter.DefaultPollInterval
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = DefaultAuthTimeout
	}
	if c.Output == nil {
		c.Output = output.OpenWith(output.NewOto)
	}
	if c.NewDecoder == nil {
		c.NewDecoder = decode.New
	}
	return c
}

// Validate checks the config after defaults are applied.
func (c SessionConfig) Validate() error {
	c = c.withDefaults()
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if err := c.Format().Validate(); err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}
	return nil
}
