// ABOUTME: Server configuration and defaults
// ABOUTME: Validates the outgoing stream format and chunking
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/discovery"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/server/source"
)

const (
	DefaultPort        = 8765
	DefaultChunkFrames = 1024
	DefaultAuthTimeout = 5 * time.Second

	// maxAuthMessage bounds the password read
	maxAuthMessage = 128
	// maxFrame is the largest payload a u16 length prefix can carry
	maxFrame = 0xFFFF
	// clientQueue is the per-player backlog before chunks are dropped
	clientQueue = 64
)

// Config holds server configuration
type Config struct {
	Name     string
	Port     int
	Password string
	Format   audio.Format

	// ChunkFrames is the PCM frames per chunk. Opus codecs always use 20 ms.
	ChunkFrames int

	// Source defaults to a 440 Hz tone in Format
	Source source.Source

	// Announce enables the UDP discovery broadcaster
	Announce         bool
	AnnounceInterval time.Duration
	AnnounceTarget   *net.UDPAddr // defaults to 255.255.255.255:DiscoveryPort
	DiscoveryPort    int

	// MDNS additionally advertises the server over mDNS
	MDNS bool

	AuthTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		if host, err := os.Hostname(); err == nil {
			c.Name = host
		} else {
			c.Name = "WiFiAudioLink"
		}
	}
	if c.Format.Codec == "" {
		c.Format.Codec = audio.CodecRaw
	}
	if c.Format.SampleRate == 0 {
		c.Format.SampleRate = 48000
	}
	if c.Format.Channels == 0 {
		c.Format.Channels = 2
	}
	if c.ChunkFrames == 0 {
		c.ChunkFrames = DefaultChunkFrames
	}
	if c.DiscoveryPort == 0 {
		c.DiscoveryPort = discovery.DefaultPort
	}
	if c.AnnounceInterval == 0 {
		c.AnnounceInterval = discovery.DefaultInterval
	}
	if c.AuthTimeout == 0 {
		c.AuthTimeout = DefaultAuthTimeout
	}
	return c
}

// Validate reports configuration errors
func (c Config) Validate() error {
	if err := c.Format.Validate(); err != nil {
		return err
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ChunkFrames <= 0 {
		return errors.New("chunk frames must be positive")
	}
	if c.ChunkFrames*c.Format.Channels*audio.BytesPerSample > maxFrame {
		return fmt.Errorf("chunk of %d frames does not fit in one frame", c.ChunkFrames)
	}
	return nil
}
