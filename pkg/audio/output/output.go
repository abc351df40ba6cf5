// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends and backend lookup
package output

import (
	"errors"
	"fmt"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
)

// Backend names accepted by OpenerFor.
const (
	BackendOto     = "oto"
	BackendMalgo   = "malgo"
	BackendDiscard = "discard"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("output closed")

// Output represents an audio output device
type Output interface {
	// Open initializes the output device for s16le PCM in the given format
	Open(format audio.Format) error

	// Write queues interleaved s16le PCM and returns the bytes accepted
	Write(pcm []byte) (int, error)

	// Close releases output resources
	Close() error
}

// Opener produces a freshly opened sink. The playback pump calls it once at
// startup and again after every failed write.
type Opener func(format audio.Format) (Output, error)

// OpenWith returns an Opener that builds a new Output with newOutput and opens it.
func OpenWith(newOutput func() Output) Opener {
	return func(format audio.Format) (Output, error) {
		out := newOutput()
		if err := out.Open(format); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// OpenerFor maps a backend name to an Opener.
func OpenerFor(backend string) (Opener, error) {
	switch backend {
	case BackendOto, "":
		return OpenWith(NewOto), nil
	case BackendMalgo:
		return OpenWith(NewMalgo), nil
	case BackendDiscard:
		return OpenWith(NewDiscard), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s", backend)
	}
}

func checkFormat(format audio.Format) error {
	if format.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	if format.Channels != 1 && format.Channels != 2 {
		return fmt.Errorf("invalid channel count: %d", format.Channels)
	}
	if format.BitDepth != 0 && format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}
	return nil
}
