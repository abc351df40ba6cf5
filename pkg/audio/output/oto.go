// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams s16le PCM through a pipe into a persistent oto player
package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
	log "github.com/sirupsen/logrus"
)

// oto allows a single context per process, so every Oto sink shares it.
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

func sharedOtoContext(format audio.Format) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat.SampleRate != format.SampleRate || otoFormat.Channels != format.Channels {
			return nil, fmt.Errorf("oto context already running at %dHz %dch, cannot switch to %dHz %dch",
				otoFormat.SampleRate, otoFormat.Channels, format.SampleRate, format.Channels)
		}
		if err := otoCtx.Resume(); err != nil {
			return nil, fmt.Errorf("failed to resume oto context: %w", err)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoFormat = format
	return ctx, nil
}

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format) error {
	if err := checkFormat(format); err != nil {
		return err
	}

	ctx, err := sharedOtoContext(format)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = ctx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	log.WithFields(log.Fields{
		"component": "output",
		"backend":   BackendOto,
	}).Infof("Audio output initialized: %dHz, %d channels", format.SampleRate, format.Channels)

	return nil
}

// Write outputs PCM bytes (blocks until the player has taken them)
func (o *Oto) Write(pcm []byte) (int, error) {
	o.mu.Lock()
	w := o.pipeWriter
	ready := o.ready
	o.mu.Unlock()

	if !ready || w == nil {
		return 0, ErrClosed
	}

	n, err := w.Write(pcm)
	if err != nil {
		return n, fmt.Errorf("pipe write failed: %w", err)
	}
	return n, nil
}

// Close releases the player. The shared context stays alive for the next sink.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.ready = false
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	return nil
}
