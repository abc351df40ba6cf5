// ABOUTME: Playback pump
// ABOUTME: Pops frames, decodes them when compressed and writes PCM to the sink
package stream

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/decode"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/output"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/jitter"
	log "github.com/sirupsen/logrus"
)

// counters are shared by every session of one client.
type counters struct {
	played         atomic.Uint64
	decodeFailures atomic.Uint64
	sinkResets     atomic.Uint64
	sinkFailures   atomic.Uint64
}

// Pump owns the audio sink for one session.
type Pump struct {
	buf          *jitter.Buffer
	format       audio.Format
	decoder      decode.Decoder // nil for raw PCM
	open         output.Opener
	pollInterval time.Duration
	stats        *counters
	logger       *log.Entry

	sink output.Output
}

// NewPump creates a pump. decoder may be nil when format is raw PCM.
func NewPump(buf *jitter.Buffer, format audio.Format, decoder decode.Decoder, open output.Opener, pollInterval time.Duration) *Pump {
	return &Pump{
		buf:          buf,
		format:       format,
		decoder:      decoder,
		open:         open,
		pollInterval: pollInterval,
		stats:        &counters{},
		logger:       log.WithField("component", "pump"),
	}
}

// Run plays frames until ctx is done, then releases the sink.
func (p *Pump) Run(ctx context.Context) error {
	defer p.closeSink()

	p.openSink()

	for {
		frame, ok := p.buf.Pop(ctx, p.pollInterval)
		if !ok {
			return nil
		}
		p.play(frame)
	}
}

// play handles one frame. Failures are absorbed here.
func (p *Pump) play(frame []byte) {
	pcm := frame
	if p.decoder != nil {
		samples, err := p.decoder.Decode(frame)
		if err != nil {
			p.stats.decodeFailures.Add(1)
			p.logger.WithError(fmt.Errorf("%w: %w", ErrDecodeFailed, err)).Warn("skipping frame")
			return
		}
		if len(samples) == 0 {
			return
		}
		pcm = audio.Int16ToBytes(samples)
	}

	if p.sink == nil && !p.openSink() {
		return
	}

	n, err := p.sink.Write(pcm)
	if err != nil || n < 0 {
		p.stats.sinkFailures.Add(1)
		p.logger.WithError(fmt.Errorf("%w: wrote %d: %v", ErrSinkFailed, n, err)).Warn("resetting audio sink")
		p.resetSink()
		return
	}
	p.stats.played.Add(1)
}

// resetSink closes the current sink and opens a fresh one with the same format.
func (p *Pump) resetSink() {
	p.closeSink()
	p.stats.sinkResets.Add(1)
	p.openSink()
}

func (p *Pump) openSink() bool {
	sink, err := p.open(p.format)
	if err != nil {
		p.logger.WithError(err).Warn("failed to open audio sink, will retry on next frame")
		return false
	}
	p.sink = sink
	return true
}

func (p *Pump) closeSink() {
	if p.sink == nil {
		return
	}
	if err := p.sink.Close(); err != nil {
		p.logger.WithError(err).Debug("audio sink close failed")
	}
	p.sink = nil
}
