// ABOUTME: FLAC file source backed by mewkiz/flac
// ABOUTME: Scales any bit depth to 16-bit and loops at end of stream
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
	log "github.com/sirupsen/logrus"
)

// FLAC reads interleaved PCM from a FLAC file
type FLAC struct {
	file       *os.File
	stream     *flac.Stream
	sampleRate int
	channels   int
	bitDepth   int
	title      string
	pending    []int16
}

// NewFLAC opens a FLAC file
func NewFLAC(path string) (*FLAC, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	s := &FLAC{
		file:       f,
		stream:     stream,
		sampleRate: int(stream.Info.SampleRate),
		channels:   int(stream.Info.NChannels),
		bitDepth:   int(stream.Info.BitsPerSample),
		title:      titleOf(path),
	}
	log.WithFields(log.Fields{
		"component":   "source",
		"title":       s.title,
		"sample_rate": s.sampleRate,
		"channels":    s.channels,
		"bit_depth":   s.bitDepth,
	}).Info("Loaded FLAC")
	return s, nil
}

func (s *FLAC) Read(samples []int16) (int, error) {
	for len(s.pending) < len(samples) {
		frame, err := s.stream.ParseNext()
		if errors.Is(err, io.EOF) {
			if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
				return 0, fmt.Errorf("failed to seek to start: %w", seekErr)
			}
			stream, decErr := flac.New(s.file)
			if decErr != nil {
				return 0, fmt.Errorf("failed to create new stream: %w", decErr)
			}
			s.stream = stream
			continue
		}
		if err != nil {
			return 0, err
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.channels; ch++ {
				s.pending = append(s.pending, scaleTo16(frame.Subframes[ch].Samples[i], s.bitDepth))
			}
		}
	}

	n := copy(samples, s.pending)
	s.pending = append(s.pending[:0], s.pending[n:]...)
	return n, nil
}

func scaleTo16(sample int32, bitDepth int) int16 {
	shift := bitDepth - 16
	if shift > 0 {
		return int16(sample >> shift)
	}
	return int16(sample << -shift)
}

func (s *FLAC) SampleRate() int { return s.sampleRate }
func (s *FLAC) Channels() int   { return s.channels }
func (s *FLAC) Name() string    { return s.title }
func (s *FLAC) Close() error    { return s.file.Close() }
