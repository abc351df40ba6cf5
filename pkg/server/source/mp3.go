// ABOUTME: MP3 file source backed by go-mp3
// ABOUTME: Loops the file when the decoder reaches the end
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
	log "github.com/sirupsen/logrus"
)

// MP3 reads 16-bit stereo PCM from an MP3 file
type MP3 struct {
	file    *os.File
	decoder *mp3.Decoder
	title   string
	buf     []byte
}

// NewMP3 opens an MP3 file
func NewMP3(path string) (*MP3, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	s := &MP3{file: f, decoder: decoder, title: titleOf(path)}
	log.WithFields(log.Fields{
		"component":   "source",
		"title":       s.title,
		"sample_rate": decoder.SampleRate(),
	}).Info("Loaded MP3")
	return s, nil
}

func (s *MP3) Read(samples []int16) (int, error) {
	need := len(samples) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]

	n, err := s.decoder.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	count := n / 2
	for i := 0; i < count; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}

	if errors.Is(err, io.EOF) {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return count, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		decoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return count, fmt.Errorf("failed to create new decoder: %w", decErr)
		}
		s.decoder = decoder
	}

	return count, nil
}

func (s *MP3) SampleRate() int { return s.decoder.SampleRate() }

// Channels is always 2; go-mp3 emits stereo.
func (s *MP3) Channels() int { return 2 }
func (s *MP3) Name() string  { return s.title }
func (s *MP3) Close() error  { return s.file.Close() }
