// ABOUTME: PCM source abstraction for the companion server
// ABOUTME: Opens tone or file sources and fits them to the stream format
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio"
	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/audio/resample"
)

// Source provides interleaved int16 PCM samples
type Source interface {
	// Read fills samples and returns how many were written.
	Read(samples []int16) (int, error)
	SampleRate() int
	Channels() int
	// Name is a human-readable label for logs and banners
	Name() string
	Close() error
}

// Options selects and configures a source
type Options struct {
	// Path is "tone" (or empty) for the generator, otherwise an .mp3 or .flac file
	Path       string
	ToneHz     float64
	SampleRate int
	Channels   int
}

// Open creates the source named by opts.Path
func Open(opts Options) (Source, error) {
	if opts.Path == "" || opts.Path == "tone" {
		return NewTone(opts.ToneHz, opts.SampleRate, opts.Channels), nil
	}

	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", opts.Path)
	}

	switch ext := strings.ToLower(filepath.Ext(opts.Path)); ext {
	case ".mp3":
		return NewMP3(opts.Path)
	case ".flac":
		return NewFLAC(opts.Path)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

func titleOf(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// Fitted converts a source to a fixed sample rate and channel count
type Fitted struct {
	src       Source
	format    audio.Format
	resampler *resample.Resampler
	pending   []int16
	scratch   []int16
}

// Fit wraps src so that reads yield PCM in the given format. A source that
// already matches is returned unchanged.
func Fit(src Source, format audio.Format) Source {
	if src.SampleRate() == format.SampleRate && src.Channels() == format.Channels {
		return src
	}
	f := &Fitted{src: src, format: format}
	if src.SampleRate() != format.SampleRate {
		f.resampler = resample.New(src.SampleRate(), format.SampleRate, format.Channels)
	}
	return f
}

func (f *Fitted) Read(samples []int16) (int, error) {
	for len(f.pending) < len(samples) {
		if f.scratch == nil {
			f.scratch = make([]int16, 1024*f.src.Channels())
		}
		n, err := f.src.Read(f.scratch)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			continue
		}
		chunk := resample.Remix(f.scratch[:n], f.src.Channels(), f.format.Channels)
		if f.resampler != nil {
			chunk = f.resampler.Resample(chunk)
		}
		f.pending = append(f.pending, chunk...)
	}

	n := copy(samples, f.pending)
	f.pending = append(f.pending[:0], f.pending[n:]...)
	return n, nil
}

func (f *Fitted) SampleRate() int { return f.format.SampleRate }
func (f *Fitted) Channels() int   { return f.format.Channels }
func (f *Fitted) Name() string    { return f.src.Name() }
func (f *Fitted) Close() error    { return f.src.Close() }
