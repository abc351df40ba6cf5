// ABOUTME: Process-wide logging setup
// ABOUTME: Routes logrus output to a log file and optionally the console
package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Options controls where and how much is logged
type Options struct {
	Level   string // logrus level name; empty means info
	File    string // log file path; empty disables file logging
	Console bool   // also write to stdout
	JSON    bool
}

// Setup configures the global logrus logger. The returned closer releases
// the log file and is never nil.
func Setup(opts Options) (io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	log.SetLevel(level)

	if opts.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nopCloser{}, fmt.Errorf("error opening log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console {
		writers = append(writers, os.Stdout)
	}

	switch len(writers) {
	case 0:
		// TUI without a log file: keep the screen clean.
		log.SetOutput(io.Discard)
	case 1:
		log.SetOutput(writers[0])
	default:
		log.SetOutput(io.MultiWriter(writers...))
	}

	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
