// ABOUTME: Audio decoder package for compressed stream frames
// ABOUTME: Provides Decoder interface and Opus, Opus-SILK, G.722 and zstd implementations
// Package decode turns one compressed network frame into interleaved 16-bit
// PCM samples.
//
// Supports: Opus (libopus), Opus SILK (pure Go), G.722, zstd-compressed PCM.
//
// A decoder may return an empty slice for a frame that carries no audio;
// callers treat that as a no-op rather than a failure.
//
// Example:
//
//	decoder, err := decode.New(format)
//	samples, err := decoder.Decode(frame)
package decode
