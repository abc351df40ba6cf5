// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output sink interface and oto, malgo and discard backends
// Package output provides audio playback sinks.
//
// A sink accepts interleaved 16-bit little-endian PCM. Backends:
// oto (default), malgo (miniaudio) and discard (headless).
//
// Example:
//
//	open, err := output.OpenerFor("oto")
//	sink, err := open(format)
//	n, err := sink.Write(pcm)
package output
