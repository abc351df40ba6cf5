// ABOUTME: Audio encoder package for the companion streaming server
// ABOUTME: Provides Encoder interface and raw PCM, Opus, G.722 and zstd implementations
// Package encode turns one chunk of interleaved 16-bit PCM into one network
// frame payload.
//
// Supports: raw PCM (s16le passthrough), Opus, G.722, zstd-compressed PCM.
// Frames produced here are what the decode package consumes on the player.
//
// Example:
//
//	encoder, err := encode.New(format)
//	payload, err := encoder.Encode(samples)
package encode
