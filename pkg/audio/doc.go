// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, codec names and s16le sample conversions
// Package audio provides the audio types shared by the streaming engine.
//
// Everything on the playback path is interleaved signed 16-bit little-endian
// PCM. Compressed frames are turned into []int16 by the decode package and
// written to an output.Output as bytes.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      audio.CodecOpus,
//	    SampleRate: 48000,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	pcm := audio.Int16ToBytes(samples)
package audio
