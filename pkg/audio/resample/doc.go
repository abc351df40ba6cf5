// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts int16 PCM between sample rates and channel layouts
// Package resample provides streaming sample rate conversion.
//
// Uses linear interpolation and carries the last input frame between calls,
// so consecutive chunks join without clicks.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := r.Resample(chunk)
package resample
