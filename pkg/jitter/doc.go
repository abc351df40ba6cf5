// ABOUTME: Jitter buffer package for live audio frames
// ABOUTME: Bounded FIFO between the network reader and the playback pump
// Package jitter provides a bounded, drop-oldest frame queue.
//
// The producer (network reader) never blocks: when the queue is full the
// oldest frame is evicted to make room for the newest. The consumer
// (playback pump) blocks in Pop until a frame arrives or its context is
// cancelled, re-checking at a bounded poll interval.
//
// Example:
//
//	buf := jitter.New(12)
//	_ = buf.Push(frame)
//	frame, ok := buf.Pop(ctx, 50*time.Millisecond)
package jitter
