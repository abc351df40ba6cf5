// ABOUTME: Streaming engine package
// ABOUTME: Framed TCP reader, playback pump, session state machine and reconnect loop
// Package stream receives length-prefixed audio frames from a server and
// plays them.
//
// A Session performs one connect, authenticate and stream attempt: its
// Reader pushes frames into a jitter.Buffer while its Pump pops, decodes and
// writes them to an audio sink. A Client supervises sessions and reconnects
// after a fixed backoff until stopped.
//
// Example:
//
//	client := stream.NewClient(listener)
//	err := client.Start(stream.SessionConfig{
//	    Host:       "192.168.1.10",
//	    Port:       stream.DefaultPort,
//	    Credential: "secret",
//	    Codec:      audio.CodecOpus,
//	    SampleRate: 48000,
//	    Channels:   2,
//	})
//	defer func() {
//	    client.Stop()
//	    client.Wait()
//	}()
package stream
