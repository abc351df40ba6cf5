// ABOUTME: Companion streaming server package
// ABOUTME: Serves framed PCM or compressed audio to LAN players
// Package server implements the sending side of the stream protocol.
//
// A Server accepts TCP players, checks the optional password, and fans one
// paced source out to every connected player as length-prefixed frames.
// It also announces itself over UDP broadcast and, optionally, mDNS.
//
// Example:
//
//	srv, err := server.New(server.Config{Name: "Kitchen", Password: "hunter2"})
//	if err != nil {
//		return err
//	}
//	return srv.Run(ctx)
package server
