// ABOUTME: Entry point for the WiFiAudioLink companion server
// ABOUTME: Streams a tone or audio file to players on the LAN
package main

import (
	"os"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/cli"
)

func main() {
	if err := cli.NewServerCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
