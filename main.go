// ABOUTME: Entry point for the WiFiAudioLink player
// ABOUTME: Hands off to the cobra command tree
package main

import (
	"os"

	"github.com/WiFiAudioLink/wifiaudiolink-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
