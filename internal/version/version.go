// ABOUTME: Version and product identification
// ABOUTME: Reported by the CLI, the server banner and the monitor endpoint
package version

// Version is overridden at build time with -ldflags "-X ...version.Version=x.y.z".
var Version = "0.3.0"

const (
	Product      = "WiFiAudioLink Player"
	Manufacturer = "WiFiAudioLink"
)
