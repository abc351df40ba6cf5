// ABOUTME: Periodic UDP announcement sender used by the streaming server
// ABOUTME: Broadcasts name;tcp_port;credential on the discovery port
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultInterval is how often a server announces itself.
const DefaultInterval = 2 * time.Second

// Broadcaster announces one server on the LAN
type Broadcaster struct {
	Name       string
	Port       int    // TCP data port being announced
	Credential string // sent in clear, like the handshake itself
	Interval   time.Duration
	Target     *net.UDPAddr // defaults to 255.255.255.255:DefaultPort
}

// Run sends an announcement immediately and then every Interval until ctx
// is done. Send errors are logged and ignored.
func (b *Broadcaster) Run(ctx context.Context) error {
	target := b.Target
	if target == nil {
		target = &net.UDPAddr{IP: net.IPv4bcast, Port: DefaultPort}
	}
	interval := b.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("failed to open broadcast socket: %w", err)
	}
	defer conn.Close()

	payload := FormatAnnouncement(b.Name, b.Port, b.Credential)
	logger := log.WithFields(log.Fields{
		"component": "discovery",
		"target":    target.String(),
	})
	logger.Infof("Announcing %s every %s", b.Name, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := conn.WriteToUDP(payload, target); err != nil {
			logger.WithError(err).Debug("announcement send failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
