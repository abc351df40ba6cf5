// ABOUTME: Server directory fed by UDP broadcast announcements
// ABOUTME: Deduplicates servers by address and port and streams them on a channel
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultPort is the UDP port servers announce on.
const DefaultPort = 8766

// maxDatagram bounds one announcement.
const maxDatagram = 512

// Config holds discovery configuration
type Config struct {
	Port int  // UDP port to listen on; 0 picks an ephemeral port
	MDNS bool // also browse mDNS for servers
}

// Directory collects announced servers. Each Listen starts a fresh sequence
// with an empty dedup set; Stop ends it and closes the Servers channel.
type Directory struct {
	config Config

	mu      sync.Mutex
	conn    *net.UDPConn
	cancel  context.CancelFunc
	servers chan ServerRecord
	seen    map[string]ServerRecord
	order   []string
	wg      sync.WaitGroup
}

// NewDirectory creates a directory. It does not bind until Listen.
func NewDirectory(config Config) *Directory {
	return &Directory{config: config}
}

// Listen binds the discovery socket and starts receiving announcements.
func (d *Directory) Listen() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return errors.New("directory already listening")
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: d.config.Port})
	if err != nil {
		return fmt.Errorf("failed to bind discovery port %d: %w", d.config.Port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.conn = conn
	d.cancel = cancel
	d.servers = make(chan ServerRecord, 16)
	d.seen = make(map[string]ServerRecord)
	d.order = nil

	log.WithFields(log.Fields{
		"component": "discovery",
		"addr":      conn.LocalAddr().String(),
	}).Info("Listening for server announcements")

	d.wg.Add(1)
	go d.receiveLoop(ctx, conn, d.servers)

	if d.config.MDNS {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			browseLoop(ctx, func(rec ServerRecord) { d.add(ctx, d.servers, rec) })
		}()
	}

	return nil
}

// Addr returns the bound socket address, or nil when not listening.
func (d *Directory) Addr() *net.UDPAddr {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	return d.conn.LocalAddr().(*net.UDPAddr)
}

// Servers returns the channel of newly discovered servers for the current
// Listen. It is closed by Stop.
func (d *Directory) Servers() <-chan ServerRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.servers
}

// Records returns every server seen since Listen, in discovery order.
func (d *Directory) Records() []ServerRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]ServerRecord, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.seen[key])
	}
	return out
}

// Stop closes the socket, waits for the receive loop and closes Servers.
// Safe to call more than once.
func (d *Directory) Stop() {
	d.mu.Lock()
	conn := d.conn
	cancel := d.cancel
	servers := d.servers
	d.conn = nil
	d.cancel = nil
	d.mu.Unlock()

	if conn == nil {
		return
	}

	cancel()
	conn.Close()
	d.wg.Wait()
	close(servers)
}

func (d *Directory) receiveLoop(ctx context.Context, conn *net.UDPConn, servers chan ServerRecord) {
	defer d.wg.Done()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.WithError(err).WithField("component", "discovery").Debug("discovery read failed")
			continue
		}

		rec, ok := ParseAnnouncement(from.IP.String(), buf[:n])
		if !ok {
			continue
		}
		d.add(ctx, servers, rec)
	}
}

// add records rec if its key is new and publishes it.
func (d *Directory) add(ctx context.Context, servers chan ServerRecord, rec ServerRecord) {
	key := rec.Key()

	d.mu.Lock()
	if d.seen == nil {
		d.mu.Unlock()
		return
	}
	if _, dup := d.seen[key]; dup {
		d.mu.Unlock()
		return
	}
	d.seen[key] = rec
	d.order = append(d.order, key)
	d.mu.Unlock()

	log.WithFields(log.Fields{
		"component": "discovery",
		"server":    key,
	}).Infof("Discovered server: %s", rec.Name)

	select {
	case servers <- rec:
	case <-ctx.Done():
	}
}
