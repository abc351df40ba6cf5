// ABOUTME: mDNS advertisement and browsing for streaming servers
// ABOUTME: A second announcement channel merged into the same Directory
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	log "github.com/sirupsen/logrus"
)

// ServiceType is the mDNS service servers register under.
const ServiceType = "_wifiaudiolink._tcp"

const (
	txtName       = "name="
	txtCredential = "password="
	browseTimeout = 3 * time.Second
)

// Advertisement is a running mDNS responder.
type Advertisement struct {
	server *mdns.Server
}

// Advertise publishes a server on mDNS until Shutdown.
func Advertise(name string, port int, credential string) (*Advertisement, error) {
	ips, err := getLocalIPs()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IPs: %w", err)
	}

	txt := []string{txtName + name}
	if credential != "" {
		txt = append(txt, txtCredential+credential)
	}

	service, err := mdns.NewMDNSService(name, ServiceType, "", "", port, ips, txt)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.WithFields(log.Fields{
		"component": "discovery",
		"service":   ServiceType,
	}).Infof("Advertising mDNS service %s on port %d", name, port)

	return &Advertisement{server: server}, nil
}

// Shutdown stops answering queries.
func (a *Advertisement) Shutdown() error {
	return a.server.Shutdown()
}

// browseLoop queries mDNS repeatedly until ctx is done, passing each
// answer to found.
func browseLoop(ctx context.Context, found func(ServerRecord)) {
	for {
		if ctx.Err() != nil {
			return
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				if rec, ok := recordFromEntry(entry); ok {
					found(rec)
				}
			}
		}()

		params := mdns.DefaultParams(ServiceType)
		params.Entries = entries
		params.Timeout = browseTimeout
		params.DisableIPv6 = true

		if err := mdns.Query(params); err != nil {
			log.WithError(err).WithField("component", "discovery").Debug("mDNS query failed")
		}
		close(entries)
		<-done

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func recordFromEntry(entry *mdns.ServiceEntry) (ServerRecord, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.Port <= 0 {
		return ServerRecord{}, false
	}

	rec := ServerRecord{
		Address: entry.AddrV4.String(),
		Port:    entry.Port,
		Name:    entry.Name,
	}
	for _, field := range entry.InfoFields {
		switch {
		case strings.HasPrefix(field, txtName):
			rec.Name = strings.TrimPrefix(field, txtName)
		case strings.HasPrefix(field, txtCredential):
			rec.Credential = strings.TrimPrefix(field, txtCredential)
		}
	}
	return rec, true
}

// getLocalIPs returns local non-loopback IPv4 addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
