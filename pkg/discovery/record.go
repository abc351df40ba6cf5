// ABOUTME: Server announcement records
// ABOUTME: Parses and formats the name;tcp_port;credential discovery datagram
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ServerRecord describes one announced streaming server. Records are
// identified by Address and Port; Name and Credential are informational.
type ServerRecord struct {
	Address    string
	Port       int
	Name       string
	Credential string
}

// Key returns the identity of the record.
func (r ServerRecord) Key() string {
	return net.JoinHostPort(r.Address, strconv.Itoa(r.Port))
}

func (r ServerRecord) String() string {
	if r.Name == "" {
		return r.Key()
	}
	return fmt.Sprintf("%s (%s)", r.Name, r.Key())
}

// ParseAnnouncement decodes a discovery datagram received from addr.
// Datagrams with fewer than two fields or a non-numeric port are rejected.
func ParseAnnouncement(addr string, payload []byte) (ServerRecord, bool) {
	parts := strings.SplitN(string(payload), ";", 3)
	if len(parts) < 2 {
		return ServerRecord{}, false
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return ServerRecord{}, false
	}

	rec := ServerRecord{
		Address: addr,
		Port:    port,
		Name:    parts[0],
	}
	if len(parts) == 3 {
		rec.Credential = parts[2]
	}
	return rec, true
}

// FormatAnnouncement builds the datagram a server broadcasts.
func FormatAnnouncement(name string, port int, credential string) []byte {
	return []byte(fmt.Sprintf("%s;%d;%s", name, port, credential))
}
