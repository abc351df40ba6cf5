// ABOUTME: LAN service discovery package
// ABOUTME: Discover and advertise streaming servers via UDP broadcast and mDNS
// Package discovery finds streaming servers on the local network.
//
// Servers broadcast a "name;tcp_port;credential" datagram on the discovery
// port every couple of seconds. A Directory listens for those datagrams
// (and optionally browses mDNS) and yields each distinct server once.
//
// Example:
//
//	dir := discovery.NewDirectory(discovery.Config{Port: discovery.DefaultPort})
//	if err := dir.Listen(); err != nil {
//	    return err
//	}
//	defer dir.Stop()
//	for rec := range dir.Servers() {
//	    fmt.Printf("Found: %s at %s:%d\n", rec.Name, rec.Address, rec.Port)
//	}
package discovery
