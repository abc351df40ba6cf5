// ABOUTME: Helper for waiting on the first discovered server
// ABOUTME: Used by players started without an explicit host
package discovery

import (
	"context"
	"errors"
	"time"
)

// ErrNoServer is returned when no server is announced before the deadline.
var ErrNoServer = errors.New("no server discovered")

// WaitForServer returns the first record dir yields within timeout.
func WaitForServer(ctx context.Context, dir *Directory, timeout time.Duration) (ServerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	servers := dir.Servers()
	if servers == nil {
		return ServerRecord{}, errors.New("directory is not listening")
	}

	select {
	case rec, ok := <-servers:
		if !ok {
			return ServerRecord{}, ErrNoServer
		}
		return rec, nil
	case <-ctx.Done():
		return ServerRecord{}, ErrNoServer
	}
}
