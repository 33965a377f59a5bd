package sync

import (
	"context"
	"net"
	"time"
)

// Connectivity answers "are we online right now?". Probes must be
// cheap; SaveOrMutate asks on every mutation.
type Connectivity interface {
	IsOnline(ctx context.Context) bool
}

// DialProbe checks connectivity by opening a TCP connection to a
// well-known address. The zero value probes 1.1.1.1:53.
type DialProbe struct {
	Addr    string
	Timeout time.Duration
}

func (p DialProbe) IsOnline(ctx context.Context) bool {
	addr := p.Addr
	if addr == "" {
		addr = "1.1.1.1:53"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// Online is a Connectivity that always reports the given state.
type Online bool

func (o Online) IsOnline(ctx context.Context) bool {
	_ = ctx
	return bool(o)
}
