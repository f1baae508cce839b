package testutils

import (
	"context"
	"net"
	"sync"
	"syscall"
	"time"
)

// DialMode controls how the fake dialer treats one address.
type DialMode int

const (
	// Refuse is the default for unknown addresses.
	Refuse DialMode = iota
	Accept
	Timeout
	DNSFail
	Reset
)

// FakeDialer is a transport stand-in for probe tests: per-address behavior,
// no sockets. Safe for concurrent use.
type FakeDialer struct {
	mu    sync.Mutex
	modes map[string]DialMode
	conns []*FakeConn
}

func NewFakeDialer() *FakeDialer {
	return &FakeDialer{modes: make(map[string]DialMode)}
}

// Set configures the behavior for one host:port address.
func (d *FakeDialer) Set(addr string, mode DialMode) *FakeDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modes[addr] = mode
	return d
}

func (d *FakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	mode := d.modes[address]
	d.mu.Unlock()

	switch mode {
	case Accept:
		conn := &FakeConn{}
		d.mu.Lock()
		d.conns = append(d.conns, conn)
		d.mu.Unlock()
		return conn, nil
	case Timeout:
		<-ctx.Done()
		return nil, ctx.Err()
	case DNSFail:
		host, _, _ := net.SplitHostPort(address)
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	case Reset:
		return nil, &net.OpError{Op: "read", Net: network, Err: syscall.ECONNRESET}
	default:
		return nil, &net.OpError{Op: "dial", Net: network, Err: syscall.ECONNREFUSED}
	}
}

// Conns returns every connection handed out, for leak assertions.
func (d *FakeDialer) Conns() []*FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*FakeConn, len(d.conns))
	copy(out, d.conns)
	return out
}

// FakeConn is a net.Conn that only counts Close calls.
type FakeConn struct {
	mu     sync.Mutex
	closes int
}

func (c *FakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *FakeConn) Read(b []byte) (int, error)  { return 0, nil }
func (c *FakeConn) Write(b []byte) (int, error) { return len(b), nil }

func (c *FakeConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *FakeConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *FakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *FakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *FakeConn) SetWriteDeadline(t time.Time) error { return nil }
