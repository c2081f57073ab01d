package httpserver

import (
	"context"
	"net"
	"sync"
)

// trackedListener counts the connections it has accepted and how many are still open.
type trackedListener struct {
	net.Listener
	name string

	mu       sync.Mutex
	active   int
	accepted int
}

func newTrackedListener(ln net.Listener, name string) *trackedListener {
	return &trackedListener{Listener: ln, name: name}
}

func (l *trackedListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.active++
	l.accepted++
	l.mu.Unlock()

	return &trackedConn{Conn: c, l: l}, nil
}

func (l *trackedListener) closed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active--
}

func (l *trackedListener) MetricName() string {
	return l.name + "-listener"
}

func (l *trackedListener) Gauges(context.Context) map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return map[string]float64{
		"active_connections":   float64(l.active),
		"accepted_connections": float64(l.accepted),
	}
}

type trackedConn struct {
	net.Conn
	l    *trackedListener
	once sync.Once
}

func (c *trackedConn) Close() error {
	c.once.Do(c.l.closed)
	return c.Conn.Close()
}
