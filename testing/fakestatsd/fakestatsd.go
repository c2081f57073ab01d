// Package fakestatsd is a UDP listener that records the DogStatsD datagrams sent to it.
package fakestatsd

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
)

type Metric struct {
	Name  string
	Value string
	// Type is the statsd type, eg. c, g, ms or h
	Type string
	Tags []string
}

type FakeStatsd struct {
	conn *net.UDPConn

	mu      sync.RWMutex
	metrics []Metric
}

// New starts a listener on a random local port. It is closed when the test ends.
func New(t testing.TB) *FakeStatsd {
	t.Helper()

	addr, err := net.ResolveUDPAddr("udp", "localhost:0")
	assert.Assert(t, err)

	conn, err := net.ListenUDP("udp", addr)
	assert.Assert(t, err)

	s := &FakeStatsd{conn: conn}
	go s.listen()
	t.Cleanup(func() { _ = s.conn.Close() })

	return s
}

func (s *FakeStatsd) Addr() string {
	return s.conn.LocalAddr().String()
}

func (s *FakeStatsd) Metrics() []Metric {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := make([]Metric, len(s.metrics))
	copy(metrics, s.metrics)
	return metrics
}

// Named returns the metrics received with the fully namespaced name.
func (s *FakeStatsd) Named(name string) []Metric {
	var found []Metric
	for _, m := range s.Metrics() {
		if m.Name == name {
			found = append(found, m)
		}
	}
	return found
}

func (s *FakeStatsd) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = nil
}

func (s *FakeStatsd) listen() {
	buf := make([]byte, 65535)
	for {
		n, err := s.conn.Read(buf)
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			continue
		}

		for _, raw := range bytes.Split(buf[:n], []byte("\n")) {
			raw = bytes.TrimSpace(raw)
			if len(raw) == 0 {
				continue
			}
			if m, ok := parse(string(raw)); ok {
				s.record(m)
			}
		}
	}
}

func (s *FakeStatsd) record(m Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

// parse reads a datagram of the form name:value|type|@rate|#tag1,tag2
func parse(raw string) (Metric, bool) {
	name, rest, ok := strings.Cut(raw, ":")
	if !ok {
		return Metric{}, false
	}

	parts := strings.Split(rest, "|")
	m := Metric{Name: name, Value: parts[0]}
	if len(parts) > 1 {
		m.Type = parts[1]
	}
	for _, p := range parts[2:] {
		if strings.HasPrefix(p, "#") {
			m.Tags = strings.Split(p[1:], ",")
		}
	}
	return m, true
}
