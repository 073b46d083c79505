// Package util contains misc internal utilities.
package util

import (
	"net"
	"time"
)

// Limiter holds a min/max range for a value
type Limiter struct {
	Min float64 `yaml:"Min"`
	Max float64 `yaml:"Max"`
}

// Check returns true if min <= v <= max
func (l Limiter) Check(v float64) bool {
	return l.Min <= v && v <= l.Max
}

// Clamp saturates v at the nearer bound of the limiter
func (l Limiter) Clamp(v float64) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}

// ClampInt is Clamp for integer degrees, the unit the rotator works in
func (l Limiter) ClampInt(v int) int {
	return int(l.Clamp(float64(v)))
}

// TCPSetup opens a new TCP connection and sets a timeout on connect, read, and write
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}
