package rotctl

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/hamlab/gorotor/util"
)

// Client is a dialing rotctl peer, for ops tooling and tests.
type Client struct {
	conn net.Conn
	br   *bufio.Reader
}

// Dial connects to a rotctl server with exponential backoff; freshly
// started daemons are not always ready to accept on the first attempt.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	var conn net.Conn
	op := func() error {
		c, err := util.TCPSetup(addr, timeout)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0.,
		Multiplier:          2.,
		MaxInterval:         1 * time.Second,
		MaxElapsedTime:      timeout,
		Clock:               backoff.SystemClock})
	if err != nil {
		return nil, err
	}
	// sessions are long-lived; the dial deadline must not apply to them
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})
	return &Client{conn: conn, br: bufio.NewReader(conn)}, nil
}

// Close tears down the session.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Query asks for the current position of both axes.
func (c *Client) Query() (azDeg, elDeg int, err error) {
	if _, err = fmt.Fprint(c.conn, "p\n"); err != nil {
		return 0, 0, err
	}
	azLine, err := c.readLine()
	if err != nil {
		return 0, 0, err
	}
	elLine, err := c.readLine()
	if err != nil {
		return 0, 0, err
	}
	if err = c.expectStatus(); err != nil {
		return 0, 0, err
	}
	azDeg, err = strconv.Atoi(azLine)
	if err != nil {
		return 0, 0, fmt.Errorf("bad azimuth line %q: %w", azLine, err)
	}
	elDeg, err = strconv.Atoi(elLine)
	if err != nil {
		return 0, 0, fmt.Errorf("bad elevation line %q: %w", elLine, err)
	}
	return azDeg, elDeg, nil
}

// SetPosition requests a move of both axes.  The server clamps and
// acknowledges before motion begins.
func (c *Client) SetPosition(azDeg, elDeg int) error {
	if _, err := fmt.Fprintf(c.conn, "P %d %d\n", azDeg, elDeg); err != nil {
		return err
	}
	// the reply is an empty data line then the status line
	if _, err := c.readLine(); err != nil {
		return err
	}
	return c.expectStatus()
}

func (c *Client) readLine() (string, error) {
	line, err := c.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Client) expectStatus() error {
	line, err := c.readLine()
	if err != nil {
		return err
	}
	if line != "RPRT 0" {
		return fmt.Errorf("unexpected status line %q", line)
	}
	return nil
}
