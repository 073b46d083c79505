package axis

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snksoft/crc"
	"github.com/tarm/serial"
)

// The serial backend speaks a line protocol to an off-board motor
// controller.  Frames are "$<PAYLOAD>*<CRC>\n" where CRC is the XMODEM
// CRC16 of the payload in four upper-case hex digits.  Commands:
//
//	ENA          power the coils, reply OK
//	DIS          drop the coils, reply OK
//	MOV <steps>  run to the absolute step count, reply OK on completion
//	POS          reply the current step count
//
// The controller paces steps itself, so MOV replies only once the motion
// is done; that property gives RunTo its blocking contract for free.

const (
	serialTerminator = '\n'

	// serialReadTries bounds reply collection; at the 1s port timeout this
	// allows ten minutes, enough for a full-travel move at minimum speed.
	serialReadTries = 600
)

var crcTable = crc.NewTable(crc.XMODEM)

// MakeSerConf makes a new serial config
func MakeSerConf(addr string, baud int) *serial.Config {
	if baud <= 0 {
		baud = 115200
	}
	return &serial.Config{
		Name:        addr,
		Baud:        baud,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: 1 * time.Second}
}

// frame wraps a payload in the $...*CRC\n framing.
func frame(payload string) []byte {
	return []byte(fmt.Sprintf("$%s*%04X%c", payload, checksum(payload), serialTerminator))
}

// unframe validates framing and checksum and returns the payload.
func unframe(line string) (string, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 6 || line[0] != '$' {
		return "", fmt.Errorf("malformed frame %q", line)
	}
	star := strings.LastIndexByte(line, '*')
	if star < 0 || len(line)-star != 5 {
		return "", fmt.Errorf("malformed frame %q", line)
	}
	payload := line[1:star]
	want, err := strconv.ParseUint(line[star+1:], 16, 16)
	if err != nil {
		return "", fmt.Errorf("malformed checksum in frame %q", line)
	}
	if got := checksum(payload); got != uint16(want) {
		return "", fmt.Errorf("checksum mismatch in frame %q: computed %04X", line, got)
	}
	return payload, nil
}

func checksum(payload string) uint16 {
	c := crcTable.InitCrc()
	c = crcTable.UpdateCrc(c, []byte(payload))
	return crcTable.CRC16(c)
}

// SerialController is a Mover backed by an off-board controller on a
// serial line.
type SerialController struct {
	conn io.ReadWriteCloser
	br   *bufio.Reader

	mu      sync.Mutex
	lastPos atomic.Int64
}

// NewSerialController opens the port and returns a controller.
func NewSerialController(addr string, baud int) (*SerialController, error) {
	conn, err := serial.OpenPort(MakeSerConf(addr, baud))
	if err != nil {
		return nil, err
	}
	return &SerialController{conn: conn, br: bufio.NewReader(conn)}, nil
}

// newSerialOverConn is used by tests to substitute the port.
func newSerialOverConn(conn io.ReadWriteCloser) *SerialController {
	return &SerialController{conn: conn, br: bufio.NewReader(conn)}
}

// Close closes the underlying port.
func (s *SerialController) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// sendRecv writes one framed command and reads one framed reply.  The lock
// keeps request/reply pairs intact on the shared line.
func (s *SerialController) sendRecv(payload string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendRecvLocked(payload)
}

func (s *SerialController) sendRecvLocked(payload string) (string, error) {
	if s.conn == nil {
		return "", ErrNotConnected
	}
	if _, err := s.conn.Write(frame(payload)); err != nil {
		return "", err
	}
	// the port read timeout causes short reads while the controller is
	// busy; keep collecting until the terminator arrives.  MOV replies
	// only at end of travel, so the window must cover the longest move.
	var line []byte
	for tries := 0; ; tries++ {
		chunk, err := s.br.ReadBytes(serialTerminator)
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if err != io.EOF {
			return "", err
		}
		if tries >= serialReadTries {
			return "", fmt.Errorf("no reply to %q from controller", payload)
		}
	}
	return unframe(string(line))
}

// Enable powers the coils.
func (s *SerialController) Enable() error {
	return s.command("ENA")
}

// Disable drops the coils.
func (s *SerialController) Disable() error {
	return s.command("DIS")
}

func (s *SerialController) command(payload string) error {
	resp, err := s.sendRecv(payload)
	if err != nil {
		return err
	}
	if resp != "OK" {
		return fmt.Errorf("unexpected response, expected OK got %s", resp)
	}
	return nil
}

// RunTo commands the controller to the absolute step count and blocks
// until it acknowledges completion.
func (s *SerialController) RunTo(ctx context.Context, target int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.command(fmt.Sprintf("MOV %d", target)); err != nil {
		return err
	}
	s.lastPos.Store(int64(target))
	return nil
}

// CurrentSteps polls the controller for its position.  If the line is in
// use by an in-flight move the last known position is returned instead.
func (s *SerialController) CurrentSteps() int {
	if !s.mu.TryLock() {
		return int(s.lastPos.Load())
	}
	defer s.mu.Unlock()
	resp, err := s.sendRecvLocked("POS")
	if err != nil {
		return int(s.lastPos.Load())
	}
	steps, err := strconv.Atoi(resp)
	if err != nil {
		return int(s.lastPos.Load())
	}
	s.lastPos.Store(int64(steps))
	return steps
}
