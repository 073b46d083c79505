// Package rotctl implements the rotctld-compatible line command protocol:
// parsing and formatting, a TCP session server, and a dialing client.
//
// The protocol is deliberately lenient for interoperability with
// loosely-specified remote-control clients: out-of-range targets clamp,
// malformed numeric fields read as zero, and unrecognized commands are
// dropped without a reply.  Parsing never fails outward.
package rotctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gorotor_rotctl_commands_total",
		Help: "Lines received on the rotctl port, labeled by parse outcome.",
	}, []string{"kind"})

	malformedFields = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gorotor_rotctl_malformed_fields_total",
		Help: "Numeric fields that parsed as zero for lack of a digit prefix.",
	})
)

// Kind discriminates the parse result.  Unrecognized is a first-class
// outcome so tests can assert on it even though the external behavior is
// silence.
type Kind int

const (
	Unrecognized Kind = iota
	Query
	SetPosition
)

// Command is the transient value parsed from one line.  Az and El are only
// meaningful for SetPosition.
type Command struct {
	Kind Kind
	Az   int
	El   int
}

// ParseLine parses one newline-terminated command line.
//
// "p" queries both positions.  "P <az> <el>" sets both targets; after the
// fixed two-character prefix the payload is two whitespace-separated
// numeric fields, azimuth then elevation.  Anything else is Unrecognized.
func ParseLine(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return Command{}
	}
	switch line[0] {
	case 'p':
		return Command{Kind: Query}
	case 'P':
		var payload string
		if len(line) > 2 {
			payload = line[2:]
		}
		fields := strings.Fields(payload)
		var az, el int
		if len(fields) > 0 {
			az = intPrefix(fields[0])
		}
		if len(fields) > 1 {
			el = intPrefix(fields[1])
		}
		return Command{Kind: SetPosition, Az: az, El: el}
	}
	return Command{}
}

// intPrefix interprets the integer prefix of a numeric field, stopping at
// a fractional separator ('.' or ',') or any other non-digit.  Fractional
// parts are accepted in the grammar but discarded; integer-degree
// precision only, rounding down, which hamlib-style clients rely on.
// A field with no digit prefix reads as 0.
func intPrefix(s string) int {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		malformedFields.Inc()
		return 0
	}
	return v
}

// QueryResponse formats the reply to "p": one line per axis with the
// truncated integer degree reading, then the status line.
func QueryResponse(azDeg, elDeg int) string {
	return fmt.Sprintf("%d\n%d\nRPRT 0\n", azDeg, elDeg)
}

// SetResponse is the reply to "P": an empty data line then the status line.
const SetResponse = "\nRPRT 0\n"
