package process

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/infrastructure/monitoring"
)

const (
	// maxCarry bounds the partial line kept between reads
	maxCarry = 64 * 1024
	// maxPrefixName bounds the application name inside the line prefix
	maxPrefixName = 64
)

// Relay forwards child output to the system log, one entry per line,
// prefixed with "[<name> <pid>]". Stdout lines are logged at info, stderr
// lines at error. Relay is not safe for concurrent use; feed it from the
// event loop.
type Relay struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics
	name    string
	carry   map[Stream][]byte
}

// NewRelay creates a relay for the application called name
func NewRelay(logger *zap.Logger, name string, metrics *monitoring.Metrics) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		logger:  logger,
		metrics: metrics,
		name:    name,
		carry:   make(map[Stream][]byte),
	}
}

// Write relays every complete line in data. A trailing partial line is held
// until more data or Flush arrives.
func (r *Relay) Write(pid int, stream Stream, data []byte) {
	buf := append(r.carry[stream], data...)

	cut := bytes.LastIndexAny(buf, "\r\n")
	if cut < 0 {
		if len(buf) > maxCarry {
			r.emit(pid, stream, buf)
			buf = nil
		}
		r.carry[stream] = buf
		return
	}

	for _, line := range bytes.FieldsFunc(buf[:cut+1], isLineBreak) {
		r.emit(pid, stream, line)
	}

	rest := buf[cut+1:]
	if len(rest) == 0 {
		delete(r.carry, stream)
		return
	}
	r.carry[stream] = append([]byte(nil), rest...)
}

// Flush relays any partial line held for stream
func (r *Relay) Flush(pid int, stream Stream) {
	if rest := r.carry[stream]; len(rest) > 0 {
		r.emit(pid, stream, rest)
	}
	delete(r.carry, stream)
}

func (r *Relay) emit(pid int, stream Stream, raw []byte) {
	line := sanitizeLine(raw)
	if line == "" {
		return
	}

	msg := r.prefix(pid) + " " + line
	fields := []zap.Field{zap.Int("pid", pid), zap.Stringer("stream", stream)}
	if stream == Stderr {
		r.logger.Error(msg, fields...)
	} else {
		r.logger.Info(msg, fields...)
	}
	r.metrics.RecordLogLine(r.name, stream.String())
}

func (r *Relay) prefix(pid int) string {
	name := sanitizeLine([]byte(r.name))
	if len(name) > maxPrefixName {
		name = truncateUTF8(name, maxPrefixName)
	}
	return fmt.Sprintf("[%s %d]", name, pid)
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

// sanitizeLine replaces invalid UTF-8 and drops NUL bytes
func sanitizeLine(raw []byte) string {
	s := string(raw)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	return s
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
