// Package id provides ULID-based identifiers for transient runtime objects.
//
// Screen snapshots, process runs and debug requests are tagged with prefixed
// ULIDs (snap_, run_, req_) so log lines from one pause/resume cycle or one
// process lifetime can be correlated. ULIDs sort by creation time and the
// generator is monotonic, so ids minted in the same millisecond still sort
// in creation order.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SnapshotID identifies one captured screen snapshot
type SnapshotID string

// RunID identifies one lifetime of a supervised process
type RunID string

// RequestID identifies one debug HTTP request
type RequestID string

const (
	SnapshotPrefix = "snap"
	RunPrefix      = "run"
	RequestPrefix  = "req"

	separator = "_"
)

// Generator mints monotonic ULIDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy // Protected by mu
	now     func() time.Time
}

var shared = sync.OnceValue(func() *Generator { return NewGenerator(rand.Reader) })

// NewGenerator creates a generator drawing randomness from entropy
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Next returns a new ULID
func (g *Generator) Next() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// Prefixed returns a new ULID string of the form prefix_ULID
func (g *Generator) Prefixed(prefix string) string {
	return prefix + separator + g.Next().String()
}

// NewSnapshotID generates a new snapshot ID
func NewSnapshotID() SnapshotID {
	return SnapshotID(shared().Prefixed(SnapshotPrefix))
}

// NewRunID generates a new process run ID
func NewRunID() RunID {
	return RunID(shared().Prefixed(RunPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(shared().Prefixed(RequestPrefix))
}

func (id SnapshotID) String() string { return string(id) }
func (id RunID) String() string      { return string(id) }
func (id RequestID) String() string  { return string(id) }

// Parse parses an ID, with or without a prefix
func Parse(id string) (ulid.ULID, error) {
	if _, rest, ok := strings.Cut(id, separator); ok {
		id = rest
	}
	return ulid.ParseStrict(id)
}

// IsValid reports whether id parses
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from an ID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
