package display

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/id"
	"github.com/klauspost/compress/zlib"
)

// Snapshot is a compressed copy of the panel taken when an application paused
type Snapshot struct {
	ID         id.SnapshotID
	Data       []byte
	Size       int
	CapturedAt time.Time
}

func newSnapshot(pixels []byte, level int) (*Snapshot, error) {
	var buf bytes.Buffer
	buf.Grow(len(pixels) / 4)

	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib level %d: %w", level, err)
	}
	if _, err := zw.Write(pixels); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	return &Snapshot{
		ID:         id.NewSnapshotID(),
		Data:       buf.Bytes(),
		Size:       len(pixels),
		CapturedAt: time.Now(),
	}, nil
}

// Pixels decompresses the snapshot. The result must be exactly Size bytes.
func (s *Snapshot) Pixels() ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(s.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()

	out := bytes.NewBuffer(make([]byte, 0, s.Size))
	// One byte of slack so an oversized stream shows up as a length mismatch.
	if _, err := io.Copy(out, io.LimitReader(zr, int64(s.Size)+1)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if out.Len() != s.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCorrupt, out.Len(), s.Size)
	}
	return out.Bytes(), nil
}
