package sensor

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// ReplayPort is a Porter that plays back recorded stream bytes, used by
// dev mode and tests. With a non-zero interval the fixture is emitted one
// line at a time to approximate a live rig; with interval zero the whole
// buffer is readable immediately.
type ReplayPort struct {
	mu     sync.Mutex
	reader io.Reader
	closed bool
}

// NewReplayPort returns a port that replays data as a single burst.
func NewReplayPort(data []byte) *ReplayPort {
	return &ReplayPort{reader: bytes.NewReader(data)}
}

// NewPacedReplayPort returns a port that replays data line by line with the
// given interval between lines.
func NewPacedReplayPort(data []byte, interval time.Duration) *ReplayPort {
	r, w := io.Pipe()
	go func() {
		defer w.Close()
		for _, line := range bytes.SplitAfter(data, []byte("\n")) {
			if len(line) == 0 {
				continue
			}
			if _, err := w.Write(line); err != nil {
				return
			}
			time.Sleep(interval)
		}
	}()
	return &ReplayPort{reader: r}
}

func (p *ReplayPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, io.EOF
	}
	return p.reader.Read(buf)
}

func (p *ReplayPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if c, ok := p.reader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
