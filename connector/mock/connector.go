package mock

import (
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/lodeworks/lodestone/connector"
	"github.com/lodeworks/lodestone/core"
)

// Connector is a scripted test double for connector.Connector.
type Connector struct {
	// SourceKind is the kind the mock claims to serve. Defaults to
	// core.SourceKindGitHub so the usual configs validate against it.
	SourceKind core.SourceKind

	// Records is the script yielded by every pull, in order.
	Records []*connector.RawRecord

	// FailAfter, when >= 0, makes the stream return FailWith after yielding
	// FailAfter records (counted from the checkpoint). -1 disables failure.
	FailAfter int
	FailWith  error

	// PullErr, when set, is returned by Pull itself.
	PullErr error

	mu        sync.Mutex
	pullCount int
}

// New creates a mock connector that yields the given records and never fails.
func New(records ...*connector.RawRecord) *Connector {
	return &Connector{
		SourceKind: core.SourceKindGitHub,
		Records:    records,
		FailAfter:  -1,
	}
}

// Kind reports the scripted source kind.
func (c *Connector) Kind() core.SourceKind {
	if c.SourceKind == 0 {
		return core.SourceKindGitHub
	}
	return c.SourceKind
}

// ValidateConfig accepts everything; registration-shape checks are the
// registry's concern, not the script's.
func (c *Connector) ValidateConfig(cfg core.SourceConfig) error {
	return nil
}

// PullCount reports how many times Pull was called.
func (c *Connector) PullCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pullCount
}

// Pull opens a stream over the script, starting at the checkpoint.
func (c *Connector) Pull(ctx context.Context, cfg core.SourceConfig, checkpoint string) (connector.RecordStream, error) {
	c.mu.Lock()
	c.pullCount++
	c.mu.Unlock()

	if c.PullErr != nil {
		return nil, c.PullErr
	}

	offset := 0
	if checkpoint != "" {
		offset, _ = strconv.Atoi(checkpoint)
	}
	return &stream{conn: c, pos: offset, yielded: 0}, nil
}

type stream struct {
	conn    *Connector
	pos     int // Index into the script, persisted via the checkpoint
	yielded int // Records yielded by this stream only
}

var _ connector.RecordStream = (*stream)(nil)

func (s *stream) Next(ctx context.Context) (*connector.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.conn.FailAfter >= 0 && s.yielded >= s.conn.FailAfter {
		return nil, s.conn.FailWith
	}
	if s.pos >= len(s.conn.Records) {
		return nil, io.EOF
	}
	rec := s.conn.Records[s.pos]
	s.pos++
	s.yielded++
	return rec, nil
}

func (s *stream) Checkpoint() string {
	return strconv.Itoa(s.pos)
}

func (s *stream) Close() error { return nil }
