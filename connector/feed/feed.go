// Package feed implements a connector over a local JSONL drop file. Each
// line is one record; the checkpoint is the count of lines already ingested,
// so appends to the file are picked up by the next sync.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lodeworks/lodestone/connector"
	"github.com/lodeworks/lodestone/core"
)

// Connector reads RawRecords from a JSONL file.
type Connector struct{}

var _ connector.Connector = (*Connector)(nil)

// New creates a feed connector.
func New() *Connector {
	return &Connector{}
}

// Kind reports the source kind this connector serves.
func (c *Connector) Kind() core.SourceKind {
	return core.SourceKindFeed
}

// ValidateConfig checks that the configured path exists.
// FeedConfig.Validate already stats the path; nothing further to check.
func (c *Connector) ValidateConfig(cfg core.SourceConfig) error {
	if _, ok := cfg.(*core.FeedConfig); !ok {
		return fmt.Errorf("%w: feed connector got %s config", core.ErrConfigKindMismatch, cfg.Kind())
	}
	return nil
}

// line is the JSON shape of one feed record.
type line struct {
	Ref      string             `json:"ref"`
	Title    string             `json:"title"`
	Content  string             `json:"content"`
	Author   string             `json:"author"`
	Kind     string             `json:"kind"`
	URL      string             `json:"url"`
	Metadata map[string]string  `json:"metadata,omitempty"`
	Tags     []candidate        `json:"tags,omitempty"`
}

type candidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Pull opens the file and skips the lines covered by the checkpoint.
func (c *Connector) Pull(ctx context.Context, cfg core.SourceConfig, checkpoint string) (connector.RecordStream, error) {
	feedCfg, ok := cfg.(*core.FeedConfig)
	if !ok {
		return nil, fmt.Errorf("%w: feed connector got %s config", core.ErrConfigKindMismatch, cfg.Kind())
	}

	offset := 0
	if checkpoint != "" {
		var err error
		offset, err = strconv.Atoi(checkpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: bad feed checkpoint %q", connector.ErrTransient, checkpoint)
		}
	}

	f, err := os.Open(feedCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", connector.ErrTransient, err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for i := 0; i < offset; i++ {
		if !scanner.Scan() {
			break
		}
	}

	return &stream{file: f, scanner: scanner, read: offset}, nil
}

type stream struct {
	file    *os.File
	scanner *bufio.Scanner
	read    int
}

var _ connector.RecordStream = (*stream)(nil)

// Next yields the next non-empty line as a record, or io.EOF.
func (s *stream) Next(ctx context.Context) (*connector.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for s.scanner.Scan() {
		s.read++
		raw := s.scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("%w: feed line %d: %v", connector.ErrTransient, s.read, err)
		}

		kind, err := parseItemKind(l.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: feed line %d: %v", connector.ErrTransient, s.read, err)
		}

		rec := &connector.RawRecord{
			Ref:      l.Ref,
			Title:    l.Title,
			Content:  l.Content,
			Author:   l.Author,
			Kind:     kind,
			URL:      l.URL,
			Metadata: l.Metadata,
		}
		for _, t := range l.Tags {
			rec.Tags = append(rec.Tags, core.TagCandidate{Name: t.Name, Confidence: t.Confidence})
		}
		return rec, nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", connector.ErrTransient, err)
	}
	return nil, io.EOF
}

// Checkpoint returns the count of lines consumed so far.
func (s *stream) Checkpoint() string {
	return strconv.Itoa(s.read)
}

// Close closes the underlying file.
func (s *stream) Close() error {
	return s.file.Close()
}

func parseItemKind(s string) (core.ItemKind, error) {
	switch s {
	case "commit":
		return core.ItemKindCommit, nil
	case "issue":
		return core.ItemKindIssue, nil
	case "comment":
		return core.ItemKindComment, nil
	case "document", "":
		return core.ItemKindDocument, nil
	default:
		return 0, fmt.Errorf("unknown item kind %q", s)
	}
}
