package core

import (
	"encoding/binary"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ItemID derives the identity of a knowledge item from its dedup key
// (source id, source-local reference). Two upserts of the same record from
// the same source always hit the same row.
func ItemID(sourceID ID, ref string) ID {
	return IDFromContent(strconv.FormatUint(uint64(sourceID), 10) + "|" + ref)
}

// TagID derives the identity of a tag from its unique name.
func TagID(name string) ID {
	return IDFromContent("tag|" + name)
}

// SourceKind identifies the connector family of a knowledge source.
type SourceKind int

const (
	// SourceKindGitHub pulls commits and pull request activity.
	SourceKindGitHub SourceKind = iota + 1
	// SourceKindTracker pulls issues and comments from an issue tracker.
	SourceKindTracker
	// SourceKindChat pulls messages from a chat workspace.
	SourceKindChat
	// SourceKindFeed pulls records from a local JSONL drop file.
	SourceKindFeed
)

// String returns the wire name of the kind.
func (k SourceKind) String() string {
	switch k {
	case SourceKindGitHub:
		return "github"
	case SourceKindTracker:
		return "tracker"
	case SourceKindChat:
		return "chat"
	case SourceKindFeed:
		return "feed"
	default:
		return "unknown"
	}
}

// ParseSourceKind maps a wire name back to a SourceKind.
func ParseSourceKind(s string) (SourceKind, error) {
	switch strings.ToLower(s) {
	case "github":
		return SourceKindGitHub, nil
	case "tracker":
		return SourceKindTracker, nil
	case "chat":
		return SourceKindChat, nil
	case "feed":
		return SourceKindFeed, nil
	default:
		return 0, ErrInvalidSourceKind
	}
}

// ItemKind classifies a knowledge item by the shape of its origin record.
type ItemKind int

const (
	ItemKindCommit ItemKind = iota + 1
	ItemKindIssue
	ItemKindComment
	ItemKindDocument
)

// String returns the wire name of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemKindCommit:
		return "commit"
	case ItemKindIssue:
		return "issue"
	case ItemKindComment:
		return "comment"
	case ItemKindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// ItemStatus is the lifecycle state of a knowledge item.
type ItemStatus int

const (
	ItemStatusActive ItemStatus = iota + 1
	ItemStatusArchived
)

// JobStatus is the lifecycle state of a sync job.
// Transitions are monotonic: pending -> running -> completed | failed.
type JobStatus int

const (
	JobStatusPending JobStatus = iota + 1
	JobStatusRunning
	JobStatusCompleted
	JobStatusFailed
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// String returns the wire name of the status.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusRunning:
		return "running"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// KnowledgeSource is a configured external source of knowledge items.
type KnowledgeSource struct {
	Id         ID
	Name       string
	Kind       SourceKind
	Config     SourceConfig
	Owner      string
	Interval   time.Duration // Minimum time between scheduled syncs; must be > 0
	LastSync   time.Time     // Advanced only when a sync job completes
	Active     bool
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Due reports whether the source should be synced at the given instant.
func (s *KnowledgeSource) Due(now time.Time) bool {
	return s.Active && now.Sub(s.LastSync) >= s.Interval
}

// Overdue returns how far past its scheduled sync time the source is.
// Negative values mean the source is not yet due.
func (s *KnowledgeSource) Overdue(now time.Time) time.Duration {
	return now.Sub(s.LastSync.Add(s.Interval))
}

// Zone identifies a weighted field of a knowledge item contributing tokens to
// its search index, strongest to weakest.
type Zone int

const (
	ZoneTitle Zone = iota + 1
	ZoneSummary
	ZoneContent
	ZoneAuthor
)

// String returns the wire name of the zone.
func (z Zone) String() string {
	switch z {
	case ZoneTitle:
		return "title"
	case ZoneSummary:
		return "summary"
	case ZoneContent:
		return "content"
	case ZoneAuthor:
		return "author"
	default:
		return "unknown"
	}
}

// Weight returns the relative importance of a match in this zone.
func (z Zone) Weight() float64 {
	switch z {
	case ZoneTitle:
		return 1.0
	case ZoneSummary:
		return 0.4
	case ZoneContent:
		return 0.2
	case ZoneAuthor:
		return 0.1
	default:
		return 0
	}
}

// Posting records where a token occurs within one zone of one item.
type Posting struct {
	Token     string
	Zone      Zone
	Positions []int // Token offsets within the zone, ascending
}

// TokenScores folds an item's postings into per-token weighted scores.
// Occurrences of the same token in multiple zones accumulate.
func TokenScores(postings []Posting) map[string]float64 {
	if len(postings) == 0 {
		return nil
	}
	scores := make(map[string]float64, len(postings))
	for _, p := range postings {
		scores[p.Token] += p.Zone.Weight() * float64(len(p.Positions))
	}
	return scores
}

// KnowledgeItem is a canonical knowledge record normalized from a connector
// record. Items are unique by (SourceId, Ref); Id is derived from that pair.
type KnowledgeItem struct {
	Id         ID
	SourceId   ID
	Ref        string // Source-local reference, e.g. commit hash or ticket id
	Title      string
	Summary    string // Derived from Content when the connector supplies none
	Content    string
	Author     string
	Kind       ItemKind
	URL        string
	Status     ItemStatus
	Metadata   map[string]string
	Index      []Posting // Derived search index; recomputed on every content change
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ContentEquals reports whether two items carry the same indexed content.
// Identical content means an upsert is a no-op skip.
func (i *KnowledgeItem) ContentEquals(other *KnowledgeItem) bool {
	if other == nil {
		return false
	}
	return i.Title == other.Title &&
		i.Summary == other.Summary &&
		i.Content == other.Content &&
		i.Author == other.Author &&
		i.Kind == other.Kind &&
		i.URL == other.URL &&
		maps.Equal(i.Metadata, other.Metadata)
}

const summaryLimit = 200

// DeriveSummary produces a short summary from content: the first sentence,
// truncated at a word boundary near summaryLimit runes.
func DeriveSummary(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if i := strings.IndexAny(content, ".!?\n"); i >= 0 {
		content = strings.TrimSpace(content[:i+1])
		content = strings.TrimRight(content, "\n")
	}
	runes := []rune(content)
	if len(runes) <= summaryLimit {
		return content
	}
	cut := string(runes[:summaryLimit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut
}

// Tag is a named label attachable to knowledge items.
type Tag struct {
	Id          ID // Content-derived from Name
	Name        string
	Color       string
	Description string
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// TagCandidate is a proposed (tag name, confidence) pair for an item.
type TagCandidate struct {
	Name       string
	Confidence float64
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// TagAssociation links an item to a tag with a confidence score.
// 1.0 marks a human assignment; inferred assignments stay below 1.0.
type TagAssociation struct {
	ItemId     ID
	TagId      ID
	Confidence float64
	AssignedAt time.Time
}

// SyncJob records one execution of a source sync.
type SyncJob struct {
	Id        ID
	SourceId  ID
	Status    JobStatus
	StartedAt time.Time
	EndedAt   time.Time
	Processed int // Records seen, including unchanged skips
	Created   int
	Updated   int
	Error     string
}

// Checkpoint marks how much of a source has been ingested.
// The cursor is opaque to everything but the source's connector and is
// advanced only when a sync job completes.
type Checkpoint struct {
	SourceId  ID
	Cursor    string
	UpdatedAt time.Time
}

// SearchResult pairs an item with its accumulated weighted score.
type SearchResult struct {
	Item  *KnowledgeItem
	Score float64
}
