package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for every persisted type. Written against mus-go directly;
// the wire layout is field-by-field in declaration order, with timestamps as
// Unix microseconds and float scores as raw IEEE 754 bits.
var (
	IDMUS             = idSer{}
	SourceMUS         = sourceSer{}
	ItemMUS           = itemSer{}
	PostingMUS        = postingSer{}
	TagMUS            = tagSer{}
	TagAssociationMUS = tagAssociationSer{}
	SyncJobMUS        = syncJobSer{}
	CheckpointMUS     = checkpointSer{}
	TokenScoreMUS     = tokenScoreSer{}
)

// --- primitives ---

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int { return varint.Uint64.Marshal(uint64(id), bs) }

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int { return varint.Uint64.Size(uint64(id)) }

type timeSer struct{}

var timeMUS = timeSer{}

func (timeSer) Marshal(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int { return varint.Int64.Size(t.UnixMicro()) }

type floatSer struct{}

var floatMUS = floatSer{}

func (floatSer) Marshal(f float64, bs []byte) int {
	return varint.Uint64.Marshal(math.Float64bits(f), bs)
}

func (floatSer) Unmarshal(bs []byte) (float64, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return math.Float64frombits(v), n, err
}

func (floatSer) Size(f float64) int { return varint.Uint64.Size(math.Float64bits(f)) }

type strMapSer struct{}

var strMapMUS = strMapSer{}

func (strMapSer) Marshal(m map[string]string, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(len(m), bs)
	for k, v := range m {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func (strMapSer) Unmarshal(bs []byte) (m map[string]string, n int, err error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	m = make(map[string]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		var k, v string
		k, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		m[k] = v
	}
	return m, n, nil
}

func (strMapSer) Size(m map[string]string) (size int) {
	size = varint.PositiveInt.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

// --- source configuration (tagged union, kind first) ---

type configSer struct{}

var configMUS = configSer{}

func (configSer) Marshal(c SourceConfig, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(int(c.Kind()), bs)
	switch cfg := c.(type) {
	case *GitHubConfig:
		n += ord.String.Marshal(cfg.Owner, bs[n:])
		n += ord.String.Marshal(cfg.Repo, bs[n:])
		n += ord.String.Marshal(cfg.Token, bs[n:])
	case *TrackerConfig:
		n += ord.String.Marshal(cfg.BaseURL, bs[n:])
		n += ord.String.Marshal(cfg.Project, bs[n:])
		n += ord.String.Marshal(cfg.Token, bs[n:])
	case *ChatConfig:
		n += ord.String.Marshal(cfg.Workspace, bs[n:])
		n += ord.String.Marshal(cfg.Channel, bs[n:])
		n += ord.String.Marshal(cfg.Token, bs[n:])
	case *FeedConfig:
		n += ord.String.Marshal(cfg.Path, bs[n:])
	}
	return n
}

func (configSer) Unmarshal(bs []byte) (c SourceConfig, n int, err error) {
	kind, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	c, err = NewSourceConfig(SourceKind(kind))
	if err != nil {
		return nil, n, err
	}
	var n1 int
	read := func(dst *string) {
		if err != nil {
			return
		}
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
	}
	switch cfg := c.(type) {
	case *GitHubConfig:
		read(&cfg.Owner)
		read(&cfg.Repo)
		read(&cfg.Token)
	case *TrackerConfig:
		read(&cfg.BaseURL)
		read(&cfg.Project)
		read(&cfg.Token)
	case *ChatConfig:
		read(&cfg.Workspace)
		read(&cfg.Channel)
		read(&cfg.Token)
	case *FeedConfig:
		read(&cfg.Path)
	}
	return c, n, err
}

func (configSer) Size(c SourceConfig) (size int) {
	size = varint.PositiveInt.Size(int(c.Kind()))
	switch cfg := c.(type) {
	case *GitHubConfig:
		size += ord.String.Size(cfg.Owner) + ord.String.Size(cfg.Repo) + ord.String.Size(cfg.Token)
	case *TrackerConfig:
		size += ord.String.Size(cfg.BaseURL) + ord.String.Size(cfg.Project) + ord.String.Size(cfg.Token)
	case *ChatConfig:
		size += ord.String.Size(cfg.Workspace) + ord.String.Size(cfg.Channel) + ord.String.Size(cfg.Token)
	case *FeedConfig:
		size += ord.String.Size(cfg.Path)
	}
	return size
}

// --- domain records ---

type sourceSer struct{}

func (sourceSer) Marshal(s KnowledgeSource, bs []byte) (n int) {
	n = IDMUS.Marshal(s.Id, bs)
	n += ord.String.Marshal(s.Name, bs[n:])
	n += configMUS.Marshal(s.Config, bs[n:])
	n += ord.String.Marshal(s.Owner, bs[n:])
	n += varint.Int64.Marshal(int64(s.Interval), bs[n:])
	n += timeMUS.Marshal(s.LastSync, bs[n:])
	n += ord.Bool.Marshal(s.Active, bs[n:])
	n += timeMUS.Marshal(s.InsertedAt, bs[n:])
	n += timeMUS.Marshal(s.UpdatedAt, bs[n:])
	return n
}

func (sourceSer) Unmarshal(bs []byte) (s KnowledgeSource, n int, err error) {
	var n1 int
	s.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	s.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Config, n1, err = configMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Kind = s.Config.Kind()
	s.Owner, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var iv int64
	iv, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Interval = time.Duration(iv)
	s.LastSync, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Active, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (sourceSer) Size(s KnowledgeSource) int {
	return IDMUS.Size(s.Id) +
		ord.String.Size(s.Name) +
		configMUS.Size(s.Config) +
		ord.String.Size(s.Owner) +
		varint.Int64.Size(int64(s.Interval)) +
		timeMUS.Size(s.LastSync) +
		ord.Bool.Size(s.Active) +
		timeMUS.Size(s.InsertedAt) +
		timeMUS.Size(s.UpdatedAt)
}

type postingSer struct{}

func (postingSer) Marshal(p Posting, bs []byte) (n int) {
	n = ord.String.Marshal(p.Token, bs)
	n += varint.PositiveInt.Marshal(int(p.Zone), bs[n:])
	n += varint.PositiveInt.Marshal(len(p.Positions), bs[n:])
	for _, pos := range p.Positions {
		n += varint.PositiveInt.Marshal(pos, bs[n:])
	}
	return n
}

func (postingSer) Unmarshal(bs []byte) (p Posting, n int, err error) {
	var n1 int
	p.Token, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var zone int
	zone, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Zone = Zone(zone)
	var length int
	length, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil || length == 0 {
		return
	}
	p.Positions = make([]int, length)
	for i := 0; i < length; i++ {
		p.Positions[i], n1, err = varint.PositiveInt.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (postingSer) Size(p Posting) (size int) {
	size = ord.String.Size(p.Token) +
		varint.PositiveInt.Size(int(p.Zone)) +
		varint.PositiveInt.Size(len(p.Positions))
	for _, pos := range p.Positions {
		size += varint.PositiveInt.Size(pos)
	}
	return size
}

type itemSer struct{}

func (itemSer) Marshal(i KnowledgeItem, bs []byte) (n int) {
	n = IDMUS.Marshal(i.Id, bs)
	n += IDMUS.Marshal(i.SourceId, bs[n:])
	n += ord.String.Marshal(i.Ref, bs[n:])
	n += ord.String.Marshal(i.Title, bs[n:])
	n += ord.String.Marshal(i.Summary, bs[n:])
	n += ord.String.Marshal(i.Content, bs[n:])
	n += ord.String.Marshal(i.Author, bs[n:])
	n += varint.PositiveInt.Marshal(int(i.Kind), bs[n:])
	n += ord.String.Marshal(i.URL, bs[n:])
	n += varint.PositiveInt.Marshal(int(i.Status), bs[n:])
	n += strMapMUS.Marshal(i.Metadata, bs[n:])
	n += varint.PositiveInt.Marshal(len(i.Index), bs[n:])
	for _, p := range i.Index {
		n += PostingMUS.Marshal(p, bs[n:])
	}
	n += timeMUS.Marshal(i.InsertedAt, bs[n:])
	n += timeMUS.Marshal(i.UpdatedAt, bs[n:])
	return n
}

func (itemSer) Unmarshal(bs []byte) (i KnowledgeItem, n int, err error) {
	var n1 int
	step := func(f func() error) {
		if err != nil {
			return
		}
		err = f()
		n += n1
	}
	i.Id, n, err = IDMUS.Unmarshal(bs)
	step(func() (e error) { i.SourceId, n1, e = IDMUS.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.Ref, n1, e = ord.String.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.Title, n1, e = ord.String.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.Summary, n1, e = ord.String.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.Content, n1, e = ord.String.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.Author, n1, e = ord.String.Unmarshal(bs[n:]); return })
	var kind, status, count int
	step(func() (e error) { kind, n1, e = varint.PositiveInt.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.URL, n1, e = ord.String.Unmarshal(bs[n:]); return })
	step(func() (e error) { status, n1, e = varint.PositiveInt.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.Metadata, n1, e = strMapMUS.Unmarshal(bs[n:]); return })
	step(func() (e error) { count, n1, e = varint.PositiveInt.Unmarshal(bs[n:]); return })
	if err != nil {
		return
	}
	i.Kind = ItemKind(kind)
	i.Status = ItemStatus(status)
	if count > 0 {
		i.Index = make([]Posting, count)
		for idx := 0; idx < count; idx++ {
			i.Index[idx], n1, err = PostingMUS.Unmarshal(bs[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	step(func() (e error) { i.InsertedAt, n1, e = timeMUS.Unmarshal(bs[n:]); return })
	step(func() (e error) { i.UpdatedAt, n1, e = timeMUS.Unmarshal(bs[n:]); return })
	return
}

func (itemSer) Size(i KnowledgeItem) (size int) {
	size = IDMUS.Size(i.Id) +
		IDMUS.Size(i.SourceId) +
		ord.String.Size(i.Ref) +
		ord.String.Size(i.Title) +
		ord.String.Size(i.Summary) +
		ord.String.Size(i.Content) +
		ord.String.Size(i.Author) +
		varint.PositiveInt.Size(int(i.Kind)) +
		ord.String.Size(i.URL) +
		varint.PositiveInt.Size(int(i.Status)) +
		strMapMUS.Size(i.Metadata) +
		varint.PositiveInt.Size(len(i.Index)) +
		timeMUS.Size(i.InsertedAt) +
		timeMUS.Size(i.UpdatedAt)
	for _, p := range i.Index {
		size += PostingMUS.Size(p)
	}
	return size
}

type tagSer struct{}

func (tagSer) Marshal(t Tag, bs []byte) (n int) {
	n = IDMUS.Marshal(t.Id, bs)
	n += ord.String.Marshal(t.Name, bs[n:])
	n += ord.String.Marshal(t.Color, bs[n:])
	n += ord.String.Marshal(t.Description, bs[n:])
	n += timeMUS.Marshal(t.InsertedAt, bs[n:])
	n += timeMUS.Marshal(t.UpdatedAt, bs[n:])
	return n
}

func (tagSer) Unmarshal(bs []byte) (t Tag, n int, err error) {
	var n1 int
	t.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	t.Name, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Color, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	t.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (tagSer) Size(t Tag) int {
	return IDMUS.Size(t.Id) +
		ord.String.Size(t.Name) +
		ord.String.Size(t.Color) +
		ord.String.Size(t.Description) +
		timeMUS.Size(t.InsertedAt) +
		timeMUS.Size(t.UpdatedAt)
}

type tagAssociationSer struct{}

func (tagAssociationSer) Marshal(a TagAssociation, bs []byte) (n int) {
	n = IDMUS.Marshal(a.ItemId, bs)
	n += IDMUS.Marshal(a.TagId, bs[n:])
	n += floatMUS.Marshal(a.Confidence, bs[n:])
	n += timeMUS.Marshal(a.AssignedAt, bs[n:])
	return n
}

func (tagAssociationSer) Unmarshal(bs []byte) (a TagAssociation, n int, err error) {
	var n1 int
	a.ItemId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	a.TagId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.Confidence, n1, err = floatMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.AssignedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (tagAssociationSer) Size(a TagAssociation) int {
	return IDMUS.Size(a.ItemId) +
		IDMUS.Size(a.TagId) +
		floatMUS.Size(a.Confidence) +
		timeMUS.Size(a.AssignedAt)
}

type syncJobSer struct{}

func (syncJobSer) Marshal(j SyncJob, bs []byte) (n int) {
	n = IDMUS.Marshal(j.Id, bs)
	n += IDMUS.Marshal(j.SourceId, bs[n:])
	n += varint.PositiveInt.Marshal(int(j.Status), bs[n:])
	n += timeMUS.Marshal(j.StartedAt, bs[n:])
	n += timeMUS.Marshal(j.EndedAt, bs[n:])
	n += varint.PositiveInt.Marshal(j.Processed, bs[n:])
	n += varint.PositiveInt.Marshal(j.Created, bs[n:])
	n += varint.PositiveInt.Marshal(j.Updated, bs[n:])
	n += ord.String.Marshal(j.Error, bs[n:])
	return n
}

func (syncJobSer) Unmarshal(bs []byte) (j SyncJob, n int, err error) {
	var n1 int
	j.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	j.SourceId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var status int
	status, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Status = JobStatus(status)
	j.StartedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.EndedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Processed, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Created, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Updated, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	j.Error, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (syncJobSer) Size(j SyncJob) int {
	return IDMUS.Size(j.Id) +
		IDMUS.Size(j.SourceId) +
		varint.PositiveInt.Size(int(j.Status)) +
		timeMUS.Size(j.StartedAt) +
		timeMUS.Size(j.EndedAt) +
		varint.PositiveInt.Size(j.Processed) +
		varint.PositiveInt.Size(j.Created) +
		varint.PositiveInt.Size(j.Updated) +
		ord.String.Size(j.Error)
}

type checkpointSer struct{}

func (checkpointSer) Marshal(c Checkpoint, bs []byte) (n int) {
	n = IDMUS.Marshal(c.SourceId, bs)
	n += ord.String.Marshal(c.Cursor, bs[n:])
	n += timeMUS.Marshal(c.UpdatedAt, bs[n:])
	return n
}

func (checkpointSer) Unmarshal(bs []byte) (c Checkpoint, n int, err error) {
	var n1 int
	c.SourceId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Cursor, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.UpdatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (checkpointSer) Size(c Checkpoint) int {
	return IDMUS.Size(c.SourceId) + ord.String.Size(c.Cursor) + timeMUS.Size(c.UpdatedAt)
}

// TokenScore is one entry of the global token index: the accumulated weighted
// score of a token within a single item.
type TokenScore struct {
	ItemId ID
	Score  float64
}

type tokenScoreSer struct{}

func (tokenScoreSer) Marshal(t TokenScore, bs []byte) (n int) {
	n = IDMUS.Marshal(t.ItemId, bs)
	n += floatMUS.Marshal(t.Score, bs[n:])
	return n
}

func (tokenScoreSer) Unmarshal(bs []byte) (t TokenScore, n int, err error) {
	var n1 int
	t.ItemId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	t.Score, n1, err = floatMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (tokenScoreSer) Size(t TokenScore) int {
	return IDMUS.Size(t.ItemId) + floatMUS.Size(t.Score)
}
