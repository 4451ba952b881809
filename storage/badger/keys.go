package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/lodeworks/lodestone/core"
)

// Key prefixes for different data types
const (
	sourceRecordPrefix = "srcrec"
	sourceIDSeq        = "srcseq"
	itemRecordPrefix   = "itmrec"
	itemSourcePrefix   = "itmsrc"
	itemTokenPrefix    = "itmtok"
	syncJobPrefix      = "synjob"
	syncJobIDSeq       = "synjobseq"
	jobSlotPrefix      = "jobslot"
	tagRecordPrefix    = "tagrec"
	tagNamePrefix      = "tagname"
	itemTagPrefix      = "itmtag"
	tagItemPrefix      = "tagitm"
	checkpointPrefix   = "chkpt"
)

// makeSourceKey generates a key for a source record by ID.
func makeSourceKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", sourceRecordPrefix, id))
}

// makeItemKey generates a key for an item record by ID.
func makeItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemRecordPrefix, id))
}

// makeItemSourceKey generates a composite key for the per-source item index.
// Format: prefix:sourceID:itemID
func makeItemSourceKey(sourceID, itemID core.ID) []byte {
	return makeCompositeKey(itemSourcePrefix, sourceID, itemID)
}

// makePartialItemSourceKey generates a partial key for per-source scans.
func makePartialItemSourceKey(sourceID core.ID) []byte {
	return makePartialCompositeKey(itemSourcePrefix, sourceID)
}

// makeItemTokenKey generates a composite key for the global token index.
// Format: prefix:len(token):token:itemID
func makeItemTokenKey(token string, itemID core.ID) []byte {
	buf := makePartialItemTokenKey(token)
	var id [8]byte
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(id[:], uint64(itemID))
	return append(buf, id[:]...)
}

// makePartialItemTokenKey generates a partial key for token lookups. The
// token is length-prefixed: tokens may contain any byte (e.g. "12:30"), so a
// raw delimiter would let one token's entries sit under another token's scan
// prefix.
func makePartialItemTokenKey(token string) []byte {
	buf := make([]byte, 0, len(itemTokenPrefix)+1+binary.MaxVarintLen64+len(token))
	buf = append(buf, itemTokenPrefix...)
	buf = append(buf, ':')
	buf = binary.AppendUvarint(buf, uint64(len(token)))
	return append(buf, token...)
}

// makeSyncJobKey generates a composite key for a sync job row.
// Format: prefix:sourceID:jobID
func makeSyncJobKey(sourceID, jobID core.ID) []byte {
	return makeCompositeKey(syncJobPrefix, sourceID, jobID)
}

// makePartialSyncJobKey generates a partial key for per-source job scans.
func makePartialSyncJobKey(sourceID core.ID) []byte {
	return makePartialCompositeKey(syncJobPrefix, sourceID)
}

// makeJobSlotKey generates the per-source job slot key.
// The slot holds the active job's ID while a non-terminal job exists.
func makeJobSlotKey(sourceID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobSlotPrefix, sourceID))
}

// makeTagKey generates a key for a tag record by ID.
func makeTagKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", tagRecordPrefix, id))
}

// makeTagNameKey generates a key for tag lookup by unique name.
func makeTagNameKey(name string) []byte {
	return []byte(tagNamePrefix + ":" + name)
}

// makeItemTagKey generates a composite key for the item-to-tag index.
// Format: prefix:itemID:tagID
func makeItemTagKey(itemID, tagID core.ID) []byte {
	return makeCompositeKey(itemTagPrefix, itemID, tagID)
}

// makePartialItemTagKey generates a partial key for an item's associations.
func makePartialItemTagKey(itemID core.ID) []byte {
	return makePartialCompositeKey(itemTagPrefix, itemID)
}

// makeTagItemKey generates a composite key for the tag-to-item index.
// Format: prefix:tagID:itemID
func makeTagItemKey(tagID, itemID core.ID) []byte {
	return makeCompositeKey(tagItemPrefix, tagID, itemID)
}

// makePartialTagItemKey generates a partial key for a tag's items.
func makePartialTagItemKey(tagID core.ID) []byte {
	return makePartialCompositeKey(tagItemPrefix, tagID)
}

// makeCheckpointKey generates a key for a source's ingestion checkpoint.
func makeCheckpointKey(sourceID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", checkpointPrefix, sourceID))
}

// makeCompositeKey generates a two-ID composite key.
// Format: prefix:first:second
func makeCompositeKey(prefix string, first, second core.ID) []byte {
	p := prefix + ":"
	buf := make([]byte, len(p)+16)
	offset := copy(buf, []byte(p))
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(first))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(second))
	return buf
}

// makePartialCompositeKey generates a partial composite key for prefix scans.
// Format: prefix:first
func makePartialCompositeKey(prefix string, first core.ID) []byte {
	p := prefix + ":"
	buf := make([]byte, len(p)+8)
	offset := copy(buf, []byte(p))
	binary.BigEndian.PutUint64(buf[offset:], uint64(first))
	return buf
}

// trailingID extracts the last 8 bytes of a composite key as an ID.
func trailingID(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}
