// Copyright 2025 Lodeworks
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"github.com/lodeworks/lodestone/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalSource serializes a KnowledgeSource to bytes.
func MarshalSource(source *core.KnowledgeSource) []byte {
	buf := make([]byte, core.SourceMUS.Size(*source))
	core.SourceMUS.Marshal(*source, buf)
	return buf
}

// UnmarshalSource deserializes a KnowledgeSource from bytes.
func UnmarshalSource(data []byte) (*core.KnowledgeSource, error) {
	source, _, err := core.SourceMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &source, nil
}

// MarshalItem serializes a KnowledgeItem to bytes.
func MarshalItem(item *core.KnowledgeItem) []byte {
	buf := make([]byte, core.ItemMUS.Size(*item))
	core.ItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalItem deserializes a KnowledgeItem from bytes.
func UnmarshalItem(data []byte) (*core.KnowledgeItem, error) {
	item, _, err := core.ItemMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MarshalJob serializes a SyncJob to bytes.
func MarshalJob(job *core.SyncJob) []byte {
	buf := make([]byte, core.SyncJobMUS.Size(*job))
	core.SyncJobMUS.Marshal(*job, buf)
	return buf
}

// UnmarshalJob deserializes a SyncJob from bytes.
func UnmarshalJob(data []byte) (*core.SyncJob, error) {
	job, _, err := core.SyncJobMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarshalTag serializes a Tag to bytes.
func MarshalTag(tag *core.Tag) []byte {
	buf := make([]byte, core.TagMUS.Size(*tag))
	core.TagMUS.Marshal(*tag, buf)
	return buf
}

// UnmarshalTag deserializes a Tag from bytes.
func UnmarshalTag(data []byte) (*core.Tag, error) {
	tag, _, err := core.TagMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// MarshalAssociation serializes a TagAssociation to bytes.
func MarshalAssociation(assoc *core.TagAssociation) []byte {
	buf := make([]byte, core.TagAssociationMUS.Size(*assoc))
	core.TagAssociationMUS.Marshal(*assoc, buf)
	return buf
}

// UnmarshalAssociation deserializes a TagAssociation from bytes.
func UnmarshalAssociation(data []byte) (*core.TagAssociation, error) {
	assoc, _, err := core.TagAssociationMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &assoc, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	buf := make([]byte, core.CheckpointMUS.Size(*checkpoint))
	core.CheckpointMUS.Marshal(*checkpoint, buf)
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	checkpoint, _, err := core.CheckpointMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

// MarshalTokenScore serializes a TokenScore to bytes.
func MarshalTokenScore(score core.TokenScore) []byte {
	buf := make([]byte, core.TokenScoreMUS.Size(score))
	core.TokenScoreMUS.Marshal(score, buf)
	return buf
}

// UnmarshalTokenScore deserializes a TokenScore from bytes.
func UnmarshalTokenScore(data []byte) (core.TokenScore, error) {
	score, _, err := core.TokenScoreMUS.Unmarshal(data)
	return score, err
}
