// Copyright 2025 Poiesic Systems
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
	"sort"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/searcheval/core"
)

// IndexEntry pairs one document with its embedding vector for persistence.
type IndexEntry struct {
	Document core.Document
	Vector   []float32
}

// IndexEntryMUS is the binary serializer for IndexEntry. Metadata keys are
// written in sorted order so equal entries marshal to equal bytes.
var IndexEntryMUS = indexEntrySer{}

type indexEntrySer struct{}

func (indexEntrySer) Marshal(e IndexEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Document.ID, bs)
	n += ord.String.Marshal(e.Document.Content, bs[n:])

	n += varint.PositiveInt.Marshal(len(e.Document.Metadata), bs[n:])
	for _, key := range sortedKeys(e.Document.Metadata) {
		n += ord.String.Marshal(key, bs[n:])
		n += ord.String.Marshal(e.Document.Metadata[key], bs[n:])
	}

	n += varint.PositiveInt.Marshal(len(e.Vector), bs[n:])
	for _, v := range e.Vector {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	return
}

func (indexEntrySer) Unmarshal(bs []byte) (e IndexEntry, n int, err error) {
	var n1 int
	e.Document.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	e.Document.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}

	var count int
	count, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count > 0 {
		e.Document.Metadata = make(map[string]string, count)
	}
	for i := 0; i < count; i++ {
		var key, value string
		key, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		value, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		e.Document.Metadata[key] = value
	}

	var width int
	width, n1, err = varint.PositiveInt.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if width > 0 {
		e.Vector = make([]float32, width)
	}
	for i := 0; i < width; i++ {
		e.Vector[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (indexEntrySer) Size(e IndexEntry) (size int) {
	size = ord.String.Size(e.Document.ID)
	size += ord.String.Size(e.Document.Content)

	size += varint.PositiveInt.Size(len(e.Document.Metadata))
	for key, value := range e.Document.Metadata {
		size += ord.String.Size(key)
		size += ord.String.Size(value)
	}

	size += varint.PositiveInt.Size(len(e.Vector))
	for _, v := range e.Vector {
		size += raw.Float32.Size(v)
	}
	return
}

// MarshalIndexEntry serializes an IndexEntry to bytes.
func MarshalIndexEntry(e IndexEntry) []byte {
	buf := make([]byte, IndexEntryMUS.Size(e))
	IndexEntryMUS.Marshal(e, buf)
	return buf
}

// UnmarshalIndexEntry deserializes an IndexEntry from bytes.
func UnmarshalIndexEntry(data []byte) (IndexEntry, error) {
	e, _, err := IndexEntryMUS.Unmarshal(data)
	return e, err
}

// MarshalCount serializes an entry count for index metadata.
func MarshalCount(count int) []byte {
	buf := make([]byte, varint.PositiveInt.Size(count))
	varint.PositiveInt.Marshal(count, buf)
	return buf
}

// UnmarshalCount deserializes an entry count.
func UnmarshalCount(data []byte) (int, error) {
	count, _, err := varint.PositiveInt.Unmarshal(data)
	return count, err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
