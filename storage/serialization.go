// Copyright 2025 Textflock
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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/textflock/refind/core"
)

// Stored records are encoded with hand-written MUS serializers.
// Timestamps are encoded as Unix microseconds.

var (
	vectorSer   = ord.NewSliceSer[float32](raw.Float32)
	metadataSer = ord.NewMapSer[string, string](ord.String, ord.String)
)

// DocumentSer serializes core.Document values in MUS format.
type DocumentSer struct{}

// DocumentMUS is the serializer instance for core.Document.
var DocumentMUS = DocumentSer{}

// Marshal writes the document into bs and returns the number of bytes used.
func (DocumentSer) Marshal(d core.Document, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(d.Id), bs)
	n += ord.String.Marshal(d.DocId, bs[n:])
	n += ord.String.Marshal(d.Text, bs[n:])
	n += ord.String.Marshal(d.Source, bs[n:])
	n += ord.String.Marshal(string(d.Category), bs[n:])
	n += ord.String.Marshal(d.Title, bs[n:])
	n += vectorSer.Marshal(d.Vector, bs[n:])
	n += metadataSer.Marshal(d.Metadata, bs[n:])
	n += varint.Int64.Marshal(d.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(d.UpdatedAt.UnixMicro(), bs[n:])
	return
}

// Unmarshal reads a document from bs.
func (DocumentSer) Unmarshal(bs []byte) (d core.Document, n int, err error) {
	var (
		n1       int
		id       uint64
		category string
		inserted int64
		updated  int64
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	d.Id = core.ID(id)
	d.DocId, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	category, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Category = core.Category(category)
	d.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.Metadata, n1, err = metadataSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	inserted, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.InsertedAt = time.UnixMicro(inserted).UTC()
	updated, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	d.UpdatedAt = time.UnixMicro(updated).UTC()
	return
}

// Size returns the encoded size of the document.
func (DocumentSer) Size(d core.Document) (size int) {
	size = varint.Uint64.Size(uint64(d.Id))
	size += ord.String.Size(d.DocId)
	size += ord.String.Size(d.Text)
	size += ord.String.Size(d.Source)
	size += ord.String.Size(string(d.Category))
	size += ord.String.Size(d.Title)
	size += vectorSer.Size(d.Vector)
	size += metadataSer.Size(d.Metadata)
	size += varint.Int64.Size(d.InsertedAt.UnixMicro())
	size += varint.Int64.Size(d.UpdatedAt.UnixMicro())
	return
}

// Skip advances past one encoded document.
func (s DocumentSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// FeedbackRecordSer serializes core.FeedbackRecord values in MUS format.
type FeedbackRecordSer struct{}

// FeedbackRecordMUS is the serializer instance for core.FeedbackRecord.
var FeedbackRecordMUS = FeedbackRecordSer{}

// Marshal writes the record into bs and returns the number of bytes used.
func (FeedbackRecordSer) Marshal(r core.FeedbackRecord, bs []byte) (n int) {
	n = ord.String.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.TextHash, bs[n:])
	n += ord.String.Marshal(r.Query, bs[n:])
	n += varint.Int.Marshal(int(r.Vote), bs[n:])
	n += ord.String.Marshal(r.Submitter, bs[n:])
	n += varint.Int64.Marshal(r.Timestamp.UnixMicro(), bs[n:])
	return
}

// Unmarshal reads a record from bs.
func (FeedbackRecordSer) Unmarshal(bs []byte) (r core.FeedbackRecord, n int, err error) {
	var (
		n1   int
		vote int
		ts   int64
	)
	r.Id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	r.TextHash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Query, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	vote, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Vote = core.Vote(vote)
	r.Submitter, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	ts, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Timestamp = time.UnixMicro(ts).UTC()
	return
}

// Size returns the encoded size of the record.
func (FeedbackRecordSer) Size(r core.FeedbackRecord) (size int) {
	size = ord.String.Size(r.Id)
	size += ord.String.Size(r.TextHash)
	size += ord.String.Size(r.Query)
	size += varint.Int.Size(int(r.Vote))
	size += ord.String.Size(r.Submitter)
	size += varint.Int64.Size(r.Timestamp.UnixMicro())
	return
}

// Skip advances past one encoded record.
func (s FeedbackRecordSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, DocumentMUS.Size(*doc))
	DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalFeedbackRecord serializes a FeedbackRecord to bytes.
func MarshalFeedbackRecord(record *core.FeedbackRecord) []byte {
	buf := make([]byte, FeedbackRecordMUS.Size(*record))
	FeedbackRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalFeedbackRecord deserializes a FeedbackRecord from bytes.
func UnmarshalFeedbackRecord(data []byte) (*core.FeedbackRecord, error) {
	record, _, err := FeedbackRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}
