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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/fauna/core"
)

// speciesFormatVersion prefixes every encoded SpeciesRecord.
const speciesFormatVersion = 1

// MarshalKey serializes a Key to bytes.
func MarshalKey(key core.Key) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(key)))
	varint.Uint64.Marshal(uint64(key), buf)
	return buf
}

// UnmarshalKey deserializes a Key from bytes.
func UnmarshalKey(data []byte) (core.Key, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.Key(v), nil
}

// MarshalSpeciesRecord serializes a SpeciesRecord to bytes.
func MarshalSpeciesRecord(record *core.SpeciesRecord) []byte {
	buf := make([]byte, sizeSpecies(record))
	marshalSpecies(record, buf)
	return buf
}

// UnmarshalSpeciesRecord deserializes a SpeciesRecord from bytes.
func UnmarshalSpeciesRecord(data []byte) (*core.SpeciesRecord, error) {
	d := &decoder{bs: data}
	if v := d.int(); d.err == nil && v != speciesFormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrSerializationFailed, v)
	}
	record := &core.SpeciesRecord{
		ID:             d.string(),
		Source:         d.string(),
		Name:           d.string(),
		ScientificName: d.string(),
		URL:            d.string(),
		ImageURL:       d.string(),
	}
	for _, c := range d.strings() {
		record.Categories = append(record.Categories, core.TypeLabel(c))
	}
	record.Overview = d.string()
	record.RawOverview = d.string()
	record.Habitat = d.string()
	record.Diet = d.string()
	record.Threats = d.strings()
	for _, field := range core.StatFields {
		if d.bool() {
			r := core.NormalizedRange{Min: d.float(), Max: d.float()}
			record.Stats.Set(field, &r)
		}
	}
	record.InsertedAt = d.time()
	record.UpdatedAt = d.time()

	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	if d.n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedData, len(data)-d.n)
	}
	return record, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	size := ord.String.Size(checkpoint.Name) +
		sizeTime(checkpoint.Watermark) +
		varint.Uint64.Size(checkpoint.Processed) +
		sizeTime(checkpoint.UpdatedAt)
	buf := make([]byte, size)
	n := ord.String.Marshal(checkpoint.Name, buf)
	n += marshalTime(checkpoint.Watermark, buf[n:])
	n += varint.Uint64.Marshal(checkpoint.Processed, buf[n:])
	marshalTime(checkpoint.UpdatedAt, buf[n:])
	return buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	d := &decoder{bs: data}
	checkpoint := &core.Checkpoint{
		Name:      d.string(),
		Watermark: d.time(),
		Processed: d.uint64(),
		UpdatedAt: d.time(),
	}
	if d.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, d.err)
	}
	return checkpoint, nil
}

func sizeSpecies(r *core.SpeciesRecord) int {
	size := varint.Int.Size(speciesFormatVersion)
	for _, s := range []string{r.ID, r.Source, r.Name, r.ScientificName, r.URL, r.ImageURL} {
		size += ord.String.Size(s)
	}
	size += varint.Int.Size(len(r.Categories))
	for _, c := range r.Categories {
		size += ord.String.Size(string(c))
	}
	for _, s := range []string{r.Overview, r.RawOverview, r.Habitat, r.Diet} {
		size += ord.String.Size(s)
	}
	size += sizeStrings(r.Threats)
	for _, field := range core.StatFields {
		v := r.Stats.Get(field)
		size += ord.Bool.Size(v != nil)
		if v != nil {
			size += raw.Float64.Size(v.Min) + raw.Float64.Size(v.Max)
		}
	}
	return size + sizeTime(r.InsertedAt) + sizeTime(r.UpdatedAt)
}

func marshalSpecies(r *core.SpeciesRecord, bs []byte) int {
	n := varint.Int.Marshal(speciesFormatVersion, bs)
	for _, s := range []string{r.ID, r.Source, r.Name, r.ScientificName, r.URL, r.ImageURL} {
		n += ord.String.Marshal(s, bs[n:])
	}
	n += varint.Int.Marshal(len(r.Categories), bs[n:])
	for _, c := range r.Categories {
		n += ord.String.Marshal(string(c), bs[n:])
	}
	for _, s := range []string{r.Overview, r.RawOverview, r.Habitat, r.Diet} {
		n += ord.String.Marshal(s, bs[n:])
	}
	n += marshalStrings(r.Threats, bs[n:])
	for _, field := range core.StatFields {
		v := r.Stats.Get(field)
		n += ord.Bool.Marshal(v != nil, bs[n:])
		if v != nil {
			n += raw.Float64.Marshal(v.Min, bs[n:])
			n += raw.Float64.Marshal(v.Max, bs[n:])
		}
	}
	n += marshalTime(r.InsertedAt, bs[n:])
	n += marshalTime(r.UpdatedAt, bs[n:])
	return n
}

func sizeStrings(ss []string) int {
	size := varint.Int.Size(len(ss))
	for _, s := range ss {
		size += ord.String.Size(s)
	}
	return size
}

func marshalStrings(ss []string, bs []byte) int {
	n := varint.Int.Marshal(len(ss), bs)
	for _, s := range ss {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

// Times are stored as UTC microseconds behind a presence flag so the zero
// time survives a round trip.
func sizeTime(t time.Time) int {
	if t.IsZero() {
		return ord.Bool.Size(false)
	}
	return ord.Bool.Size(true) + varint.Int64.Size(t.UnixMicro())
}

func marshalTime(t time.Time, bs []byte) int {
	if t.IsZero() {
		return ord.Bool.Marshal(false, bs)
	}
	n := ord.Bool.Marshal(true, bs)
	return n + varint.Int64.Marshal(t.UnixMicro(), bs[n:])
}

// decoder reads consecutive values and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) strings() []string {
	count := d.int()
	if d.err != nil || count <= 0 {
		return nil
	}
	if count > len(d.bs)-d.n {
		d.err = ErrTruncatedData
		return nil
	}
	out := make([]string, 0, count)
	for range count {
		out = append(out, d.string())
	}
	return out
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) float() float64 {
	if d.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) time() time.Time {
	if !d.bool() || d.err != nil {
		return time.Time{}
	}
	v, n, err := varint.Int64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}
