/*
Copyright 2011-2025 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import (
	"encoding/binary"
	"fmt"
	"io"
)

// TableStore64 is the exact, lossless 64-bit counter table (spec.md §4.2,
// grounded on the reference's Table64/tbl64.cpp): a flat array of 4^(k+1)
// u64 counters, incremented by exactly 1 on every update.
type TableStore64 struct {
	k   uint8
	tbl []uint64
}

func newTableStore64(k uint8) (*TableStore64, error) {
	n := tableLen(k)
	if n > maxAllocElems {
		return nil, &AllocError{Requested: n * 8}
	}
	return &TableStore64{k: k, tbl: make([]uint64, n)}, nil
}

// Update increments the counter for ctx by 1. No loss, ever.
func (t *TableStore64) Update(ctx uint64) {
	t.tbl[ctx]++
}

// Query returns the raw counter value for ctx.
func (t *TableStore64) Query(ctx uint64) uint64 {
	return t.tbl[ctx]
}

// Dump writes every counter as 8 bytes little-endian. Unlike the reference
// (which writes tbl.size() bytes instead of tbl.size()*sizeof(cell), see
// spec.md §9 open question 1), this writes the full table: len(t.tbl)*8
// bytes, so a Load round-trips exactly.
func (t *TableStore64) Dump(w io.Writer) error {
	buf := make([]byte, 8*len(t.tbl))
	for i, c := range t.tbl {
		binary.LittleEndian.PutUint64(buf[i*8:], c)
	}
	_, err := w.Write(buf)
	return err
}

// Load reads a table previously written by Dump.
func (t *TableStore64) Load(r io.Reader) error {
	buf := make([]byte, 8*len(t.tbl))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i := range t.tbl {
		t.tbl[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return nil
}

// CountEmpty returns the number of never-incremented cells. Supplemented
// from the reference's #ifdef DEBUG count_empty(), exposed unconditionally
// since Go has no zero-cost debug-build mechanism worth imitating here.
func (t *TableStore64) CountEmpty() uint64 {
	var n uint64
	for _, c := range t.tbl {
		if c == 0 {
			n++
		}
	}
	return n
}

// MaxValue returns the largest counter currently stored.
func (t *TableStore64) MaxValue() uint64 {
	var m uint64
	for _, c := range t.tbl {
		if c > m {
			m = c
		}
	}
	return m
}

// AllocError is returned when a requested table would exceed the store
// package's sanity ceiling for a single allocation (spec.md §7: "allocation
// error ... surfaced at store construction").
type AllocError struct {
	Requested uint64
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("store: refusing to allocate %d bytes for a single table", e.Requested)
}

// maxAllocElems bounds a single table's element count to keep a
// misconfigured k (e.g. forgetting to route it through Sketch8) from
// attempting a multi-exabyte allocation instead of failing fast.
const maxAllocElems = uint64(1) << 34
