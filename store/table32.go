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
	"io"
	"math"
)

// TableStore32 is the exact 32-bit counter table with renormalization
// (spec.md §4.2, grounded on the reference's Table32/tbl32.hpp): a flat
// array of 4^(k+1) u32 counters that halves the whole table whenever an
// increment would overflow, saturating previously-nonzero cells to at
// least 1 so a halved "seen once" cell never reads back as unseen.
type TableStore32 struct {
	k       uint8
	tbl     []uint32
	nRenorm uint32
	tot     uint64
}

func newTableStore32(k uint8) (*TableStore32, error) {
	n := tableLen(k)
	if n > maxAllocElems {
		return nil, &AllocError{Requested: n * 4}
	}
	return &TableStore32{k: k, tbl: make([]uint32, n)}, nil
}

// Update increments the counter for ctx by 1, renormalizing first if that
// increment would overflow a u32.
func (t *TableStore32) Update(ctx uint64) {
	if t.tbl[ctx] == math.MaxUint32 {
		t.renormalize()
	}
	t.tbl[ctx]++
	t.tot++
}

// Query returns the (possibly halved) counter value for ctx.
func (t *TableStore32) Query(ctx uint64) uint64 {
	return uint64(t.tbl[ctx])
}

// renormalize halves every counter: c <- (c+1)>>1, which keeps any
// previously-nonzero cell at >= 1 (spec.md §4.2), and is O(4^(k+1)).
func (t *TableStore32) renormalize() {
	for i, c := range t.tbl {
		t.tbl[i] = uint32((uint64(c) + 1) >> 1)
	}
	t.nRenorm++
}

// NRenorm returns how many renormalization events have fired so far.
func (t *TableStore32) NRenorm() uint32 {
	return t.nRenorm
}

// Total returns the running sum of raw (pre-renormalization) increments
// seen by Update, mirroring the reference's `tot` field.
func (t *TableStore32) Total() uint64 {
	return t.tot
}

func (t *TableStore32) Dump(w io.Writer) error {
	buf := make([]byte, 4*len(t.tbl))
	for i, c := range t.tbl {
		binary.LittleEndian.PutUint32(buf[i*4:], c)
	}
	_, err := w.Write(buf)
	return err
}

func (t *TableStore32) Load(r io.Reader) error {
	buf := make([]byte, 4*len(t.tbl))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i := range t.tbl {
		t.tbl[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return nil
}
