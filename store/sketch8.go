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
	"errors"
	"io"
	"math"
	"math/rand/v2"

	"github.com/dgryski/go-farm"
)

// SketchStore8 is the Count-Min-Log Sketch (CMLS4 in spec.md §3/§4.2): d
// rows x w columns (w a power of two) of 8-bit Morris counters, d
// independent hashes of ctx derived by double-hashing a single 64-bit
// fingerprint (grounded on seiflotfy/count-min-log's generic Sketch[T],
// which does exactly this with farm.Hash64 plus h1+i*h2).
type SketchStore8 struct {
	w, d   uint
	wMask  uint64
	store  []uint8 // row-major, d rows of w columns
	rng    *rand.Rand
	seed   uint64
	exp    float64
	logExp float64
	idxs   []int // scratch, reused every Update to avoid per-call allocation
}

func newSketchStore8(w, d, seed uint64) (*SketchStore8, error) {
	if w == 0 || d == 0 {
		return nil, errors.New("store: sketch width and depth must be positive")
	}
	if w&(w-1) != 0 {
		return nil, errors.New("store: sketch width must be a power of two")
	}
	n := w * d
	if n > maxAllocElems {
		return nil, &AllocError{Requested: n}
	}
	return &SketchStore8{
		w:      uint(w),
		d:      uint(d),
		wMask:  w - 1,
		store:  make([]uint8, n),
		rng:    rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)),
		seed:   seed,
		exp:    logTable8Base,
		logExp: math.Log(logTable8Base),
		idxs:   make([]int, 0, d),
	}, nil
}

// rowIndices computes the d row-local hash positions for ctx via
// double-hashing a single 64-bit fingerprint, exactly as the example sketch
// does (h1 + i*h2, masked into [0,w) since w is a power of two).
func (s *SketchStore8) rowIndices(ctx uint64) []int {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], ctx)
	hs := farm.Hash64(key[:])
	h1 := uint32(hs & 0xffffffff)
	h2 := uint32(hs >> 32)

	idxs := s.idxs[:0]
	for i := uint(0); i < s.d; i++ {
		salted := uint64(h1 + uint32(i)*h2)
		col := salted & s.wMask
		idxs = append(idxs, int(i*s.w+uint(col)))
	}
	return idxs
}

// Update increments the minimum row's counter (conservative update: only
// cells that equal the current minimum across rows are incremented), using
// the Morris rule so repeated observations of the same ctx still saturate
// slowly at high counts.
func (s *SketchStore8) Update(ctx uint64) {
	idxs := s.rowIndices(ctx)
	min := uint8(math.MaxUint8)
	for _, idx := range idxs {
		if v := s.store[idx]; v < min {
			min = v
		}
	}
	if min == math.MaxUint8 {
		return
	}
	if s.rng.Float64() >= math.Exp(-float64(min)*s.logExp) {
		return
	}
	next := min + 1
	for _, idx := range idxs {
		if s.store[idx] == min {
			s.store[idx] = next
		}
	}
}

// Query returns the minimum (Morris-inverted) count across the d rows.
func (s *SketchStore8) Query(ctx uint64) uint64 {
	idxs := s.rowIndices(ctx)
	min := uint8(math.MaxUint8)
	for _, idx := range idxs {
		if v := s.store[idx]; v < min {
			min = v
		}
	}
	return invertMorris(min, s.exp)
}

// Seed returns the PRNG seed this sketch was constructed with.
func (s *SketchStore8) Seed() uint64 {
	return s.seed
}

func (s *SketchStore8) Dump(w io.Writer) error {
	_, err := w.Write(s.store)
	return err
}

func (s *SketchStore8) Load(r io.Reader) error {
	_, err := io.ReadFull(r, s.store)
	return err
}
