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
	"io"
	"math"
	"math/rand/v2"
)

// logTable8Base is the Morris counter's tuning base B (spec.md §4.2: "B is a
// tuning base ~= 1.08-2.0, implementation-defined but fixed"). 1.08 keeps
// the dynamic range of a single byte's worth of counter (0..255) well past
// the depth a single order-k context ever needs for a handful of megabytes
// of reference.
const logTable8Base = 1.08

// LogTableStore8 is the single-table, log-mapped 8-bit Morris counter
// (spec.md §4.2/§4.3, grounded on seiflotfy/count-min-log's log8.go
// value8/fullValue8 pair, specialized to one register per context instead
// of a d-row sketch).
type LogTableStore8 struct {
	k    uint8
	tbl  []uint8
	rng  *rand.Rand
	seed uint64
}

func newLogTableStore8(k uint8, seed uint64) (*LogTableStore8, error) {
	n := tableLen(k)
	if n > maxAllocElems {
		return nil, &AllocError{Requested: n}
	}
	return &LogTableStore8{
		k:    k,
		tbl:  make([]uint8, n),
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed: seed,
	}, nil
}

// Update draws a Morris test with success probability B^-c and, on success,
// increments the counter, saturating at 255.
func (t *LogTableStore8) Update(ctx uint64) {
	c := t.tbl[ctx]
	if c == math.MaxUint8 {
		return
	}
	if t.rng.Float64() < math.Pow(logTable8Base, -float64(c)) {
		t.tbl[ctx] = c + 1
	}
}

// Query returns the Morris-inverted integer estimate round((B^c-1)/(B-1)).
func (t *LogTableStore8) Query(ctx uint64) uint64 {
	return invertMorris(t.tbl[ctx], logTable8Base)
}

// invertMorris inverse-maps a Morris counter value c under base b back to an
// estimated integer count.
func invertMorris(c uint8, b float64) uint64 {
	if c == 0 {
		return 0
	}
	return uint64(math.Round((math.Pow(b, float64(c)) - 1) / (b - 1)))
}

// Seed returns the PRNG seed this store was constructed with (spec.md §9:
// "expose the seed to the caller").
func (t *LogTableStore8) Seed() uint64 {
	return t.seed
}

func (t *LogTableStore8) Dump(w io.Writer) error {
	_, err := w.Write(t.tbl)
	return err
}

func (t *LogTableStore8) Load(r io.Reader) error {
	_, err := io.ReadFull(r, t.tbl)
	return err
}
