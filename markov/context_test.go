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

package markov

import "testing"

func TestContextBoundsInvariant(t *testing.T) {
	c := New(2)
	limit := uint64(1) << (2 * 2) // 4^k
	seq := []uint8{0, 1, 2, 3, 0, 3, 2, 1, 0, 0, 1, 1}
	for _, s := range seq {
		c.Advance(s)
		c.AdvanceIR(s)
		if c.Ctx >= limit {
			t.Fatalf("ctx %d exceeds 4^k=%d", c.Ctx, limit)
		}
		if c.CtxIr >= limit {
			t.Fatalf("ctxIr %d exceeds 4^k=%d", c.CtxIr, limit)
		}
	}
}

// Scenario 3 (spec.md §8): k=2, ref="ACGTACGT" exercises mask arithmetic.
// Before each symbol, the (k+1)-mer cell the trainer updates must equal
// ((prev<<2)&mask)|s; after it, ctx is that cell cut back to k symbols.
func TestContextMaskArithmeticMatchesScenario3(t *testing.T) {
	c := New(2)
	mask := uint64(4)<<(2<<1) - 1 // 4^3 - 1 = 63
	if c.Mask != mask {
		t.Fatalf("mask = %d, want %d", c.Mask, mask)
	}
	ref := []uint8{0, 1, 2, 3, 0, 1, 2, 3} // A C G T A C G T
	prev := uint64(0)
	for _, s := range ref {
		want := ((prev << 2) & mask) | uint64(s)
		if cell := c.ProbeBase() | uint64(s); cell != want {
			t.Fatalf("cell = %d, want %d", cell, want)
		}
		c.Advance(s)
		if c.Ctx != want&(mask>>2) {
			t.Fatalf("ctx = %d, want %d", c.Ctx, want&(mask>>2))
		}
		prev = c.Ctx
	}
}

func TestProbesForwardAreFourConsecutiveChildren(t *testing.T) {
	c := New(1)
	c.Advance(2)
	l, probes := c.ProbesForward()
	for i := uint64(0); i < 4; i++ {
		if probes[i] != l|i {
			t.Fatalf("probe %d = %d, want %d", i, probes[i], l|i)
		}
	}
}

func TestProbesIRMirrorsDescendingSymbol(t *testing.T) {
	c := New(2)
	c.AdvanceIR(1)
	r, probes := c.ProbesIR()
	shl := uint64(c.Shl)
	for i := uint64(0); i < 4; i++ {
		want := ((3 - i) << shl) | r
		if probes[i] != want {
			t.Fatalf("IR probe %d = %d, want %d", i, probes[i], want)
		}
	}
}
