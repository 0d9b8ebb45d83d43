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

package tolerant

import (
	"math"
	"testing"
)

func TestBestSymFirstMaxOnTie(t *testing.T) {
	f := [4]uint64{3, 3, 1, 0}
	if got := BestSym(f); got != 0 {
		t.Fatalf("BestSym = %d, want 0 (first max)", got)
	}
}

func TestBestSymAbsSentinelOnTie(t *testing.T) {
	f := [4]uint64{3, 3, 1, 0}
	if got := BestSymAbs(f); got != NoUniqueBest {
		t.Fatalf("BestSymAbs = %d, want sentinel %d", got, NoUniqueBest)
	}
}

func TestBestSymAbsUniqueMax(t *testing.T) {
	f := [4]uint64{1, 9, 2, 0}
	if got := BestSymAbs(f); got != 1 {
		t.Fatalf("BestSymAbs = %d, want 1", got)
	}
}

// Scenario 5 (spec.md §8): parent k=4, child thresh=3. Four hits then four
// consecutive misses must transition Enabled->Disabled exactly on the 4th
// miss (popcount(history)=4 > thresh=3), contributing 0 thereafter.
func TestSTMMDisablesOnFourthConsecutiveMiss(t *testing.T) {
	s := New(Par{KTol: 4, Thresh: 3, AlphaTol: 1, GammaTol: 1})

	// argmax at symbol 0; four hits.
	fHit := [4]uint64{10, 1, 1, 1}
	for i := 0; i < 4; i++ {
		p, reset := s.Step(0, fHit)
		if !s.Enabled {
			t.Fatalf("unexpected disable during hit streak at i=%d", i)
		}
		if reset {
			t.Fatalf("unexpected mixture reset during hit streak at i=%d", i)
		}
		if p <= 0 {
			t.Fatalf("expected positive hit probability at i=%d, got %v", i, p)
		}
	}
	if s.History != 0 {
		t.Fatalf("history after all hits should be 0, got %b", s.History)
	}

	// Four consecutive misses: actual symbol (3) never equals argmax (0).
	for i := 0; i < 3; i++ {
		p, reset := s.Step(3, fHit)
		if !s.Enabled {
			t.Fatalf("disabled too early at miss %d", i+1)
		}
		if reset {
			t.Fatalf("unexpected reset at miss %d", i+1)
		}
		if p <= 0 {
			t.Fatalf("still-enabled miss should return normal P, got %v at miss %d", p, i+1)
		}
	}

	p, reset := s.Step(3, fHit)
	if s.Enabled {
		t.Fatal("expected Disabled after 4th consecutive miss")
	}
	if reset {
		t.Fatal("disable transition must not reset mixture weights")
	}
	if p != 0.0 {
		t.Fatalf("expected 0 contribution on disabling step, got %v", p)
	}
	if s.History != 0 {
		t.Fatalf("history must reset to 0 on disable, got %b", s.History)
	}

	// While disabled, further steps with a non-matching, non-unique-argmax
	// actual keep contributing 0.
	p, reset = s.Step(3, fHit)
	if p != 0.0 || reset {
		t.Fatalf("expected (0, false) while disabled and actual != best_sym_abs, got (%v, %v)", p, reset)
	}
}

// A non-disabling miss must score the predicted symbol (bestSym), not the
// actual observed symbol: P = (f[bestSym]+alpha) / (sum(f)+4*alpha).
func TestSTMMMissScoresPredictedSymbol(t *testing.T) {
	s := New(Par{KTol: 4, Thresh: 3, AlphaTol: 1, GammaTol: 1})
	f := [4]uint64{10, 1, 1, 1} // bestSym = 0
	p, reset := s.Step(3, f)    // actual = 3, a miss that doesn't disable
	if reset {
		t.Fatal("unexpected mixture reset on a non-disabling miss")
	}
	want := (float64(f[0]) + 1) / (float64(10+1+1+1) + 4)
	if math.Abs(p-want) > 1e-12 {
		t.Fatalf("miss probability = %v, want %v (P(bestSym), not P(actual))", p, want)
	}
}

func TestSTMMReenablesOnUniqueArgmaxMatch(t *testing.T) {
	s := &STMM{Par: Par{KTol: 4, Thresh: 1, AlphaTol: 1, GammaTol: 1}, Enabled: false, History: 0}

	f := [4]uint64{1, 1, 9, 1} // unique argmax at symbol 2
	p, reset := s.Step(2, f)
	if !s.Enabled {
		t.Fatal("expected re-enable when actual matches unique argmax")
	}
	if !reset {
		t.Fatal("re-enable must request a mixture weight reset to uniform")
	}
	if p <= 0 {
		t.Fatalf("expected positive hit probability on re-enable, got %v", p)
	}
}

func TestSTMMStaysDisabledOnTieOrMismatch(t *testing.T) {
	s := &STMM{Par: Par{KTol: 4, Thresh: 1, AlphaTol: 1, GammaTol: 1}, Enabled: false}

	tie := [4]uint64{5, 5, 1, 0}
	if p, reset := s.Step(0, tie); p != 0.0 || reset || s.Enabled {
		t.Fatalf("tie at max must not re-enable: p=%v reset=%v enabled=%v", p, reset, s.Enabled)
	}

	mismatch := [4]uint64{1, 9, 1, 1}
	if p, reset := s.Step(0, mismatch); p != 0.0 || reset || s.Enabled {
		t.Fatalf("mismatched actual must not re-enable: p=%v reset=%v enabled=%v", p, reset, s.Enabled)
	}
}
