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

// Package tolerant implements the substitution-tolerant Markov model (STMM,
// spec C5): a hit/miss history register gating an enable/disable state
// machine that provides a secondary prediction stream riding on a parent
// FCM's own counter readings. Grounded on smashpp's fcm.cpp
// (stmm_hit_prob/stmm_miss_prob/best_sym/best_sym_abs).
package tolerant

import "math/bits"

// NoUniqueBest is the sentinel BestSymAbs returns whenever more than one
// symbol ties for the maximum count.
const NoUniqueBest = 255

// Par holds a tolerant sub-model's static parameters (spec.md §3 STMMPar).
type Par struct {
	KTol     uint8 // tolerance order, usually equal to the parent's k
	Thresh   uint8 // miss-count popcount threshold
	AlphaTol float64
	GammaTol float64
}

// STMM is the runtime state of one tolerant sub-model: a sliding 64-bit
// hit/miss register and the Enabled/Disabled flag it gates. A STMM owns no
// counter store of its own; it is driven by the same context/store pair as
// its parent model (spec.md §3: "usually = parent's k").
type STMM struct {
	Par     Par
	History uint64
	Enabled bool
}

// New returns an STMM in its initial state: Enabled with a zeroed history
// (spec.md §4.5: "Initial state: Enabled with history=0. No terminal state.").
func New(p Par) *STMM {
	return &STMM{Par: p, Enabled: true}
}

// BestSym returns the first index achieving the maximum in f (spec.md §4.5:
// "best_sym returns first maximum").
func BestSym(f [4]uint64) uint8 {
	best := uint8(0)
	for i := uint8(1); i < 4; i++ {
		if f[i] > f[best] {
			best = i
		}
	}
	return best
}

// BestSymAbs returns the unique argmax of f, or NoUniqueBest if any two
// symbols tie at the maximum (spec.md §4.5/§9 open question 4).
func BestSymAbs(f [4]uint64) uint8 {
	best := uint8(0)
	ties := 0
	for i := uint8(1); i < 4; i++ {
		switch {
		case f[i] > f[best]:
			best = i
			ties = 0
		case f[i] == f[best]:
			ties++
		}
	}
	if ties > 0 {
		return NoUniqueBest
	}
	return best
}

func laplace(f [4]uint64, sym uint8, alpha float64) float64 {
	var sum uint64
	for _, c := range f {
		sum += c
	}
	return (float64(f[sym]) + alpha) / (float64(sum) + 4*alpha)
}

func pushHistory(h uint64, miss bool) uint64 {
	h <<= 1
	if miss {
		h |= 1
	}
	return h
}

// Step advances the state machine by one target symbol, given the actual
// observed symbol and the parent's four counter readings f (already probed
// for the current context). It returns the sub-model's contributed
// probability and whether the mixture's weights must be reset to uniform
// (true only on a Disabled→Enabled transition, per spec.md §3's invariant).
func (s *STMM) Step(actual uint8, f [4]uint64) (p float64, resetMixture bool) {
	if s.Enabled {
		bestSym := BestSym(f)
		if actual == bestSym {
			s.History = pushHistory(s.History, false)
			return laplace(f, actual, s.Par.AlphaTol), false
		}

		s.History = pushHistory(s.History, true)
		if bits.OnesCount64(s.History) > int(s.Par.Thresh) {
			s.Enabled = false
			s.History = 0
			return 0.0, false
		}
		// Non-disabling miss: score the predicted symbol bestSym, not the
		// actual one (fcm.cpp's stmm_miss_prob re-uses the hit path's config
		// without re-pointing numSym at actual).
		return laplace(f, bestSym, s.Par.AlphaTol), false
	}

	if actual == BestSymAbs(f) {
		s.Enabled = true
		return laplace(f, actual, s.Par.AlphaTol), true
	}
	return 0.0, false
}
