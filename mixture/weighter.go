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

// Package mixture implements the exponentially-decayed mixture weighter
// (spec C6): per-step weight decay, normalization, and mixed entropy.
// Grounded on smashpp's fcm.cpp (update_weights, normalize, entropy(w,P)).
package mixture

import "math"

// Weighter holds the mixture's weight vector and each slot's decay exponent.
// Weights and Gammas are allocated once and reused every step, matching the
// no-per-symbol-allocation design note in spec.md §9.
type Weighter struct {
	Weights []float64
	Gammas  []float64
	next    []float64 // scratch reused by Step, never reallocated per symbol
}

// New returns a Weighter with n slots, weights initialized to uniform 1/n.
func New(gammas []float64) *Weighter {
	n := len(gammas)
	w := &Weighter{
		Weights: make([]float64, n),
		Gammas:  append([]float64(nil), gammas...),
		next:    make([]float64, n),
	}
	w.resetUniform()
	return w
}

func (w *Weighter) resetUniform() {
	n := len(w.Weights)
	if n == 0 {
		return
	}
	u := 1.0 / float64(n)
	for i := range w.Weights {
		w.Weights[i] = u
	}
}

// ResetUniform resets every weight to 1/N, as required when a disabled
// sub-model re-enables (spec.md §3 STMMPar invariant).
func (w *Weighter) ResetUniform() {
	w.resetUniform()
}

// Step performs one mixture step: weight decay, multiply by this step's
// per-model probabilities, normalize (falling back to uniform if every
// weight collapses to zero), and compute the mixed entropy from the
// *post-update* weights of this same step — resolving spec.md §9 open
// question 2 by matching fcm.cpp's entropy(w,P), which calls
// update_weights before the inner product that yields h.
//
// enabled marks sub-model slots that must contribute zero this step (a
// disabled STMM); parent-model slots are always enabled.
func (w *Weighter) Step(probs []float64, enabled []bool) (mixedP, h float64) {
	n := len(w.Weights)
	var sum float64
	next := w.next
	for i := 0; i < n; i++ {
		if enabled != nil && !enabled[i] {
			next[i] = 0
			continue
		}
		next[i] = math.Pow(w.Weights[i], w.Gammas[i]) * probs[i]
		sum += next[i]
	}

	if sum == 0 {
		u := 1.0 / float64(n)
		for i := range next {
			next[i] = u
		}
		sum = 1
	}
	for i := range next {
		next[i] /= sum
	}
	copy(w.Weights, next)

	mixedP = 0
	for i := 0; i < n; i++ {
		mixedP += w.Weights[i] * probs[i]
	}
	h = -math.Log2(mixedP)
	return mixedP, h
}
