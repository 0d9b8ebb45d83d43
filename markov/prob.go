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

import "math"

// Prob returns the Laplace-smoothed conditional probability of sym given
// the four counter readings f (spec.md §4.4): (f[sym]+alpha) / (sum(f) +
// 4*alpha).
func Prob(f [4]uint64, sym uint8, alpha float64) float64 {
	var sum uint64
	for _, c := range f {
		sum += c
	}
	return (float64(f[sym]) + alpha) / (float64(sum) + 4*alpha)
}

// CombineIR sums a forward reading with its IR-mirrored reading, per
// symbol, producing the f[0..3] that feeds Prob for an IR-enabled model
// (spec.md §4.4: "each f[i] is the sum of forward probe i and its
// IR-mirrored probe").
func CombineIR(forward, ir [4]uint64) [4]uint64 {
	return [4]uint64{
		forward[0] + ir[0],
		forward[1] + ir[1],
		forward[2] + ir[2],
		forward[3] + ir[3],
	}
}

// Entropy returns the per-step entropy contribution -log2(P) (spec.md
// §4.4). Callers must never pass P<=0; Prob's Laplace smoothing guarantees
// P>0 whenever alpha>0.
func Entropy(p float64) float64 {
	return -math.Log2(p)
}
