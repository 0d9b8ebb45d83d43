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

package internal

// Num is the byte -> {0,1,2,3} DNA symbol lookup table. It mirrors the
// reference's NUM[256] table exactly: 'A'/'a' -> 0, 'C'/'c' -> 1, 'G'/'g' -> 2,
// 'T'/'t' -> 3, and every other byte (including ones never seen on clean
// input) defaults to 0 ('A'). Newline is not mapped here; callers must skip
// '\n' before indexing, same as the reference streaming loop does.
var Num [256]uint8

const (
	// NewlineByte is filtered out before Num lookup at the streaming layer.
	NewlineByte = '\n'
)

func init() {
	// Default slot: every byte maps to 'A' unless overridden below. This is
	// the reference's lossy default (spec.md open question 3); deterministic
	// across reference and target because both stream through the same table.
	for i := range Num {
		Num[i] = 0
	}

	Num['A'], Num['a'] = 0, 0
	Num['C'], Num['c'] = 1, 1
	Num['G'], Num['g'] = 2, 2
	Num['T'], Num['t'] = 3, 3
}

// Symbol maps a byte to its DNA symbol in [0,3]. ok is false only for '\n',
// which callers must skip rather than fold into a context.
func Symbol(b byte) (sym uint8, ok bool) {
	if b == NewlineByte {
		return 0, false
	}
	return Num[b], true
}
