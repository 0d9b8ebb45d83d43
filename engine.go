/*
Copyright 2011-2026 Frederic Langlet
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

package smashpp

import (
	"bufio"
	"io"
	"os"
	"sync"

	"github.com/pratas/smashpp/internal"
	"github.com/pratas/smashpp/markov"
	"github.com/pratas/smashpp/mixture"
	"github.com/pratas/smashpp/store"
	"github.com/pratas/smashpp/tolerant"
)

// modelState is the runtime state of one declared model: its rolling
// context, its counter store, and, if configured, its tolerant sub-model.
// A sub-model shares its parent's context and store rather than owning a
// second one (see SPEC_FULL.md §4: spec.md §3 describes it as reading the
// parent's f[0..3], so it has nothing of its own to roll or query).
type modelState struct {
	par  MMPar
	ctx  *markov.Context
	st   store.Store
	stmm *tolerant.STMM
}

// Engine is the trainer (C7) and compressor (C8) for a declared set of
// models.
type Engine struct {
	p         Param
	models    []*modelState
	weighter  *mixture.Weighter
	probsBuf  []float64
	listeners []Listener
	mu        sync.Mutex
}

// NewEngine constructs the stores and context trackers for every model in
// p, failing fast on any allocation or dispatch error (spec.md §7).
func NewEngine(p Param) (*Engine, error) {
	if len(p.Models) == 0 {
		return nil, newError(ErrConfig, "no models declared")
	}

	e := &Engine{p: p}
	var gammas []float64

	for _, par := range p.Models {
		sk := store.SketchParams{Width: uint(1) << par.WLog2, Depth: uint(par.D), Seed: p.Seed}
		st, err := store.New(par.Cont, par.K, sk)
		if err != nil {
			return nil, wrapStoreError(err)
		}

		ms := &modelState{par: par, ctx: markov.New(par.K), st: st}
		gammas = append(gammas, par.Gamma)

		if par.Child != nil {
			ms.stmm = tolerant.New(*par.Child)
			gammas = append(gammas, par.Child.GammaTol)
		}
		e.models = append(e.models, ms)
	}

	e.weighter = mixture.New(gammas)
	e.probsBuf = make([]float64, len(gammas))
	return e, nil
}

func wrapStoreError(err error) error {
	if _, ok := err.(*store.DispatchError); ok {
		return newError(ErrDispatch, "%v", err)
	}
	return newError(ErrAlloc, "%v", err)
}

// Weights returns a snapshot of the mixture's current weight vector, one
// entry per declared model slot (and one per configured tolerant sub-model,
// enabled or not, immediately following its parent). Exposed for observability/tests;
// formatting it for a report remains a caller concern.
func (e *Engine) Weights() []float64 {
	return append([]float64(nil), e.weighter.Weights...)
}

// AddListener registers a Listener to receive training/compression events.
// The engine never formats or prints progress itself.
func (e *Engine) AddListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Engine) fire(evt *Event) {
	e.mu.Lock()
	ls := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range ls {
		l.ProcessEvent(evt)
	}
}

// Train streams the reference once per model (C7). When more than one
// model is declared and NThreads > 1, workers are dispatched in batches of
// size min(NThreads, len(models)): a batch is fully joined before the next
// one launches, capping concurrent file-stream openings, grounded on
// fcm.cpp's store_n vThrSz policy and kanzi's CompressedStream.go
// task-batch dispatch.
func (e *Engine) Train(refPath string) error {
	n := len(e.models)
	thr := e.p.NThreads
	if thr < 1 {
		thr = 1
	}
	vThrSz := thr
	if n < vThrSz {
		vThrSz = n
	}

	var mu sync.Mutex
	var firstErr error

	for start := 0; start < n; start += vThrSz {
		end := start + vThrSz
		if end > n {
			end = n
		}
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				e.fire(NewEvent(EvtTrainStart, idx, 0))
				n, err := e.trainModel(e.models[idx], refPath)
				e.fire(NewEvent(EvtTrainEnd, idx, n))
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
	}
	return firstErr
}

// trainModel streams ref once, updating m's context and store for every
// non-newline byte (spec.md §4.7). Each symbol increments the (k+1)-mer
// cell ProbeBase()|sym, the same cell a later forward or IR probe reads,
// and then rolls the k-symbol context. Only the forward context is rolled
// during training: the inverted-repeat reading is derived at query time
// from the same store (spec.md §4.3/§4.4), matching fcm.cpp's store_impl,
// which updates a single context regardless of a model's ir flag.
func (e *Engine) trainModel(m *modelState, refPath string) (int64, error) {
	f, err := os.Open(refPath)
	if err != nil {
		return 0, newError(ErrIO, "opening reference %q: %v", refPath, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var n int64
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, newError(ErrIO, "reading reference %q: %v", refPath, err)
		}
		sym, ok := internal.Symbol(b)
		if !ok {
			continue
		}
		m.st.Update(m.ctx.ProbeBase() | uint64(sym))
		m.ctx.Advance(sym)
		n++
	}
	return n, nil
}

// Compress streams tar exactly once and returns the average entropy in
// bits/symbol (C8). The single-model, no-STMM case takes a tight C3->C2->C4
// loop; every other configuration takes the general multi-model path that
// also drives C5 (tolerant sub-models) and C6 (mixture).
func (e *Engine) Compress(tarPath string) (float64, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return 0, newError(ErrIO, "opening target %q: %v", tarPath, err)
	}
	defer f.Close()

	e.fire(NewEvent(EvtCompressStart, -1, 0))

	var sEnt float64
	var symsNo int64
	r := bufio.NewReader(f)

	singleFast := len(e.models) == 1 && e.models[0].stmm == nil

	if singleFast {
		sEnt, symsNo, err = e.compressSingle(r, e.models[0])
	} else {
		sEnt, symsNo, err = e.compressGeneral(r)
	}
	if err != nil {
		return 0, err
	}

	e.fire(NewEvent(EvtCompressEnd, -1, symsNo))

	if symsNo == 0 {
		return 0, nil // spec.md §8 law: empty target's 0/0 convention is 0
	}
	return sEnt / float64(symsNo), nil
}

func (e *Engine) compressSingle(r *bufio.Reader, m *modelState) (float64, int64, error) {
	var sEnt float64
	var n int64
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sEnt, n, newError(ErrIO, "reading target: %v", err)
		}
		sym, ok := internal.Symbol(b)
		if !ok {
			continue
		}
		n++
		p := readModelProb(m, sym)
		sEnt += markov.Entropy(p)
		m.ctx.Advance(sym)
		if m.par.IR {
			m.ctx.AdvanceIR(sym)
		}
	}
	return sEnt, n, nil
}

func (e *Engine) compressGeneral(r *bufio.Reader) (float64, int64, error) {
	var sEnt float64
	var n int64

	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sEnt, n, newError(ErrIO, "reading target: %v", err)
		}
		sym, ok := internal.Symbol(b)
		if !ok {
			continue
		}
		n++

		slot := 0
		anyReset := false
		for _, m := range e.models {
			f := readFreqs(m)
			p := markov.Prob(f, sym, m.par.Alpha)
			e.probsBuf[slot] = p
			slot++

			if m.stmm != nil {
				childP, reset := m.stmm.Step(sym, f)
				e.probsBuf[slot] = childP
				slot++
				if reset {
					anyReset = true
				}
			}

			m.ctx.Advance(sym)
			if m.par.IR {
				m.ctx.AdvanceIR(sym)
			}
		}

		if anyReset {
			e.weighter.ResetUniform()
		}
		_, h := e.weighter.Step(e.probsBuf, nil)
		sEnt += h

		if n%4096 == 0 {
			e.fire(NewEvent(EvtCompressSymbol, -1, n))
		}
	}
	return sEnt, n, nil
}

// readModelProb computes one model's probability for sym without the
// surrounding per-model bookkeeping the general path needs (fast path
// helper).
func readModelProb(m *modelState, sym uint8) float64 {
	f := readFreqs(m)
	return markov.Prob(f, sym, m.par.Alpha)
}

// readFreqs queries m's store for the four forward children of the current
// context, combining with the IR-mirrored readings when the model has the
// inverted-repeat flag set (spec.md §4.3/§4.4).
func readFreqs(m *modelState) [4]uint64 {
	_, probesF := m.ctx.ProbesForward()
	var f [4]uint64
	for i, ctx := range probesF {
		f[i] = m.st.Query(ctx)
	}

	if !m.par.IR {
		return f
	}

	_, probesIR := m.ctx.ProbesIR()
	var fir [4]uint64
	for i, ctx := range probesIR {
		fir[i] = m.st.Query(ctx)
	}
	return markov.CombineIR(f, fir)
}
