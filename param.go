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
	"strconv"
	"strings"

	"github.com/pratas/smashpp/store"
	"github.com/pratas/smashpp/tolerant"
)

// MMPar holds one finite-context model's static parameters (spec.md §3).
type MMPar struct {
	IR    bool
	K     uint8
	Alpha float64
	Gamma float64

	WLog2 uint8 // sketch-only: width = 2^WLog2
	D     uint8 // sketch-only: depth

	Cont  store.Variant
	Child *tolerant.Par
}

// Param is the fully-parsed model configuration (spec C9): the declared
// model order plus the RNG seed and thread count used by the trainer.
type Param struct {
	Models   []MMPar
	Seed     uint64
	NThreads int
}

// Parse builds a Param from a model-spec DSL string of the form
// "M1:M2:...", each Mi being "MM[/TM]" (spec.md §4.9/§6). The separator
// between models is a single ':', matching fcm.cpp::config's
// split(...,':',mdls) over spec.md's self-contradictory "::" EBNF literal.
func Parse(spec string, seed uint64, nThreads int) (Param, error) {
	p := Param{Seed: seed, NThreads: nThreads}
	if strings.TrimSpace(spec) == "" {
		return p, newError(ErrConfig, "empty model spec")
	}

	for _, e := range strings.Split(spec, ":") {
		if e == "" {
			return p, newError(ErrConfig, "empty model entry in spec %q", spec)
		}
		mmTm := strings.SplitN(e, "/", 2)
		mm, err := parseMM(mmTm[0])
		if err != nil {
			return p, err
		}
		if len(mmTm) == 2 {
			child, err := parseTM(mmTm[1], mm.K)
			if err != nil {
				return p, err
			}
			mm.Child = &child
		}
		mm.Cont = store.VariantForOrder(mm.K)
		p.Models = append(p.Models, mm)
	}
	return p, nil
}

// parseMM parses one model's comma-separated fields. A 4-field tuple is
// ir,k,alpha,gamma (exact variant); a 6-field tuple is
// ir,w_log2,d,k,alpha,gamma (sketch variant). Field order and the leading
// ir are grounded directly on fcm.cpp::config's MMPar construction, not on
// spec.md's EBNF (which omits ir from the 3-field exact-variant
// production).
func parseMM(s string) (MMPar, error) {
	f := strings.Split(s, ",")
	switch len(f) {
	case 4:
		ir, err := parseBoolField(f[0])
		if err != nil {
			return MMPar{}, err
		}
		k, err := parseUint8Field(f[1])
		if err != nil {
			return MMPar{}, err
		}
		alpha, err := parseFloatField(f[2])
		if err != nil {
			return MMPar{}, err
		}
		gamma, err := parseFloatField(f[3])
		if err != nil {
			return MMPar{}, err
		}
		if err := validateMM(k, alpha, gamma); err != nil {
			return MMPar{}, err
		}
		return MMPar{IR: ir, K: k, Alpha: alpha, Gamma: gamma}, nil

	case 6:
		ir, err := parseBoolField(f[0])
		if err != nil {
			return MMPar{}, err
		}
		wLog2, err := parseUint8Field(f[1])
		if err != nil {
			return MMPar{}, err
		}
		d, err := parseUint8Field(f[2])
		if err != nil {
			return MMPar{}, err
		}
		k, err := parseUint8Field(f[3])
		if err != nil {
			return MMPar{}, err
		}
		alpha, err := parseFloatField(f[4])
		if err != nil {
			return MMPar{}, err
		}
		gamma, err := parseFloatField(f[5])
		if err != nil {
			return MMPar{}, err
		}
		if err := validateMM(k, alpha, gamma); err != nil {
			return MMPar{}, err
		}
		if d == 0 {
			return MMPar{}, newError(ErrConfig, "sketch depth must be positive, got %q", s)
		}
		return MMPar{IR: ir, K: k, Alpha: alpha, Gamma: gamma, WLog2: wLog2, D: d}, nil

	default:
		return MMPar{}, newError(ErrConfig, "model field %q: expected 4 or 6 comma-separated fields, got %d", s, len(f))
	}
}

// parseTM parses the optional tolerant sub-model suffix, k_tol,thresh,
// alpha_tol,gamma_tol (spec.md §4.9). parentK is used when k_tol is left
// implicit by a 3-field suffix, matching fcm.cpp's always-reuse-parent's-k
// behavior.
func parseTM(s string, parentK uint8) (tolerant.Par, error) {
	f := strings.Split(s, ",")

	var kTolStr, threshStr, alphaStr, gammaStr string
	switch len(f) {
	case 4:
		kTolStr, threshStr, alphaStr, gammaStr = f[0], f[1], f[2], f[3]
	case 3:
		threshStr, alphaStr, gammaStr = f[0], f[1], f[2]
	default:
		return tolerant.Par{}, newError(ErrConfig, "tolerant model field %q: expected 3 or 4 comma-separated fields, got %d", s, len(f))
	}

	kTol := parentK
	if kTolStr != "" {
		v, err := parseUint8Field(kTolStr)
		if err != nil {
			return tolerant.Par{}, err
		}
		kTol = v
	}
	thresh, err := parseUint8Field(threshStr)
	if err != nil {
		return tolerant.Par{}, err
	}
	alphaTol, err := parseFloatField(alphaStr)
	if err != nil {
		return tolerant.Par{}, err
	}
	gammaTol, err := parseFloatField(gammaStr)
	if err != nil {
		return tolerant.Par{}, err
	}
	if alphaTol <= 0 || alphaTol > 1 {
		return tolerant.Par{}, newError(ErrConfig, "alpha_tol out of (0,1]: %v", alphaTol)
	}
	if gammaTol < 0 || gammaTol > 1 {
		return tolerant.Par{}, newError(ErrConfig, "gamma_tol out of [0,1]: %v", gammaTol)
	}
	return tolerant.Par{KTol: kTol, Thresh: thresh, AlphaTol: alphaTol, GammaTol: gammaTol}, nil
}

func validateMM(k uint8, alpha, gamma float64) error {
	if k < 1 || k > 28 {
		return newError(ErrConfig, "k out of [1,28]: %d", k)
	}
	if alpha <= 0 || alpha > 1 {
		return newError(ErrConfig, "alpha out of (0,1]: %v", alpha)
	}
	if gamma < 0 || gamma > 1 {
		return newError(ErrConfig, "gamma out of [0,1]: %v", gamma)
	}
	return nil
}

func parseBoolField(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, newError(ErrConfig, "ir flag must be 0 or 1, got %q", s)
	}
}

func parseUint8Field(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, newError(ErrConfig, "invalid integer field %q: %v", s, err)
	}
	return uint8(v), nil
}

func parseFloatField(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newError(ErrConfig, "invalid float field %q: %v", s, err)
	}
	return v, nil
}
