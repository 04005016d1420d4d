//
// share.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package share defines the L1 share-engine contract the HAL consumes.
// The engine itself — a semi-honest 2-party protocol, an
// honest-majority 3-party protocol, or a homomorphic-encryption
// assisted multiplier — is an external collaborator (spec.md §1, §6):
// this package only fixes the interface the fixed-point and dispatch
// layers call through.
package share

import (
	"math/big"

	"github.com/markkurossi/fxphal/ring"
)

// VType is the share domain a Value lives in.
type VType int

// Recognised share domains.
const (
	// Public values may be revealed to anyone without a protocol
	// round; operations on two public values short-circuit to
	// plaintext math (spec.md §3, invariant #6).
	Public VType = iota

	// ArithShare holds an additive share over the ring.
	ArithShare

	// BoolShare holds an XOR share over the bit-vector.
	BoolShare
)

func (v VType) String() string {
	switch v {
	case Public:
		return "public"
	case ArithShare:
		return "secret-arithmetic"
	case BoolShare:
		return "secret-boolean"
	default:
		return "unknown"
	}
}

// Value is a share-domain-tagged ring tensor: the unit the L1 engine
// operates on. It carries no dtype — that semantic layer is owned by
// value.Value, which wraps a share.Value per invariant in spec.md §3.
type Value struct {
	VType VType
	Data  *ring.Tensor

	// NBits is the boolean-shared bit-width hint (spec.md §3,
	// invariant #3): operations may exploit it to shorten circuits, or
	// must conservatively widen it when unknown.
	NBits int
}

// Shape returns the value's tensor shape.
func (v Value) Shape() []int {
	return v.Data.Shape
}

// IsPublic reports whether v is in the public domain.
func (v Value) IsPublic() bool {
	return v.VType == Public
}

// Engine is the L1 share-engine capability set: primitive ring-level
// operations on secret shares, domain conversions, and a fork
// primitive producing an independent correlated-randomness stream
// (spec.md §4.5, §6). Every method name below is the exported
// counterpart of the spec's underscore-prefixed primitive (e.g. Add
// is `_add`, Trunc is `_trunc`).
//
// A concrete Engine is a full secure-computation protocol
// implementation; this repository ships only a single-process
// reference backend (see engine/clear) that a real SEMI2K/ABY3/CHEETAH
// engine would replace without any change to the HAL above it.
type Engine interface {
	// Add is `_add`: element-wise addition, any combination of share
	// domains.
	Add(x, y Value) Value
	// Sub is `_sub`.
	Sub(x, y Value) Value
	// Mul is `_mul`: raw ring multiplication, caller truncates.
	Mul(x, y Value) Value
	// MatMul is `_mmul`.
	MatMul(x, y Value) Value
	// Conv2D is `_conv2d`: 2D convolution of an NHWC tensor x against a
	// (kh,kw,cin,cout) kernel y with the given strides, raw (caller
	// truncates for fixed-point operands).
	Conv2D(x, y Value, strideH, strideW int) Value
	// Trunc is `_trunc`: protocol-safe division by 2^bits, rescaling
	// after a fixed-point multiply. bits is always supplied explicitly
	// by the caller; the engine has no fractional-bit default of its
	// own.
	Trunc(x Value, bits int) Value

	// And is `_and`.
	And(x, y Value) Value
	// Or is `_or`.
	Or(x, y Value) Value
	// Xor is `_xor`.
	Xor(x, y Value) Value

	// Lshift is `_lshift`.
	Lshift(x Value, bits int) Value
	// Rshift is `_rshift` (logical).
	Rshift(x Value, bits int) Value
	// Arshift is `_arshift` (sign-extending).
	Arshift(x Value, bits int) Value

	// BitRev is `_bitrev`.
	BitRev(x Value, start, end int) Value
	// BitParity is `_bit_parity`.
	BitParity(x Value, nbits int) Value
	// Popcount is `_popcount`.
	Popcount(x Value, nbits int) Value
	// PrefixOr is `_prefix_or`.
	PrefixOr(x Value, nbits int) Value
	// BitDeintl de-interleaves even/odd bit positions; used by rsqrt's
	// compensation phase.
	BitDeintl(x Value) Value

	// Mux is `_mux`: multiplexer, selects x when pred is non-zero, else
	// y.
	Mux(pred, x, y Value) Value
	// Sign is `_sign`: extracts the sign bit as 0/1.
	Sign(x Value) Value
	// Less is `_less`: 1 if x < y else 0.
	Less(x, y Value) Value
	// Clamp is `_clamp`.
	Clamp(x, lo, hi Value) Value

	// Constant is `_constant`: materializes a public constant tensor
	// in the share domain shape expected by downstream ops.
	Constant(v *big.Int, bits int, shape []int) Value

	// PreferA is `_prefer_a`: hints the engine to keep x arithmetic
	// shared if it has a choice.
	PreferA(x Value) Value
	// PreferB is `_prefer_b`: hints the engine to keep x boolean
	// shared if it has a choice.
	PreferB(x Value) Value

	// A2B converts an arithmetic share to a boolean share.
	A2B(x Value) Value
	// B2A converts a boolean share to an arithmetic share.
	B2A(x Value) Value
	// A2P reveals an arithmetic or boolean share to all parties.
	A2P(x Value) Value
	// B2P reveals a boolean share to all parties.
	B2P(x Value) Value

	// Fork returns an independent engine handle that shares immutable
	// configuration but owns fresh correlated-randomness counters, for
	// use by a concurrent sub-operation (spec.md §4.5, §5).
	Fork() Engine

	// FieldBits returns the ring bit width k this engine operates
	// over.
	FieldBits() int
}
