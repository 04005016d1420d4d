//
// value.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package value defines the core Value type threaded through the
// fixed-point and dispatch layers: a tensor of ring elements tagged
// with its semantic dtype and its share domain (spec.md §3).
package value

import (
	"fmt"

	"github.com/markkurossi/fxphal/share"
)

// DType is the semantic interpretation of a Value's storage.
type DType int

// Recognised dtypes.
const (
	DTI8 DType = iota
	DTI16
	DTI32
	DTI64
	DTFXP
)

func (d DType) String() string {
	switch d {
	case DTI8:
		return "i8"
	case DTI16:
		return "i16"
	case DTI32:
		return "i32"
	case DTI64:
		return "i64"
	case DTFXP:
		return "fxp"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// IsInt reports whether d is one of the integer variants.
func (d DType) IsInt() bool {
	return d != DTFXP
}

// Bits returns the integer width in bits, or 0 for DTFXP (fixed-point
// width is the field's ring width, not a dtype property).
func (d DType) Bits() int {
	switch d {
	case DTI8:
		return 8
	case DTI16:
		return 16
	case DTI32:
		return 32
	case DTI64:
		return 64
	default:
		return 0
	}
}

// Promote returns the promoted dtype of two operands per spec.md §3
// invariant #5: fixed-point dominates; otherwise the wider integer.
func Promote(a, b DType) DType {
	if a == DTFXP || b == DTFXP {
		return DTFXP
	}
	if a.Bits() >= b.Bits() {
		return a
	}
	return b
}

// Value is a tensor of ring elements plus its dtype and share domain
// (spec.md §3). It is immutable once constructed by a kernel.
type Value struct {
	DType DType
	Share share.Value
}

// VType returns the share domain.
func (v Value) VType() share.VType {
	return v.Share.VType
}

// Shape returns the tensor shape.
func (v Value) Shape() []int {
	return v.Share.Shape()
}

// IsFxp reports whether v is fixed-point.
func (v Value) IsFxp() bool {
	return v.DType == DTFXP
}

// IsInt reports whether v is an integer variant.
func (v Value) IsInt() bool {
	return v.DType.IsInt()
}

// IsPublic reports whether v is in the public share domain.
func (v Value) IsPublic() bool {
	return v.Share.IsPublic()
}

// WithDType returns a copy of v retagged with dtype, reinterpreting
// the storage in place (hal.BitCast's building block).
func (v Value) WithDType(dtype DType) Value {
	return Value{DType: dtype, Share: v.Share}
}

func (v Value) String() string {
	return fmt.Sprintf("Value{dtype=%v, vtype=%v, shape=%v}", v.DType,
		v.Share.VType, v.Shape())
}

// ErrDtypeMismatch is the sentinel for unsupported dtype combinations
// (spec.md §7, "Dtype mismatch").
var ErrDtypeMismatch = fmt.Errorf("value: dtype mismatch")
