//
// tensor.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ring implements element-wise arithmetic and logical
// operations on public mod-2^k tensors (the L0 ring primitives layer).
// Every operation here is plaintext: it never touches a share engine
// and is safe to call on revealed or never-shared values.
package ring

import (
	"fmt"
	"math/big"
)

// Tensor is a flat, row-major tensor of ring-2^Bits elements.
type Tensor struct {
	// Bits is k: elements live in [0, 2^Bits).
	Bits int

	// Shape holds the multidimensional extents. A scalar has an empty
	// shape and exactly one element.
	Shape []int

	// Data holds the flat element storage, normalized into [0, 2^Bits)
	// after every operation.
	Data []*big.Int
}

// NumElements returns the number of elements implied by shape.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if len(shape) == 0 {
		return 1
	}
	return n
}

// New creates a zero-valued tensor with the given bit width and shape.
func New(bits int, shape []int) *Tensor {
	n := NumElements(shape)
	data := make([]*big.Int, n)
	for i := range data {
		data[i] = new(big.Int)
	}
	return &Tensor{
		Bits:  bits,
		Shape: append([]int(nil), shape...),
		Data:  data,
	}
}

// Scalar creates a one-element tensor holding v.
func Scalar(bits int, v *big.Int) *Tensor {
	t := New(bits, nil)
	t.Data[0] = t.mask(v)
	return t
}

// FromInt64 creates a scalar tensor from an int64, preserving sign via
// two's complement within Bits.
func FromInt64(bits int, v int64) *Tensor {
	bi := big.NewInt(v)
	if v < 0 {
		bi = TwosComplement(bi, bits)
	}
	return Scalar(bits, bi)
}

// TwosComplement returns the Bits-wide two's complement encoding of a
// (possibly negative) big.Int.
func TwosComplement(v *big.Int, bits int) *big.Int {
	if v.Sign() >= 0 {
		return new(big.Int).Set(v)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return new(big.Int).Add(mod, v)
}

// Signed interprets x as a two's-complement signed value within bits,
// returning a (possibly negative) big.Int. Grounded on
// compiler/mpa.Int's signed() helper in the teacher.
func Signed(x *big.Int, bits int) *big.Int {
	r := new(big.Int).Set(x)
	if bits > 0 && r.Bit(bits-1) == 1 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		r.Sub(r, mod)
	}
	return r
}

func (t *Tensor) mask(v *big.Int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

// Clone returns a deep copy of t.
func (t *Tensor) Clone() *Tensor {
	data := make([]*big.Int, len(t.Data))
	for i, v := range t.Data {
		data[i] = new(big.Int).Set(v)
	}
	return &Tensor{
		Bits:  t.Bits,
		Shape: append([]int(nil), t.Shape...),
		Data:  data,
	}
}

// shapeEqual reports whether a and b have the same shape.
func shapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// broadcastShape returns the common shape of x and y, per invariant
// #4 in spec.md §3: shapes must match, except a scalar operand
// broadcasts against any shape.
func broadcastShape(x, y *Tensor) ([]int, error) {
	if shapeEqual(x.Shape, y.Shape) {
		return x.Shape, nil
	}
	if len(x.Data) == 1 {
		return y.Shape, nil
	}
	if len(y.Data) == 1 {
		return x.Shape, nil
	}
	return nil, fmt.Errorf("%w: x.shape=%v, y.shape=%v", ErrShapeMismatch,
		x.Shape, y.Shape)
}

// ErrShapeMismatch is the sentinel for non-broadcastable binary
// operations (spec.md §7, "Shape mismatch").
var ErrShapeMismatch = fmt.Errorf("ring: shape mismatch")

func elementAt(t *Tensor, n, i int) *big.Int {
	if len(t.Data) == 1 {
		return t.Data[0]
	}
	_ = n
	return t.Data[i]
}

func binOp(x, y *Tensor, f func(z, a, b *big.Int)) (*Tensor, error) {
	shape, err := broadcastShape(x, y)
	if err != nil {
		return nil, err
	}
	bits := x.Bits
	n := NumElements(shape)
	out := New(bits, shape)
	for i := 0; i < n; i++ {
		a := elementAt(x, n, i)
		b := elementAt(y, n, i)
		f(out.Data[i], a, b)
		out.Data[i] = out.mask(out.Data[i])
	}
	return out, nil
}

func unOp(x *Tensor, f func(z, a *big.Int)) *Tensor {
	out := New(x.Bits, x.Shape)
	for i, a := range x.Data {
		f(out.Data[i], a)
		out.Data[i] = out.mask(out.Data[i])
	}
	return out
}

// Add returns x+y mod 2^k, element-wise.
func Add(x, y *Tensor) (*Tensor, error) {
	return binOp(x, y, func(z, a, b *big.Int) { z.Add(a, b) })
}

// Sub returns x-y mod 2^k, element-wise.
func Sub(x, y *Tensor) (*Tensor, error) {
	return binOp(x, y, func(z, a, b *big.Int) { z.Sub(a, b) })
}

// Mul returns x*y mod 2^k, element-wise.
func Mul(x, y *Tensor) (*Tensor, error) {
	return binOp(x, y, func(z, a, b *big.Int) { z.Mul(a, b) })
}

// Negate returns -x mod 2^k, element-wise.
func Negate(x *Tensor) *Tensor {
	return unOp(x, func(z, a *big.Int) { z.Neg(a) })
}

// Neg negates x in place and returns it.
func Neg(x *Tensor) *Tensor {
	for i, a := range x.Data {
		x.Data[i] = x.mask(new(big.Int).Neg(a))
	}
	return x
}

// And returns x&y, element-wise.
func And(x, y *Tensor) (*Tensor, error) {
	return binOp(x, y, func(z, a, b *big.Int) { z.And(a, b) })
}

// Or returns x|y, element-wise.
func Or(x, y *Tensor) (*Tensor, error) {
	return binOp(x, y, func(z, a, b *big.Int) { z.Or(a, b) })
}

// Xor returns x^y, element-wise.
func Xor(x, y *Tensor) (*Tensor, error) {
	return binOp(x, y, func(z, a, b *big.Int) { z.Xor(a, b) })
}

// Not returns the bit-complement of x within Bits, element-wise.
func Not(x *Tensor) *Tensor {
	ones := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(x.Bits)),
		big.NewInt(1))
	return unOp(x, func(z, a *big.Int) { z.Xor(a, ones) })
}

// Lsh returns x<<n (logical left shift), element-wise. n must be less
// than k.
func Lsh(x *Tensor, n uint) *Tensor {
	return unOp(x, func(z, a *big.Int) { z.Lsh(a, n) })
}

// Rsh returns x>>n (logical right shift, zero-filling), element-wise.
// n must be less than k.
func Rsh(x *Tensor, n uint) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		// a is already normalized into [0, 2^Bits), so a plain Rsh is
		// logical here: there is no sign to preserve.
		z.Rsh(a, n)
	})
}

// Arsh returns x>>n (arithmetic, sign-extending right shift),
// element-wise. n must be less than k.
func Arsh(x *Tensor, n uint) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		s := Signed(a, x.Bits)
		s.Rsh(s, n)
		z.Set(s)
	})
}

// BitRev reverses the bit range [start, end) of x, element-wise.
func BitRev(x *Tensor, start, end int) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		z.Set(a)
		lo, hi := start, end-1
		for lo < hi {
			bl := z.Bit(lo)
			bh := z.Bit(hi)
			z.SetBit(z, lo, bh)
			z.SetBit(z, hi, bl)
			lo++
			hi--
		}
	})
}

// BitParity XOR-reduces the low nbits bits of x, element-wise,
// producing a 0/1 result.
func BitParity(x *Tensor, nbits int) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		var p uint
		for i := 0; i < nbits; i++ {
			p ^= a.Bit(i)
		}
		z.SetUint64(uint64(p))
	})
}

// Popcount counts the set bits among the low nbits bits of x,
// element-wise.
func Popcount(x *Tensor, nbits int) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		var c uint64
		for i := 0; i < nbits; i++ {
			c += uint64(a.Bit(i))
		}
		z.SetUint64(c)
	})
}

// PrefixOr sets bit i of the result to the OR of bits i..nbits-1 of x,
// element-wise: every bit at or below x's highest set bit is 1, every
// bit above it is 0.
func PrefixOr(x *Tensor, nbits int) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		z.SetUint64(0)
		var seen uint
		for i := nbits - 1; i >= 0; i-- {
			seen |= a.Bit(i)
			z.SetBit(z, i, seen)
		}
	})
}

// HighestOneBit extracts only the top set bit of x, element-wise: the
// result has a single 1 bit at the position of x's most significant
// set bit, or is zero if x is zero.
func HighestOneBit(x *Tensor) *Tensor {
	return unOp(x, func(z, a *big.Int) {
		z.SetUint64(0)
		bl := a.BitLen()
		if bl == 0 {
			return
		}
		z.SetBit(z, bl-1, 1)
	})
}

// BitDeintl de-interleaves the even and odd bit positions of x into
// the low and high halves of the result word, element-wise: result
// bit i holds x's bit 2i for i < Bits/2, and result bit Bits/2+i holds
// x's bit 2i+1.
func BitDeintl(x *Tensor) *Tensor {
	half := x.Bits / 2
	return unOp(x, func(z, a *big.Int) {
		z.SetUint64(0)
		for i := 0; i < half; i++ {
			z.SetBit(z, i, a.Bit(2*i))
			z.SetBit(z, half+i, a.Bit(2*i+1))
		}
	})
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor{bits=%d, shape=%v, data=%v}", t.Bits, t.Shape,
		t.Data)
}
