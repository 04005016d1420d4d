//
// engine.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package clear implements a single-process reference share.Engine.
// It performs every primitive directly on the underlying ring tensor
// instead of running a secret-sharing protocol between parties: the
// share-domain tags are carried faithfully, but no cryptography or
// network round ever happens. This is the seam a real SEMI2K/ABY3/
// CHEETAH engine plugs into — see DESIGN.md for why a cryptographic
// backend is out of scope here (spec.md §1 Non-goals).
package clear

import (
	"math/big"

	"github.com/markkurossi/fxphal/ring"
	"github.com/markkurossi/fxphal/share"
)

// Engine is the reference share.Engine.
type Engine struct {
	bits int
}

// New creates a reference engine operating over a ring of the given
// bit width.
func New(bits int) *Engine {
	return &Engine{bits: bits}
}

// FieldBits implements share.Engine.
func (e *Engine) FieldBits() int {
	return e.bits
}

func resultVType(x, y share.Value) share.VType {
	if x.VType == share.Public && y.VType == share.Public {
		return share.Public
	}
	if x.VType == share.BoolShare || y.VType == share.BoolShare {
		return share.BoolShare
	}
	return share.ArithShare
}

func (e *Engine) bin(x, y share.Value, f func(a, b *ring.Tensor) (*ring.Tensor, error)) share.Value {
	t, err := f(x.Data, y.Data)
	if err != nil {
		panic(err)
	}
	return share.Value{VType: resultVType(x, y), Data: t}
}

// Add implements share.Engine.
func (e *Engine) Add(x, y share.Value) share.Value {
	return e.bin(x, y, ring.Add)
}

// Sub implements share.Engine.
func (e *Engine) Sub(x, y share.Value) share.Value {
	return e.bin(x, y, ring.Sub)
}

// Mul implements share.Engine.
func (e *Engine) Mul(x, y share.Value) share.Value {
	return e.bin(x, y, ring.Mul)
}

// MatMul implements share.Engine. The reference engine treats 2D
// tensors as row-major matrices and performs plain ring matmul.
func (e *Engine) MatMul(x, y share.Value) share.Value {
	res, err := matmul(x.Data, y.Data)
	if err != nil {
		panic(err)
	}
	return share.Value{VType: resultVType(x, y), Data: res}
}

func matmul(x, y *ring.Tensor) (*ring.Tensor, error) {
	if len(x.Shape) != 2 || len(y.Shape) != 2 || x.Shape[1] != y.Shape[0] {
		return nil, ring.ErrShapeMismatch
	}
	m, k, n := x.Shape[0], x.Shape[1], y.Shape[1]
	out := ring.New(x.Bits, []int{m, n})
	mod := new(big.Int).Lsh(big.NewInt(1), uint(x.Bits))
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			acc := new(big.Int)
			for l := 0; l < k; l++ {
				t := new(big.Int).Mul(x.Data[i*k+l], y.Data[l*n+j])
				acc.Add(acc, t)
			}
			acc.Mod(acc, mod)
			if acc.Sign() < 0 {
				acc.Add(acc, mod)
			}
			out.Data[i*n+j] = acc
		}
	}
	return out, nil
}

// Conv2D implements share.Engine: a direct (non-FFT) convolution of
// an NHWC input against a (kh,kw,cin,cout) kernel.
func (e *Engine) Conv2D(x, y share.Value, strideH, strideW int) share.Value {
	res, err := conv2d(x.Data, y.Data, strideH, strideW)
	if err != nil {
		panic(err)
	}
	return share.Value{VType: resultVType(x, y), Data: res}
}

func conv2d(x, k *ring.Tensor, strideH, strideW int) (*ring.Tensor, error) {
	if len(x.Shape) != 4 || len(k.Shape) != 4 || x.Shape[3] != k.Shape[2] {
		return nil, ring.ErrShapeMismatch
	}
	batch, ih, iw, cin := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	kh, kw, _, cout := k.Shape[0], k.Shape[1], k.Shape[2], k.Shape[3]
	oh := (ih-kh)/strideH + 1
	ow := (iw-kw)/strideW + 1
	if oh <= 0 || ow <= 0 {
		return nil, ring.ErrShapeMismatch
	}

	out := ring.New(x.Bits, []int{batch, oh, ow, cout})
	mod := new(big.Int).Lsh(big.NewInt(1), uint(x.Bits))
	for b := 0; b < batch; b++ {
		for oy := 0; oy < oh; oy++ {
			for ox := 0; ox < ow; ox++ {
				for oc := 0; oc < cout; oc++ {
					acc := new(big.Int)
					for ky := 0; ky < kh; ky++ {
						for kx := 0; kx < kw; kx++ {
							for ic := 0; ic < cin; ic++ {
								xi := ((b*ih+(oy*strideH+ky))*iw+(ox*strideW+kx))*cin + ic
								ki := ((ky*kw+kx)*cin+ic)*cout + oc
								t := new(big.Int).Mul(x.Data[xi], k.Data[ki])
								acc.Add(acc, t)
							}
						}
					}
					acc.Mod(acc, mod)
					if acc.Sign() < 0 {
						acc.Add(acc, mod)
					}
					out.Data[((b*oh+oy)*ow+ox)*cout+oc] = acc
				}
			}
		}
	}
	return out, nil
}

// Trunc implements share.Engine. bits==0 is rejected by callers
// before reaching the engine; the fxp layer always supplies the
// fractional-bit count explicitly.
func (e *Engine) Trunc(x share.Value, bits int) share.Value {
	out := ring.New(x.Data.Bits, x.Data.Shape)
	for i, a := range x.Data.Data {
		s := ring.Signed(a, x.Data.Bits)
		s.Rsh(s, uint(bits))
		out.Data[i] = out0(out, s)
	}
	return share.Value{VType: x.VType, Data: out}
}

func out0(t *ring.Tensor, v *big.Int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

// And implements share.Engine.
func (e *Engine) And(x, y share.Value) share.Value {
	return e.bin(x, y, ring.And)
}

// Or implements share.Engine.
func (e *Engine) Or(x, y share.Value) share.Value {
	return e.bin(x, y, ring.Or)
}

// Xor implements share.Engine.
func (e *Engine) Xor(x, y share.Value) share.Value {
	return e.bin(x, y, ring.Xor)
}

// Lshift implements share.Engine.
func (e *Engine) Lshift(x share.Value, bits int) share.Value {
	return share.Value{VType: x.VType, Data: ring.Lsh(x.Data, uint(bits)),
		NBits: x.NBits}
}

// Rshift implements share.Engine.
func (e *Engine) Rshift(x share.Value, bits int) share.Value {
	return share.Value{VType: x.VType, Data: ring.Rsh(x.Data, uint(bits))}
}

// Arshift implements share.Engine.
func (e *Engine) Arshift(x share.Value, bits int) share.Value {
	return share.Value{VType: x.VType, Data: ring.Arsh(x.Data, uint(bits))}
}

// BitRev implements share.Engine.
func (e *Engine) BitRev(x share.Value, start, end int) share.Value {
	return share.Value{VType: x.VType, Data: ring.BitRev(x.Data, start, end)}
}

// BitParity implements share.Engine.
func (e *Engine) BitParity(x share.Value, nbits int) share.Value {
	return share.Value{VType: x.VType, Data: ring.BitParity(x.Data, nbits),
		NBits: 1}
}

// Popcount implements share.Engine.
func (e *Engine) Popcount(x share.Value, nbits int) share.Value {
	return share.Value{VType: x.VType, Data: ring.Popcount(x.Data, nbits)}
}

// PrefixOr implements share.Engine.
func (e *Engine) PrefixOr(x share.Value, nbits int) share.Value {
	return share.Value{VType: x.VType, Data: ring.PrefixOr(x.Data, nbits)}
}

// BitDeintl implements share.Engine.
func (e *Engine) BitDeintl(x share.Value) share.Value {
	return share.Value{VType: x.VType, Data: ring.BitDeintl(x.Data)}
}

// Mux implements share.Engine: selects x when pred is non-zero, else
// y.
func (e *Engine) Mux(pred, x, y share.Value) share.Value {
	out := ring.New(x.Data.Bits, x.Data.Shape)
	n := len(out.Data)
	for i := 0; i < n; i++ {
		p := elem(pred.Data, i)
		if p.Sign() != 0 {
			out.Data[i] = new(big.Int).Set(elem(x.Data, i))
		} else {
			out.Data[i] = new(big.Int).Set(elem(y.Data, i))
		}
	}
	return share.Value{VType: resultVType(x, y), Data: out}
}

func elem(t *ring.Tensor, i int) *big.Int {
	if len(t.Data) == 1 {
		return t.Data[0]
	}
	return t.Data[i]
}

// Sign implements share.Engine: extracts the sign bit as 0/1.
func (e *Engine) Sign(x share.Value) share.Value {
	out := ring.New(x.Data.Bits, x.Data.Shape)
	for i, a := range x.Data.Data {
		out.Data[i] = big.NewInt(int64(a.Bit(x.Data.Bits - 1)))
	}
	return share.Value{VType: x.VType, Data: out}
}

// Less implements share.Engine: 1 if x < y, else 0.
func (e *Engine) Less(x, y share.Value) share.Value {
	shape := x.Data.Shape
	if len(x.Data.Data) == 1 {
		shape = y.Data.Shape
	}
	out := ring.New(x.Data.Bits, shape)
	n := len(out.Data)
	for i := 0; i < n; i++ {
		a := ring.Signed(elem(x.Data, i), x.Data.Bits)
		b := ring.Signed(elem(y.Data, i), x.Data.Bits)
		if a.Cmp(b) < 0 {
			out.Data[i] = big.NewInt(1)
		} else {
			out.Data[i] = big.NewInt(0)
		}
	}
	return share.Value{VType: resultVType(x, y), Data: out}
}

// Clamp implements share.Engine: min(max(lo, x), hi), signed.
func (e *Engine) Clamp(x, lo, hi share.Value) share.Value {
	out := ring.New(x.Data.Bits, x.Data.Shape)
	for i, a := range x.Data.Data {
		s := ring.Signed(a, x.Data.Bits)
		l := ring.Signed(elem(lo.Data, i), x.Data.Bits)
		h := ring.Signed(elem(hi.Data, i), x.Data.Bits)
		if s.Cmp(l) < 0 {
			s = l
		}
		if s.Cmp(h) > 0 {
			s = h
		}
		out.Data[i] = out0(out, s)
	}
	return share.Value{VType: x.VType, Data: out}
}

// Constant implements share.Engine.
func (e *Engine) Constant(v *big.Int, bits int, shape []int) share.Value {
	n := ring.NumElements(shape)
	t := ring.New(bits, shape)
	for i := 0; i < n; i++ {
		t.Data[i] = ring.TwosComplement(v, bits)
		t.Data[i] = out0(t, t.Data[i])
	}
	return share.Value{VType: share.Public, Data: t}
}

// PreferA implements share.Engine: the reference engine has no
// storage-format choice, so this is the identity re-tagged as
// arithmetic shared.
func (e *Engine) PreferA(x share.Value) share.Value {
	if x.VType == share.Public {
		return x
	}
	return share.Value{VType: share.ArithShare, Data: x.Data}
}

// PreferB implements share.Engine.
func (e *Engine) PreferB(x share.Value) share.Value {
	if x.VType == share.Public {
		return x
	}
	return share.Value{VType: share.BoolShare, Data: x.Data, NBits: x.NBits}
}

// A2B implements share.Engine.
func (e *Engine) A2B(x share.Value) share.Value {
	return share.Value{VType: share.BoolShare, Data: x.Data, NBits: x.Data.Bits}
}

// B2A implements share.Engine.
func (e *Engine) B2A(x share.Value) share.Value {
	return share.Value{VType: share.ArithShare, Data: x.Data}
}

// A2P implements share.Engine: reveals by re-tagging, since the
// reference engine never actually splits values into per-party
// shares.
func (e *Engine) A2P(x share.Value) share.Value {
	return share.Value{VType: share.Public, Data: x.Data}
}

// B2P implements share.Engine.
func (e *Engine) B2P(x share.Value) share.Value {
	return share.Value{VType: share.Public, Data: x.Data}
}

// Fork implements share.Engine. The reference engine is stateless
// beyond the field width, so fork just returns an equivalent handle.
func (e *Engine) Fork() share.Engine {
	return &Engine{bits: e.bits}
}

var _ share.Engine = (*Engine)(nil)
