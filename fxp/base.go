//
// base.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package fxp implements the fixed-point base (L2) and transcendental
// approximation (L3) layers: encoding of reals into ring elements with
// a fractional-bit parameter f, truncation after multiplication,
// reciprocal, Goldschmidt division, a polynomial evaluator, and the
// log/exp/tanh/sigmoid/rsqrt/sqrt approximations built on top of them.
//
// Every function here takes secret-shared fixed-point share.Value
// operands (value.Value with DType==DTFXP) and a *session.Context, and
// every multiplication of two fixed-point operands is followed by a
// truncation by f, per the invariant in spec.md §3. Multiplications by
// a raw (unscaled) integer factor, such as the +-1 sign factor in Abs
// and Reciprocal, are not truncated.
package fxp

import (
	"fmt"
	"math"
	"math/big"

	"github.com/markkurossi/fxphal/ring"
	"github.com/markkurossi/fxphal/session"
	"github.com/markkurossi/fxphal/share"
	"github.com/markkurossi/fxphal/value"
)

// Encode converts a real number r into its fixed-point ring encoding
// ⌊r·2^f⌋ mod 2^k.
func Encode(r float64, f, bits int) *big.Int {
	scaled := math.Floor(r * math.Pow(2, float64(f)))
	bi, _ := big.NewFloat(scaled).Int(nil)
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return bi.Mod(bi, mod)
}

// Decode converts a fixed-point ring encoding back to a real number.
func Decode(raw *big.Int, f, bits int) float64 {
	signed := new(big.Int).Set(raw)
	if signed.Bit(bits-1) == 1 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		signed.Sub(signed, mod)
	}
	bf := new(big.Float).SetInt(signed)
	bf.Quo(bf, big.NewFloat(math.Pow(2, float64(f))))
	out, _ := bf.Float64()
	return out
}

// Constant materializes a public fixed-point constant with the given
// shape and the field width of ctx.
func Constant(ctx *session.Context, r float64, shape []int) value.Value {
	raw := Encode(r, ctx.FxpBits(), ctx.FieldBits())
	return value.Value{
		DType: value.DTFXP,
		Share: ctx.Engine().Constant(raw, ctx.FieldBits(), shape),
	}
}

func requireFxp(op string, vs ...value.Value) {
	for _, v := range vs {
		if !v.IsFxp() {
			panic(fmt.Errorf("%w: %s requires fixed-point operands, got %v",
				value.ErrDtypeMismatch, op, v.DType))
		}
	}
}

// Add returns x+y, fixed-point.
func Add(ctx *session.Context, x, y value.Value) value.Value {
	requireFxp("fxp.Add", x, y)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Add(x.Share, y.Share)}
}

// Sub returns x-y, fixed-point.
func Sub(ctx *session.Context, x, y value.Value) value.Value {
	requireFxp("fxp.Sub", x, y)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Sub(x.Share, y.Share)}
}

// Negate returns -x, fixed-point.
func Negate(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Negate", x)
	zero := Constant(ctx, 0, x.Shape())
	return Sub(ctx, zero, x)
}

// Abs returns |x|, fixed-point.
func Abs(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Abs", x)
	s := ctx.Engine().Sign(x.Share)
	one := ctx.Engine().Constant(big.NewInt(1), ctx.FieldBits(), x.Shape())
	two := ctx.Engine().Constant(big.NewInt(2), ctx.FieldBits(), x.Shape())
	// sign 1 on negative values -> factor = 1 - 2*sign. factor is a raw
	// +-1 integer, not itself fixed-point scaled, so it combines with x
	// via the untruncated mixed int*fxp multiply.
	factor := ctx.Engine().Sub(one, ctx.Engine().Mul(two, s))
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(x.Share, factor)}
}

// Mul returns x*y truncated by f: the fixed-point multiply, per the
// invariant that truncation appears exactly once after every
// multiplication of two fixed-points (spec.md §3, invariant #2).
func Mul(ctx *session.Context, x, y value.Value) value.Value {
	requireFxp("fxp.Mul", x, y)
	raw := ctx.Engine().Mul(x.Share, y.Share)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Trunc(raw, ctx.FxpBits())}
}

// MatMul is Mul's tensor-contraction sibling.
func MatMul(ctx *session.Context, x, y value.Value) value.Value {
	requireFxp("fxp.MatMul", x, y)
	raw := ctx.Engine().MatMul(x.Share, y.Share)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Trunc(raw, ctx.FxpBits())}
}

// Square returns x*x truncated by f. Tracked separately from Mul
// because some share engines optimise squaring (spec.md §4.2).
func Square(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Square", x)
	raw := ctx.Engine().Mul(x.Share, x.Share)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Trunc(raw, ctx.FxpBits())}
}

// Polynomial evaluates Σ cᵢ·xⁱ for i=1..len(coeffs) via Horner's
// method (no constant term; the caller adds it explicitly, per
// spec.md §4.2).
func Polynomial(ctx *session.Context, x value.Value, coeffs []value.Value) value.Value {
	requireFxp("fxp.Polynomial", x)
	if len(coeffs) == 0 {
		return Constant(ctx, 0, x.Shape())
	}
	acc := coeffs[len(coeffs)-1]
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = Add(ctx, Mul(ctx, acc, x), coeffs[i])
	}
	return Mul(ctx, acc, x)
}

// HighestOneBit extracts only the top set bit of x (spec.md §4.1,
// exposed at the fxp layer since it operates on boolean-shared
// fixed-point values): prefix_or(x) xor (prefix_or(x) >> 1). Public
// operands skip the boolean circuit entirely and compute the result
// directly from the revealed ring element.
func HighestOneBit(ctx *session.Context, x value.Value) value.Value {
	if x.IsPublic() {
		return value.Value{DType: value.DTFXP, Share: share.Value{
			VType: share.Public,
			Data:  ring.HighestOneBit(x.Share.Data),
		}}
	}
	b := ctx.Engine().PreferB(ctx.Engine().A2B(x.Share))
	bits := ctx.FieldBits()
	prefix := ctx.Engine().PrefixOr(b, bits)
	msb := ctx.Engine().Xor(prefix, ctx.Engine().Rshift(prefix, 1))
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().PreferB(msb)}
}

// hintNumberOfBits is a documentation-only no-op in this
// implementation: the reference engine never uses the NBits hint to
// shorten circuits, but the fxp algorithms still set it so a real
// engine plugged in behind share.Engine can.
func hintNumberOfBits(v *share.Value, nbits int) {
	v.NBits = nbits
}

// DivGoldschmidt computes p/q for fixed-point p, q with q>0 (the
// caller normalises sign), via Goldschmidt iteration (spec.md §4.2).
func DivGoldschmidt(ctx *session.Context, p, q value.Value) value.Value {
	requireFxp("fxp.DivGoldschmidt", p, q)
	f := ctx.FxpBits()

	// find e such that q * 2^e in [0.5, 1): e = f - bitlen(q).
	msb := HighestOneBit(ctx, q)
	factorShare := ctx.Engine().BitRev(ctx.Engine().A2B(msb.Share), 0, 2*f)
	hintNumberOfBits(&factorShare, 2*f)
	factor := value.Value{DType: value.DTFXP, Share: ctx.Engine().PreferA(factorShare)}

	pPrime := Mul(ctx, p, factor)
	qPrime := Mul(ctx, q, factor)

	// Linear initial approximation w0 = 2.9142 - 2*q' of 1/q' on
	// [0.5, 1), so the iterations below start with |1-q'| < 0.09.
	w0 := Sub(ctx, Constant(ctx, 2.9142, p.Shape()), Add(ctx, qPrime, qPrime))
	pPrime = Mul(ctx, pPrime, w0)
	qPrime = Mul(ctx, qPrime, w0)

	iters := ctx.Config().GoldschmidtIters
	two := Constant(ctx, 2.0, p.Shape())
	for i := 0; i < iters; i++ {
		w := Sub(ctx, two, qPrime)
		pPrime = Mul(ctx, pPrime, w)
		qPrime = Mul(ctx, qPrime, w)
	}
	return pPrime
}

// Div is the polymorphic fixed-point division entry point (`f_div` in
// the original): direct Goldschmidt on x/y.
func Div(ctx *session.Context, x, y value.Value) value.Value {
	requireFxp("fxp.Div", x, y)
	return DivGoldschmidt(ctx, x, y)
}

// Floor returns the largest integer not greater than x, still encoded
// as fixed-point: masking off the fractional bits via an arithmetic
// shift is floor division by 2^f for two's-complement values.
func Floor(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Floor", x)
	f := ctx.FxpBits()
	whole := ctx.Engine().Arshift(x.Share, f)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Lshift(whole, f)}
}

// Ceil returns the smallest integer not less than x: -floor(-x).
func Ceil(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Ceil", x)
	return Negate(ctx, Floor(ctx, Negate(ctx, x)))
}

// Reciprocal computes 1/q, handling negative q by extracting the sign
// and re-applying it (spec.md §4.2). The sign factor is a raw +-1
// integer, so it combines with q (and later with r) via the
// untruncated mixed int*fxp multiply, not the truncating fxp.Mul.
func Reciprocal(ctx *session.Context, q value.Value) value.Value {
	requireFxp("fxp.Reciprocal", q)
	s := ctx.Engine().Sign(q.Share)
	one := ctx.Engine().Constant(big.NewInt(1), ctx.FieldBits(), q.Shape())
	two := ctx.Engine().Constant(big.NewInt(2), ctx.FieldBits(), q.Shape())
	sign := ctx.Engine().Sub(one, ctx.Engine().Mul(two, s))
	absQ := value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(q.Share, sign)}
	oneF := Constant(ctx, 1.0, q.Shape())
	r := DivGoldschmidt(ctx, oneF, absQ)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(r.Share, sign)}
}
