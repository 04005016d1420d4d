//
// approx.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package fxp

import (
	"fmt"
	"math"
	"math/big"

	"github.com/markkurossi/fxphal/config"
	"github.com/markkurossi/fxphal/session"
	"github.com/markkurossi/fxphal/value"
)

func c(ctx *session.Context, r float64, x value.Value) value.Value {
	return Constant(ctx, r, x.Shape())
}

// log2PadeApproxForNormalized evaluates the Padé ratio p(x)/q(x) for
// x in [0.5, 1), per the coefficients in spec.md §4.3, citing Aly &
// Vercauteren.
func log2PadeApproxForNormalized(ctx *session.Context, x value.Value) value.Value {
	p0 := c(ctx, -2.05466671951, x)
	p1 := c(ctx, -8.8626599391, x)
	p2 := c(ctx, 6.10585199015, x)
	p3 := c(ctx, 4.81147460989, x)

	q0 := c(ctx, 0.353553425277, x)
	q1 := c(ctx, 4.54517087629, x)
	q2 := c(ctx, 6.42784209029, x)
	q3 := c(ctx, 1.0, x)

	p := Add(ctx, Polynomial(ctx, x, []value.Value{p1, p2, p3}), p0)
	q := Add(ctx, Polynomial(ctx, x, []value.Value{q1, q2, q3}), q0)
	return DivGoldschmidt(ctx, p, q)
}

// log2PadeApprox implements Log2's normalise-then-evaluate-then-combine
// pipeline (spec.md §4.3).
func log2PadeApprox(ctx *session.Context, x value.Value) value.Value {
	f := ctx.FxpBits()
	bits := ctx.FieldBits()

	xb := ctx.Engine().A2B(x.Share)
	k := ctx.Engine().PreferA(ctx.Engine().Popcount(ctx.Engine().PrefixOr(xb, bits), bits))

	msb := HighestOneBit(ctx, x)
	factorShare := ctx.Engine().BitRev(ctx.Engine().A2B(msb.Share), 0, 2*f)
	hintNumberOfBits(&factorShare, 2*f)
	factor := value.Value{DType: value.DTFXP, Share: ctx.Engine().PreferA(factorShare)}

	norm := Mul(ctx, x, factor)

	fConst := ctx.Engine().Constant(big.NewInt(int64(f)), bits, x.Shape())
	diff := ctx.Engine().Sub(k, fConst)
	shifted := ctx.Engine().Lshift(diff, f)

	return Add(ctx, log2PadeApproxForNormalized(ctx, norm),
		value.Value{DType: value.DTFXP, Share: shifted})
}

// Log2 returns log₂(x), fixed-point.
func Log2(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Log2", x)
	return log2PadeApprox(ctx, x)
}

// logHouseholderApprox approximates the natural logarithm using 8th
// order modified Householder iterations (spec.md §4.3, citing
// CrypTen). Accurate within 2% relative error on [10⁻⁴, 250].
func logHouseholderApprox(ctx *session.Context, x value.Value) value.Value {
	term1 := DivGoldschmidt(ctx, x, c(ctx, 120.0, x))
	twoX1 := Add(ctx, Mul(ctx, x, c(ctx, 2.0, x)), c(ctx, 1.0, x))
	term2 := Mul(ctx, Exp(ctx, Negate(ctx, twoX1)), c(ctx, 20.0, x))
	y := Add(ctx, Sub(ctx, term1, term2), c(ctx, 3.0, x))

	orders := ctx.Config().FxpLogOrders
	coeffs := make([]value.Value, orders)
	for i := 0; i < orders; i++ {
		coeffs[i] = c(ctx, 1.0/float64(1+i), x)
	}

	iters := ctx.Config().FxpLogIters
	for i := 0; i < iters; i++ {
		h := Sub(ctx, c(ctx, 1.0, x), Mul(ctx, x, Exp(ctx, Negate(ctx, y))))
		y = Sub(ctx, y, Polynomial(ctx, h, coeffs))
	}
	return y
}

// Log returns the natural logarithm of x, fixed-point, per the
// configured approximation mode (spec.md §4.3).
func Log(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Log", x)
	switch ctx.Config().FxpLogMode {
	case config.LOGDefault, config.LOGPade:
		return Mul(ctx, c(ctx, math.Ln2, x), Log2(ctx, x))
	case config.LOGNewton:
		return logHouseholderApprox(ctx, x)
	default:
		panic(fmt.Errorf("%w: unexpected log approximation mode %v",
			config.ErrInvalidConfig, ctx.Config().FxpLogMode))
	}
}

// Log1p returns log(1+x), fixed-point.
func Log1p(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Log1p", x)
	return Log(ctx, Add(ctx, c(ctx, 1.0, x), x))
}

// exp2PadeApproxForPositivePureDecimal evaluates the quintic Padé
// approximation of exp2 on [0, 1] (spec.md §4.3).
func exp2PadeApproxForPositivePureDecimal(ctx *session.Context, x value.Value) value.Value {
	x2 := Mul(ctx, x, x)
	x3 := Mul(ctx, x, x2)
	x4 := Mul(ctx, x, x3)
	x5 := Mul(ctx, x, x4)

	p0 := c(ctx, 1.00000007744302, x)
	p1 := c(ctx, 0.693147180426163, x)
	p2 := c(ctx, 0.240226510710170, x)
	p3 := c(ctx, 0.0555040686204663, x)
	p4 := c(ctx, 0.00961834122588046, x)
	p5 := c(ctx, 0.00133273035928143, x)

	res := Mul(ctx, x, p1)
	res = Add(ctx, res, Mul(ctx, x2, p2))
	res = Add(ctx, res, Mul(ctx, x3, p3))
	res = Add(ctx, res, Mul(ctx, x4, p4))
	res = Add(ctx, res, Mul(ctx, x5, p5))
	return Add(ctx, res, p0)
}

// exp2PadeApprox decomposes x into sign, 5-bit integer part, and
// fractional part, then recombines per-bit with a multiplexed
// squaring ladder (spec.md §4.3). The valid integer range is 5 bits;
// outside this range, only the low 5 bits of the integer part are
// consumed, so the integer part is taken modulo 32 and the result
// wraps. The result does not saturate and no error is raised
// (open question §9(a)).
func exp2PadeApprox(ctx *session.Context, x value.Value) value.Value {
	f := ctx.FxpBits()
	bits := ctx.FieldBits()
	const intBits = 5

	k1 := ctx.Engine().Constant(big.NewInt(1), bits, x.Shape())

	xBShare := ctx.Engine().PreferB(x.Share)
	xMSB := ctx.Engine().Rshift(xBShare, bits-1)
	xInteger := ctx.Engine().Rshift(xBShare, f)
	xFraction := value.Value{DType: value.DTFXP,
		Share: ctx.Engine().Sub(x.Share, ctx.Engine().Lshift(xInteger, f))}

	ret := exp2PadeApproxForPositivePureDecimal(ctx, xFraction)

	for idx := 0; idx < intBits; idx++ {
		a := ctx.Engine().And(ctx.Engine().Rshift(xInteger, idx), k1)
		hintNumberOfBits(&a, 1)
		a = ctx.Engine().PreferA(a)

		shiftAmt := 1 << idx
		if shiftAmt > bits-2 {
			shiftAmt = bits - 2
		}
		k := new(big.Int).Lsh(big.NewInt(1), uint(shiftAmt))

		kConst := ctx.Engine().Constant(k, bits, x.Shape())
		mulByK := ctx.Engine().Add(ctx.Engine().Mul(a, kConst),
			ctx.Engine().Sub(k1, a))
		ret = value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(ret.Share, mulByK)}
	}

	retReciprocal := value.Value{DType: value.DTFXP,
		Share: ctx.Engine().Trunc(ret.Share, 1<<intBits)}

	xMSBFxp := value.Value{DType: value.DTFXP, Share: xMSB}
	diff := Sub(ctx, retReciprocal, ret)
	adj := value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(xMSBFxp.Share, diff.Share)}
	return Add(ctx, ret, adj)
}

// Exp2 returns 2^x, fixed-point. Valid for x whose integer part fits
// in 5 bits (spec.md §4.3).
func Exp2(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Exp2", x)
	return exp2PadeApprox(ctx, x)
}

// expTaylorSeries approximates e^x via the identity e^x = lim (1 +
// x/n)^n, pre-truncating x by fxp_exp_iters bits and squaring that
// many times (spec.md §4.3, citing CrypTen).
func expTaylorSeries(ctx *session.Context, x value.Value) value.Value {
	iters := ctx.Config().FxpExpIters
	pre := value.Value{DType: value.DTFXP, Share: ctx.Engine().Trunc(x.Share, iters)}
	res := Add(ctx, pre, c(ctx, 1.0, x))
	for i := 0; i < iters; i++ {
		res = Square(ctx, res)
	}
	return res
}

func expPadeApprox(ctx *session.Context, x value.Value) value.Value {
	return Exp2(ctx, Mul(ctx, x, c(ctx, math.Log2(math.E), x)))
}

// Exp returns e^x, fixed-point, per the configured approximation mode
// (spec.md §4.3).
func Exp(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Exp", x)
	switch ctx.Config().FxpExpMode {
	case config.EXPDefault, config.EXPTaylor:
		return expTaylorSeries(ctx, x)
	case config.EXPPade:
		kInputLimit := 32 / math.Log2(math.E)
		clamped := ctx.Engine().Clamp(x.Share,
			c(ctx, -kInputLimit, x).Share, c(ctx, kInputLimit, x).Share)
		return expPadeApprox(ctx, value.Value{DType: value.DTFXP, Share: clamped})
	default:
		panic(fmt.Errorf("%w: unexpected exp approximation mode %v",
			config.ErrInvalidConfig, ctx.Config().FxpExpMode))
	}
}

// tanhPadeApprox evaluates the 5/5 Padé approximation of tanh
// (spec.md §4.3). Callers are expected to clamp to [-3, 3] first.
func tanhPadeApprox(ctx *session.Context, x value.Value) value.Value {
	x2 := Square(ctx, x)
	x3 := Mul(ctx, x2, x)
	x4 := Square(ctx, x2)
	x5 := Mul(ctx, x2, x3)

	dividend := Add(ctx, x,
		Add(ctx, DivGoldschmidt(ctx, x3, c(ctx, 9.0, x)),
			DivGoldschmidt(ctx, x5, c(ctx, 945.0, x))))
	divisor := Add(ctx, c(ctx, 1.0, x),
		Add(ctx, DivGoldschmidt(ctx, x2, c(ctx, 9.0/4.0, x)),
			DivGoldschmidt(ctx, x4, c(ctx, 63.0, x))))
	return DivGoldschmidt(ctx, dividend, divisor)
}

// Tanh returns tanh(x), fixed-point. Beyond the [-3, 3] domain the
// Padé approximation degrades; entry points should clamp first
// (spec.md §4.3, §7).
func Tanh(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Tanh", x)
	return tanhPadeApprox(ctx, x)
}

func rsqrtInitGuess(ctx *session.Context, x, z value.Value) value.Value {
	f := ctx.FxpBits()
	zRev := ctx.Engine().BitRev(ctx.Engine().A2B(z.Share), 0, 2*f)
	hintNumberOfBits(&zRev, 2*f)
	u := value.Value{DType: value.DTFXP,
		Share: ctx.Engine().Trunc(ctx.Engine().Mul(x.Share, ctx.Engine().PreferA(zRev)), f)}

	if !ctx.Config().EnableLowerAccuracyRsqrt {
		coeffs := []value.Value{
			c(ctx, -15.47994394, x), c(ctx, 38.4714796, x),
			c(ctx, -49.86605845, x), c(ctx, 26.02942339, x),
		}
		return Add(ctx, Polynomial(ctx, u, coeffs), c(ctx, 4.14285016, x))
	}
	coeffs := []value.Value{c(ctx, -5.9417, x), c(ctx, 4.7979, x)}
	return Add(ctx, Polynomial(ctx, u, coeffs), c(ctx, 3.1855, x))
}

func rsqrtComp(ctx *session.Context, x, z value.Value) value.Value {
	bits := ctx.FieldBits()
	f := ctx.FxpBits()

	zSep := ctx.Engine().BitDeintl(ctx.Engine().A2B(z.Share))
	loMask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits/2)), big.NewInt(1))
	loMaskShare := ctx.Engine().Constant(loMask, bits, x.Shape())
	zEven := ctx.Engine().And(zSep, loMaskShare)
	zOdd := ctx.Engine().And(ctx.Engine().Rshift(zSep, bits/2), loMaskShare)

	a := ctx.Engine().Xor(zOdd, zEven)
	b := ctx.Engine().BitParity(zEven, bits/2)
	hintNumberOfBits(&b, 1)

	aRev := ctx.Engine().BitRev(a, 0, (f/2)*2)
	hintNumberOfBits(&aRev, (f/2)*2)

	var c0f, c1f float64
	if f%2 == 1 {
		c0f = float64(int64(1) << uint((f+3)/2))
		c1f = float64(int64(1)<<uint(f/2+1)) * math.Sqrt2
	} else {
		c0f = float64(int64(1)<<uint(f/2)) * math.Sqrt2
		c1f = float64(int64(1) << uint(f/2))
	}
	c0 := ctx.Engine().Constant(big.NewInt(int64(c0f)), bits, x.Shape())
	c1 := ctx.Engine().Constant(big.NewInt(int64(c1f)), bits, x.Shape())

	mux := ctx.Engine().Mux(b, c0, c1)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(mux, ctx.Engine().PreferA(aRev))}
}

func rsqrtNP2(ctx *session.Context, x value.Value) value.Value {
	msb := HighestOneBit(ctx, x)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Lshift(msb.Share, 1)}
}

// Rsqrt returns 1/√x, fixed-point, via the three-phase algorithm of
// Lu et al. (spec.md §4.3). When
// ExperimentalEnableIntraOpPar is set, the guess and compensation
// branches run concurrently on a forked sub-context; results are
// identical either way.
func Rsqrt(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Rsqrt", x)
	z := rsqrtNP2(ctx, x)

	var guess, comp value.Value
	if ctx.Config().ExperimentalEnableIntraOpPar {
		sub := ctx.Fork()
		ch := make(chan value.Value, 1)
		go func() { ch <- rsqrtInitGuess(sub, x, z) }()
		comp = rsqrtComp(ctx, x, z)
		guess = <-ch
	} else {
		guess = rsqrtInitGuess(ctx, x, z)
		comp = rsqrtComp(ctx, x, z)
	}
	return Mul(ctx, guess, comp)
}

// Sqrt returns √x via one Goldschmidt iteration seeded by Rsqrt
// (spec.md §4.3, citing eprint.iacr.org/2012/405).
func Sqrt(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Sqrt", x)
	y0 := Rsqrt(ctx, x)
	g := Mul(ctx, x, y0)
	h := Mul(ctx, y0, c(ctx, 0.5, x))

	r := Sub(ctx, c(ctx, 1.5, x), Mul(ctx, g, h))
	g = Mul(ctx, g, r)
	return g
}

func sigmoidReal(ctx *session.Context, x value.Value) value.Value {
	return Reciprocal(ctx, Add(ctx, c(ctx, 1.0, x), Exp(ctx, Negate(ctx, x))))
}

func sigmoidMM1(ctx *session.Context, x value.Value) value.Value {
	return Add(ctx, c(ctx, 0.5, x), Mul(ctx, c(ctx, 0.125, x), x))
}

func sigmoidSeg3(ctx *session.Context, x value.Value) value.Value {
	upper := c(ctx, 1.0, x)
	lower := c(ctx, 0.0, x)
	middle := sigmoidMM1(ctx, x)

	upperBound := c(ctx, 4.0, x)
	lowerBound := c(ctx, -4.0, x)

	gt := ctx.Engine().Less(upperBound.Share, x.Share)
	ret := ctx.Engine().Mux(gt, upper.Share, middle.Share)
	lt := ctx.Engine().Less(x.Share, lowerBound.Share)
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Mux(lt, lower.Share, ret)}
}

// Sigmoid returns the logistic function of x, fixed-point, per the
// configured approximation mode (spec.md §4.3).
func Sigmoid(ctx *session.Context, x value.Value) value.Value {
	requireFxp("fxp.Sigmoid", x)
	switch ctx.Config().SigmoidMode {
	case config.SigmoidDefault, config.SigmoidMM1:
		return sigmoidMM1(ctx, x)
	case config.SigmoidSeg3:
		return sigmoidSeg3(ctx, x)
	case config.SigmoidReal:
		return sigmoidReal(ctx, x)
	default:
		panic(fmt.Errorf("%w: unexpected sigmoid mode %v",
			config.ErrInvalidConfig, ctx.Config().SigmoidMode))
	}
}
