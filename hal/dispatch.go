//
// dispatch.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package hal

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/fxphal/fxp"
	"github.com/markkurossi/fxphal/session"
	"github.com/markkurossi/fxphal/share"
	"github.com/markkurossi/fxphal/value"
)

type binOp func(ctx *session.Context, x, y value.Value) value.Value
type unOp func(ctx *session.Context, x value.Value) value.Value

func isCrossIntFxp(x, y value.Value) bool {
	return (x.IsFxp() && y.IsInt()) || (x.IsInt() && y.IsFxp())
}

// dtypeCast reinterprets v under dtype, rescaling between the integer
// and fixed-point domains: int->fxp multiplies by 2^f (lshift), fxp->
// int truncates the fractional bits (arithmetic shift), matching
// dtype_cast in the system this module reimplements.
func dtypeCast(ctx *session.Context, v value.Value, dtype value.DType) value.Value {
	if v.DType == dtype {
		return v
	}
	f := ctx.FxpBits()
	if dtype == value.DTFXP {
		return value.Value{DType: value.DTFXP, Share: ctx.Engine().Lshift(v.Share, f)}
	}
	if v.DType == value.DTFXP {
		return value.Value{DType: dtype, Share: ctx.Engine().Arshift(v.Share, f)}
	}
	return value.Value{DType: dtype, Share: v.Share}
}

// dtypeBinaryDispatch promotes int to fxp on mismatch, then routes to
// fnFxp or fnInt (polymorphic.cc's dtypeBinaryDispatch).
func dtypeBinaryDispatch(opName string, ctx *session.Context, x, y value.Value,
	fnFxp, fnInt binOp) value.Value {

	switch {
	case x.IsInt() && y.IsInt():
		common := value.Promote(x.DType, y.DType)
		return fnInt(ctx, dtypeCast(ctx, x, common), dtypeCast(ctx, y, common))
	case x.IsInt() && y.IsFxp():
		return fnFxp(ctx, dtypeCast(ctx, x, value.DTFXP), y)
	case x.IsFxp() && y.IsInt():
		return fnFxp(ctx, x, dtypeCast(ctx, y, value.DTFXP))
	case x.IsFxp() && y.IsFxp():
		return fnFxp(ctx, x, y)
	default:
		panic(fmt.Errorf("%w: unsupported op %s for x=%v, y=%v",
			value.ErrDtypeMismatch, opName, x, y))
	}
}

func dtypeUnaryDispatch(opName string, ctx *session.Context, x value.Value,
	fnFxp, fnInt unOp) value.Value {

	switch {
	case x.IsInt():
		return fnInt(ctx, x)
	case x.IsFxp():
		return fnFxp(ctx, x)
	default:
		panic(fmt.Errorf("%w: unsupported op %s for x=%v", value.ErrDtypeMismatch,
			opName, x))
	}
}

// Add returns x+y, promoting int<->fxp mismatches to fixed-point.
func Add(ctx *session.Context, x, y value.Value) value.Value {
	return dtypeBinaryDispatch("add", ctx, x, y, fxp.Add, iAdd)
}

// Sub returns x-y.
func Sub(ctx *session.Context, x, y value.Value) value.Value {
	return dtypeBinaryDispatch("sub", ctx, x, y, fxp.Sub, iSub)
}

// mixedMul multiplies a fixed-point value by a raw integer without a
// truncation round, then tags the result fxp: the fast path named in
// spec.md §4.4 for mixed int*fxp multiply.
func mixedMul(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().Mul(x.Share, y.Share)}
}

func mixedMatMul(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: value.DTFXP, Share: ctx.Engine().MatMul(x.Share, y.Share)}
}

// Mul returns x*y, taking the untruncated mixed int*fxp fast path
// when one operand is a raw integer and the other fixed-point.
func Mul(ctx *session.Context, x, y value.Value) value.Value {
	if isCrossIntFxp(x, y) {
		return mixedMul(ctx, x, y)
	}
	return dtypeBinaryDispatch("mul", ctx, x, y, fxp.Mul, iMul)
}

// MatMul is Mul's tensor-contraction sibling.
func MatMul(ctx *session.Context, x, y value.Value) value.Value {
	if isCrossIntFxp(x, y) {
		return mixedMatMul(ctx, x, y)
	}
	return dtypeBinaryDispatch("mmul", ctx, x, y, fxp.MatMul, iMatMul)
}

// Conv2D convolves an NHWC x against a (kh,kw,cin,cout) kernel y.
func Conv2D(ctx *session.Context, x, y value.Value, strideH, strideW int) value.Value {
	if x.IsFxp() && y.IsFxp() {
		raw := ctx.Engine().Conv2D(x.Share, y.Share, strideH, strideW)
		return value.Value{DType: value.DTFXP, Share: ctx.Engine().Trunc(raw, ctx.FxpBits())}
	}
	if x.IsInt() && y.IsInt() {
		common := value.Promote(x.DType, y.DType)
		return iConv2D(ctx, dtypeCast(ctx, x, common), dtypeCast(ctx, y, common),
			strideH, strideW)
	}
	panic(fmt.Errorf("%w: unsupported op conv2d for x=%v, y=%v",
		value.ErrDtypeMismatch, x, y))
}

// LogicalNot inverts a 0/1-valued x, dispatching on its share domain:
// boolean shares invert by xor with 1, arithmetic shares by 1-x
// (polymorphic.cc's logical_not).
func LogicalNot(ctx *session.Context, x value.Value) value.Value {
	one := ctx.Engine().Constant(big.NewInt(1), ctx.FieldBits(), x.Shape())
	if x.VType() == share.BoolShare {
		return value.Value{DType: x.DType, Share: ctx.Engine().Xor(x.Share, one)}
	}
	return value.Value{DType: x.DType, Share: ctx.Engine().Sub(one, x.Share)}
}

// Equal returns 1 where x==y, else 0, as DTI8. There is no direct
// secret equality-test primitive, so this composes from two
// comparisons: eq = 1 - less(x,y) - less(y,x), the same way the
// distilled not_equal/greater/greater_equal were supplemented as
// derived compositions.
func Equal(ctx *session.Context, x, y value.Value) value.Value {
	common := value.Promote(x.DType, y.DType)
	return iEqual(ctx, dtypeCast(ctx, x, common), dtypeCast(ctx, y, common))
}

// NotEqual returns 1 where x!=y, else 0.
func NotEqual(ctx *session.Context, x, y value.Value) value.Value {
	return LogicalNot(ctx, Equal(ctx, x, y))
}

// Less returns 1 where x<y, else 0, as DTI8.
func Less(ctx *session.Context, x, y value.Value) value.Value {
	common := value.Promote(x.DType, y.DType)
	return iLess(ctx, dtypeCast(ctx, x, common), dtypeCast(ctx, y, common))
}

// Greater returns 1 where x>y, else 0.
func Greater(ctx *session.Context, x, y value.Value) value.Value {
	return Less(ctx, y, x)
}

// LessEqual returns 1 where x<=y, else 0: not(x>y).
func LessEqual(ctx *session.Context, x, y value.Value) value.Value {
	return LogicalNot(ctx, Greater(ctx, x, y))
}

// GreaterEqual returns 1 where x>=y, else 0: not(x<y).
func GreaterEqual(ctx *session.Context, x, y value.Value) value.Value {
	return LogicalNot(ctx, Less(ctx, x, y))
}

// Negate returns -x.
func Negate(ctx *session.Context, x value.Value) value.Value {
	return dtypeUnaryDispatch("negate", ctx, x, fxp.Negate, iNegate)
}

// Abs returns |x|.
func Abs(ctx *session.Context, x value.Value) value.Value {
	return dtypeUnaryDispatch("abs", ctx, x, fxp.Abs, iAbs)
}

// Exp returns e^x, casting x to fixed-point first.
func Exp(ctx *session.Context, x value.Value) value.Value {
	return fxp.Exp(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Select returns a where pred is non-zero, else b. pred must be an
// integer (0/1) value; a and b must share dtype and shape.
func Select(ctx *session.Context, pred, a, b value.Value) value.Value {
	if !pred.IsInt() {
		panic(fmt.Errorf("%w: select predicate must be integral, got %v",
			value.ErrDtypeMismatch, pred.DType))
	}
	return value.Value{DType: a.DType, Share: ctx.Engine().Mux(pred.Share, a.Share, b.Share)}
}

func requireInt(op string, vs ...value.Value) {
	for _, v := range vs {
		if !v.IsInt() {
			panic(fmt.Errorf("%w: %s requires integer operands, got %v",
				value.ErrDtypeMismatch, op, v.DType))
		}
	}
}

// BitwiseAnd returns x&y. Both operands must be integer.
func BitwiseAnd(ctx *session.Context, x, y value.Value) value.Value {
	requireInt("hal.BitwiseAnd", x, y)
	return value.Value{DType: x.DType, Share: ctx.Engine().And(x.Share, y.Share)}
}

// BitwiseOr returns x|y. Both operands must be integer.
func BitwiseOr(ctx *session.Context, x, y value.Value) value.Value {
	requireInt("hal.BitwiseOr", x, y)
	return value.Value{DType: x.DType, Share: ctx.Engine().Or(x.Share, y.Share)}
}

// BitwiseXor returns x^y. Both operands must be integer.
func BitwiseXor(ctx *session.Context, x, y value.Value) value.Value {
	requireInt("hal.BitwiseXor", x, y)
	return value.Value{DType: x.DType, Share: ctx.Engine().Xor(x.Share, y.Share)}
}

// BitwiseNot returns the bit complement of x within the field width.
func BitwiseNot(ctx *session.Context, x value.Value) value.Value {
	requireInt("hal.BitwiseNot", x)
	ones := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(ctx.FieldBits())),
		big.NewInt(1))
	k := ctx.Engine().Constant(ones, ctx.FieldBits(), x.Shape())
	return value.Value{DType: x.DType, Share: ctx.Engine().Xor(x.Share, k)}
}

// Logistic returns the logistic (sigmoid) function of x; x must be
// fixed-point.
func Logistic(ctx *session.Context, x value.Value) value.Value {
	return fxp.Sigmoid(ctx, x)
}

// Log returns the natural logarithm of x, casting x to fixed-point.
func Log(ctx *session.Context, x value.Value) value.Value {
	return fxp.Log(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Log1p returns log(1+x), casting x to fixed-point.
func Log1p(ctx *session.Context, x value.Value) value.Value {
	return fxp.Log1p(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Log2 returns log2(x), casting x to fixed-point.
func Log2(ctx *session.Context, x value.Value) value.Value {
	return fxp.Log2(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Exp2 returns 2^x, casting x to fixed-point.
func Exp2(ctx *session.Context, x value.Value) value.Value {
	return fxp.Exp2(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Reciprocal returns 1/x; x must be fixed-point.
func Reciprocal(ctx *session.Context, x value.Value) value.Value {
	return fxp.Reciprocal(ctx, x)
}

// Floor returns the largest integer not greater than x; x must be
// fixed-point.
func Floor(ctx *session.Context, x value.Value) value.Value {
	return fxp.Floor(ctx, x)
}

// Ceil returns the smallest integer not less than x; x must be
// fixed-point.
func Ceil(ctx *session.Context, x value.Value) value.Value {
	return fxp.Ceil(ctx, x)
}

// Max returns the element-wise maximum of x and y, which must share
// dtype.
func Max(ctx *session.Context, x, y value.Value) value.Value {
	return Select(ctx, Greater(ctx, x, y), x, y)
}

// Min returns the element-wise minimum of x and y, which must share
// dtype.
func Min(ctx *session.Context, x, y value.Value) value.Value {
	return Select(ctx, Less(ctx, x, y), x, y)
}

// Power returns x^y via x^y = e^(y*ln(x)).
func Power(ctx *session.Context, x, y value.Value) value.Value {
	return Exp(ctx, Mul(ctx, y, Log(ctx, x)))
}

// Div returns x/y, dispatching to integer division when both
// operands are integral, else fixed-point Goldschmidt division.
func Div(ctx *session.Context, x, y value.Value) value.Value {
	if x.IsInt() && y.IsInt() {
		return IDiv(ctx, x, y)
	}
	xf := dtypeCast(ctx, x, value.DTFXP)
	yf := dtypeCast(ctx, y, value.DTFXP)
	return fxp.Div(ctx, xf, yf)
}

// IDiv performs truncated integer division by computing an
// approximate fixed-point quotient, then correcting by +-1 for the
// truncation error the fxp approximation introduces (polymorphic.cc's
// idiv).
func IDiv(ctx *session.Context, x, y value.Value) value.Value {
	signX := Sign(ctx, x)
	signY := Sign(ctx, y)
	absX := Mul(ctx, x, signX)
	absY := Mul(ctx, y, signY)

	xf := dtypeCast(ctx, absX, value.DTFXP)
	yf := dtypeCast(ctx, absY, value.DTFXP)
	approxQ := fxp.Div(ctx, xf, yf)
	approxQInt := dtypeCast(ctx, approxQ, x.DType)

	approxX := Mul(ctx, absY, approxQInt)
	v1 := LessEqual(ctx, Add(ctx, approxX, absY), absX)
	v2 := Greater(ctx, approxX, absX)
	q := Sub(ctx, Add(ctx, approxQInt, v1), v2)

	return Mul(ctx, q, Mul(ctx, signX, signY))
}

// Clamp returns min(max(minv, x), maxv); minv, maxv and x must share
// dtype.
func Clamp(ctx *session.Context, x, minv, maxv value.Value) value.Value {
	return Min(ctx, Max(ctx, minv, x), maxv)
}

// BitCast reinterprets x's storage under a new dtype without
// rescaling (the caller is responsible for any semantic meaning that
// implies).
func BitCast(ctx *session.Context, x value.Value, dtype value.DType) value.Value {
	return x.WithDType(dtype)
}

// LeftShift returns x<<bits.
func LeftShift(ctx *session.Context, x value.Value, bits int) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Lshift(x.Share, bits)}
}

// RightShiftLogical returns x>>bits, zero-filling.
func RightShiftLogical(ctx *session.Context, x value.Value, bits int) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Rshift(x.Share, bits)}
}

// RightShiftArithmetic returns x>>bits, sign-extending.
func RightShiftArithmetic(ctx *session.Context, x value.Value, bits int) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Arshift(x.Share, bits)}
}

// Tanh returns tanh(x), clamped to [-3,3] where the Padé
// approximation stays accurate.
func Tanh(ctx *session.Context, x value.Value) value.Value {
	xf := dtypeCast(ctx, x, value.DTFXP)
	lo := fxp.Constant(ctx, -3.0, x.Shape())
	hi := fxp.Constant(ctx, 3.0, x.Shape())
	return fxp.Tanh(ctx, Clamp(ctx, xf, lo, hi))
}

// Rsqrt returns 1/sqrt(x), casting x to fixed-point.
func Rsqrt(ctx *session.Context, x value.Value) value.Value {
	return fxp.Rsqrt(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Sqrt returns sqrt(x), casting x to fixed-point.
func Sqrt(ctx *session.Context, x value.Value) value.Value {
	return fxp.Sqrt(ctx, dtypeCast(ctx, x, value.DTFXP))
}

// Sign returns -1 for negative x, +1 otherwise, as DTI8: the
// share-engine Sign primitive only exposes the raw 0/1 sign bit, so
// this derives +-1 = 1-2*bit the same way fxp.Abs and iAbs do.
func Sign(ctx *session.Context, x value.Value) value.Value {
	bit := ctx.Engine().Sign(x.Share)
	one := ctx.Engine().Constant(big.NewInt(1), ctx.FieldBits(), x.Shape())
	two := ctx.Engine().Constant(big.NewInt(2), ctx.FieldBits(), x.Shape())
	return value.Value{DType: value.DTI8, Share: ctx.Engine().Sub(one, ctx.Engine().Mul(two, bit))}
}
