//
// integer.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

// Package hal implements the type-dispatch (L4) layer: polymorphic
// operators that promote integer and fixed-point operands to a common
// dtype and route to the fxp (L2/L3) or raw share-engine kernels,
// exactly mirroring the `hal` namespace of the system this package
// reimplements in Go (spec.md §4.4).
package hal

import (
	"math/big"

	"github.com/markkurossi/fxphal/session"
	"github.com/markkurossi/fxphal/value"
)

// iAdd, iSub, ... provide integral arithmetic and logical operations
// by erasing security semantics: they dispatch directly to the
// underlying share engine without any fixed-point truncation, per
// integer.h in the system this module reimplements.

func iAdd(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Add(x.Share, y.Share)}
}

func iSub(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Sub(x.Share, y.Share)}
}

func iMul(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Mul(x.Share, y.Share)}
}

func iMatMul(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().MatMul(x.Share, y.Share)}
}

func iConv2D(ctx *session.Context, x, y value.Value, strideH, strideW int) value.Value {
	return value.Value{DType: x.DType, Share: ctx.Engine().Conv2D(x.Share, y.Share, strideH, strideW)}
}

func iNegate(ctx *session.Context, x value.Value) value.Value {
	zero := ctx.Engine().Constant(big.NewInt(0), ctx.FieldBits(), x.Shape())
	return value.Value{DType: x.DType, Share: ctx.Engine().Sub(zero, x.Share)}
}

func iAbs(ctx *session.Context, x value.Value) value.Value {
	s := ctx.Engine().Sign(x.Share)
	one := ctx.Engine().Constant(big.NewInt(1), ctx.FieldBits(), x.Shape())
	two := ctx.Engine().Constant(big.NewInt(2), ctx.FieldBits(), x.Shape())
	factor := ctx.Engine().Sub(one, ctx.Engine().Mul(two, s))
	return value.Value{DType: x.DType, Share: ctx.Engine().Mul(x.Share, factor)}
}

// iEqual has no direct share-engine primitive (there is no secret
// equality-test kernel in share.Engine); it is built from Less the way
// the expanded spec's supplemented not_equal/greater/greater_equal
// compositions are: equal(x,y) = 1 - less(x,y) - less(y,x). iLess calls
// the engine's Less primitive directly.
func iEqual(ctx *session.Context, x, y value.Value) value.Value {
	lt1 := ctx.Engine().Less(x.Share, y.Share)
	lt2 := ctx.Engine().Less(y.Share, x.Share)
	one := ctx.Engine().Constant(big.NewInt(1), ctx.FieldBits(), x.Shape())
	neq := ctx.Engine().Add(lt1, lt2)
	return value.Value{DType: value.DTI8, Share: ctx.Engine().Sub(one, neq)}
}

func iLess(ctx *session.Context, x, y value.Value) value.Value {
	return value.Value{DType: value.DTI8, Share: ctx.Engine().Less(x.Share, y.Share)}
}
