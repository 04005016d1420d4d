//
// hal_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package hal

import (
	"math/big"
	"testing"

	"github.com/markkurossi/fxphal/config"
	"github.com/markkurossi/fxphal/engine/clear"
	"github.com/markkurossi/fxphal/fxp"
	"github.com/markkurossi/fxphal/ring"
	"github.com/markkurossi/fxphal/session"
	"github.com/markkurossi/fxphal/share"
	"github.com/markkurossi/fxphal/value"
)

func newCtx(t *testing.T) *session.Context {
	t.Helper()
	cfg := config.Default()
	ctx, err := session.New(cfg, clear.New(cfg.Field.BitWidth()), 0, "p0")
	if err != nil {
		t.Fatalf("session.New: %s", err)
	}
	return ctx
}

func intConst(ctx *session.Context, dtype value.DType, v int64) value.Value {
	return value.Value{
		DType: dtype,
		Share: share.Value{VType: share.Public, Data: ring.FromInt64(ctx.FieldBits(), v)},
	}
}

func scalarInt(v value.Value) int64 {
	return ring.Signed(v.Share.Data.Data[0], v.Share.Data.Bits).Int64()
}

func decodeFxp(ctx *session.Context, v value.Value) float64 {
	return fxp.Decode(v.Share.Data.Data[0], ctx.FxpBits(), ctx.FieldBits())
}

func closeEnough(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < eps
}

func TestAddSubMixedIntFxp(t *testing.T) {
	ctx := newCtx(t)
	i := intConst(ctx, value.DTI64, 2)
	f := fxp.Constant(ctx, 1.5, nil)

	sum := Add(ctx, i, f)
	if !sum.IsFxp() {
		t.Fatalf("add(int,fxp): expected fxp result, got %v", sum.DType)
	}
	if got := decodeFxp(ctx, sum); !closeEnough(got, 3.5, 1e-4) {
		t.Errorf("add(int,fxp): got %v, expected 3.5", got)
	}

	diff := Sub(ctx, f, i)
	if got := decodeFxp(ctx, diff); !closeEnough(got, -0.5, 1e-4) {
		t.Errorf("sub(fxp,int): got %v, expected -0.5", got)
	}
}

func TestMulMixedFastPath(t *testing.T) {
	ctx := newCtx(t)
	i := intConst(ctx, value.DTI64, 3)
	f := fxp.Constant(ctx, 1.5, nil)

	got := decodeFxp(ctx, Mul(ctx, i, f))
	if !closeEnough(got, 4.5, 1e-4) {
		t.Errorf("mul(int,fxp): got %v, expected 4.5", got)
	}
}

func TestMulIntInt(t *testing.T) {
	ctx := newCtx(t)
	a := intConst(ctx, value.DTI32, 6)
	b := intConst(ctx, value.DTI64, 7)
	r := Mul(ctx, a, b)
	if r.DType != value.DTI64 {
		t.Errorf("mul(i32,i64): expected promoted dtype i64, got %v", r.DType)
	}
	if got := scalarInt(r); got != 42 {
		t.Errorf("mul(i32,i64): got %v, expected 42", got)
	}
}

func TestComparisons(t *testing.T) {
	ctx := newCtx(t)
	a := intConst(ctx, value.DTI64, 3)
	b := intConst(ctx, value.DTI64, 5)

	if got := scalarInt(Less(ctx, a, b)); got != 1 {
		t.Errorf("less(3,5): got %v, expected 1", got)
	}
	if got := scalarInt(Greater(ctx, a, b)); got != 0 {
		t.Errorf("greater(3,5): got %v, expected 0", got)
	}
	if got := scalarInt(Equal(ctx, a, a)); got != 1 {
		t.Errorf("equal(3,3): got %v, expected 1", got)
	}
	if got := scalarInt(Equal(ctx, a, b)); got != 0 {
		t.Errorf("equal(3,5): got %v, expected 0", got)
	}
	if got := scalarInt(NotEqual(ctx, a, b)); got != 1 {
		t.Errorf("not_equal(3,5): got %v, expected 1", got)
	}
	if got := scalarInt(LessEqual(ctx, a, a)); got != 1 {
		t.Errorf("less_equal(3,3): got %v, expected 1", got)
	}
	if got := scalarInt(GreaterEqual(ctx, b, a)); got != 1 {
		t.Errorf("greater_equal(5,3): got %v, expected 1", got)
	}
}

func TestSelectMaxMinClamp(t *testing.T) {
	ctx := newCtx(t)
	a := intConst(ctx, value.DTI64, 10)
	b := intConst(ctx, value.DTI64, 20)
	pred := intConst(ctx, value.DTI8, 1)

	if got := scalarInt(Select(ctx, pred, a, b)); got != 10 {
		t.Errorf("select(1,10,20): got %v, expected 10", got)
	}
	if got := scalarInt(Max(ctx, a, b)); got != 20 {
		t.Errorf("max(10,20): got %v, expected 20", got)
	}
	if got := scalarInt(Min(ctx, a, b)); got != 10 {
		t.Errorf("min(10,20): got %v, expected 10", got)
	}

	lo := intConst(ctx, value.DTI64, 0)
	hi := intConst(ctx, value.DTI64, 15)
	big := intConst(ctx, value.DTI64, 100)
	if got := scalarInt(Clamp(ctx, big, lo, hi)); got != 15 {
		t.Errorf("clamp(100,0,15): got %v, expected 15", got)
	}
}

func TestSignPlusMinusOne(t *testing.T) {
	ctx := newCtx(t)
	pos := intConst(ctx, value.DTI64, 5)
	neg := intConst(ctx, value.DTI64, -5)

	if got := scalarInt(Sign(ctx, pos)); got != 1 {
		t.Errorf("sign(5): got %v, expected 1", got)
	}
	if got := scalarInt(Sign(ctx, neg)); got != -1 {
		t.Errorf("sign(-5): got %v, expected -1", got)
	}
}

func TestAbsIntAndFxp(t *testing.T) {
	ctx := newCtx(t)
	neg := intConst(ctx, value.DTI64, -7)
	if got := scalarInt(Abs(ctx, neg)); got != 7 {
		t.Errorf("abs(-7): got %v, expected 7", got)
	}

	negF := fxp.Constant(ctx, -2.5, nil)
	if got := decodeFxp(ctx, Abs(ctx, negF)); !closeEnough(got, 2.5, 1e-4) {
		t.Errorf("abs(-2.5): got %v, expected 2.5", got)
	}
}

func TestIDivTruncation(t *testing.T) {
	ctx := newCtx(t)
	for _, tt := range []struct{ x, y, want int64 }{
		{7, 2, 3},
		{-7, 2, -3},
		{7, -2, -3},
		{-7, -2, 3},
	} {
		x := intConst(ctx, value.DTI64, tt.x)
		y := intConst(ctx, value.DTI64, tt.y)
		if got := scalarInt(IDiv(ctx, x, y)); got != tt.want {
			t.Errorf("idiv(%v,%v): got %v, expected %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDivDispatch(t *testing.T) {
	ctx := newCtx(t)
	xi := intConst(ctx, value.DTI64, 9)
	yi := intConst(ctx, value.DTI64, 2)
	if got := scalarInt(Div(ctx, xi, yi)); got != 4 {
		t.Errorf("div(int,int): got %v, expected 4", got)
	}

	xf := fxp.Constant(ctx, 9.0, nil)
	yf := fxp.Constant(ctx, 2.0, nil)
	if got := decodeFxp(ctx, Div(ctx, xf, yf)); !closeEnough(got, 4.5, 5e-3) {
		t.Errorf("div(fxp,fxp): got %v, expected 4.5", got)
	}
}

func TestBitwiseOps(t *testing.T) {
	ctx := newCtx(t)
	a := intConst(ctx, value.DTI64, 0b1100)
	b := intConst(ctx, value.DTI64, 0b1010)

	if got := scalarInt(BitwiseAnd(ctx, a, b)); got != 0b1000 {
		t.Errorf("and: got %b, expected %b", got, 0b1000)
	}
	if got := scalarInt(BitwiseOr(ctx, a, b)); got != 0b1110 {
		t.Errorf("or: got %b, expected %b", got, 0b1110)
	}
	if got := scalarInt(BitwiseXor(ctx, a, b)); got != 0b0110 {
		t.Errorf("xor: got %b, expected %b", got, 0b0110)
	}
}

func TestShifts(t *testing.T) {
	ctx := newCtx(t)
	x := intConst(ctx, value.DTI64, 4)
	if got := scalarInt(LeftShift(ctx, x, 2)); got != 16 {
		t.Errorf("lshift: got %v, expected 16", got)
	}
	if got := scalarInt(RightShiftLogical(ctx, x, 1)); got != 2 {
		t.Errorf("rshift: got %v, expected 2", got)
	}
	neg := intConst(ctx, value.DTI64, -4)
	if got := scalarInt(RightShiftArithmetic(ctx, neg, 1)); got != -2 {
		t.Errorf("arshift: got %v, expected -2", got)
	}
}

func TestLogicalNotDomains(t *testing.T) {
	ctx := newCtx(t)
	arith := intConst(ctx, value.DTI8, 1)
	if got := scalarInt(LogicalNot(ctx, arith)); got != 0 {
		t.Errorf("logical_not(arith 1): got %v, expected 0", got)
	}

	boolVal := value.Value{
		DType: value.DTI8,
		Share: share.Value{VType: share.BoolShare, Data: ring.FromInt64(ctx.FieldBits(), 1)},
	}
	if got := scalarInt(LogicalNot(ctx, boolVal)); got != 0 {
		t.Errorf("logical_not(bool 1) low bit: got %v, expected 0 (xor with 1)", got&1)
	}
}

func TestConv2DInt(t *testing.T) {
	ctx := newCtx(t)
	x := value.Value{DType: value.DTI64, Share: share.Value{
		VType: share.Public,
		Data: &ring.Tensor{
			Bits: ctx.FieldBits(), Shape: []int{1, 3, 3, 1},
			Data: intTensorData(ctx, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}),
		},
	}}
	k := value.Value{DType: value.DTI64, Share: share.Value{
		VType: share.Public,
		Data: &ring.Tensor{
			Bits: ctx.FieldBits(), Shape: []int{2, 2, 1, 1},
			Data: intTensorData(ctx, []int64{1, 0, 0, 0}),
		},
	}}
	r := Conv2D(ctx, x, k, 1, 1)
	want := []int64{1, 2, 4, 5}
	for i, w := range want {
		if got := ring.Signed(r.Share.Data.Data[i], ctx.FieldBits()).Int64(); got != w {
			t.Errorf("conv2d[%d]: got %v, expected %v", i, got, w)
		}
	}
}

func intTensorData(ctx *session.Context, vs []int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = ring.FromInt64(ctx.FieldBits(), v).Data[0]
	}
	return out
}

func TestMaxMinOnFxp(t *testing.T) {
	ctx := newCtx(t)
	a := fxp.Constant(ctx, 1.25, nil)
	b := fxp.Constant(ctx, 2.75, nil)
	if got := decodeFxp(ctx, Max(ctx, a, b)); !closeEnough(got, 2.75, 1e-4) {
		t.Errorf("max(fxp): got %v, expected 2.75", got)
	}
	if got := decodeFxp(ctx, Min(ctx, a, b)); !closeEnough(got, 1.25, 1e-4) {
		t.Errorf("min(fxp): got %v, expected 1.25", got)
	}
}

func TestPower(t *testing.T) {
	ctx := newCtx(t)
	x := fxp.Constant(ctx, 2.0, nil)
	y := fxp.Constant(ctx, 3.0, nil)
	got := decodeFxp(ctx, Power(ctx, x, y))
	if !closeEnough(got, 8.0, 0.3) {
		t.Errorf("power(2,3): got %v, expected ~8.0", got)
	}
}
