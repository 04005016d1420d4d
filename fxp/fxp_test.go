//
// fxp_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package fxp

import (
	"math"
	"testing"

	"github.com/markkurossi/fxphal/config"
	"github.com/markkurossi/fxphal/engine/clear"
	"github.com/markkurossi/fxphal/session"
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

func decodeScalar(ctx *session.Context, v value.Value) float64 {
	return Decode(v.Share.Data.Data[0], ctx.FxpBits(), ctx.FieldBits())
}

func closeEnough(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ctx := newCtx(t)
	for _, r := range []float64{0, 1, -1, 3.25, -3.25, 1e-3} {
		raw := Encode(r, ctx.FxpBits(), ctx.FieldBits())
		got := Decode(raw, ctx.FxpBits(), ctx.FieldBits())
		if !closeEnough(got, r, 1e-4) {
			t.Errorf("round trip %v: got %v", r, got)
		}
	}
}

func TestAddSubMul(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 2.5, nil)
	y := Constant(ctx, 1.25, nil)

	if got := decodeScalar(ctx, Add(ctx, x, y)); !closeEnough(got, 3.75, 1e-4) {
		t.Errorf("add: got %v, expected 3.75", got)
	}
	if got := decodeScalar(ctx, Sub(ctx, x, y)); !closeEnough(got, 1.25, 1e-4) {
		t.Errorf("sub: got %v, expected 1.25", got)
	}
	if got := decodeScalar(ctx, Mul(ctx, x, y)); !closeEnough(got, 3.125, 1e-3) {
		t.Errorf("mul: got %v, expected 3.125", got)
	}
}

func TestNegateAbs(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 4.5, nil)
	if got := decodeScalar(ctx, Negate(ctx, x)); !closeEnough(got, -4.5, 1e-4) {
		t.Errorf("negate: got %v, expected -4.5", got)
	}
	neg := Constant(ctx, -4.5, nil)
	if got := decodeScalar(ctx, Abs(ctx, neg)); !closeEnough(got, 4.5, 1e-4) {
		t.Errorf("abs(negative): got %v, expected 4.5", got)
	}
	pos := Constant(ctx, 4.5, nil)
	if got := decodeScalar(ctx, Abs(ctx, pos)); !closeEnough(got, 4.5, 1e-4) {
		t.Errorf("abs(positive): got %v, expected 4.5", got)
	}
}

func TestPolynomial(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 2.0, nil)
	// coeffs [1,1] -> x + x^2 = 2 + 4 = 6
	coeffs := []value.Value{Constant(ctx, 1.0, nil), Constant(ctx, 1.0, nil)}
	if got := decodeScalar(ctx, Polynomial(ctx, x, coeffs)); !closeEnough(got, 6.0, 1e-3) {
		t.Errorf("polynomial: got %v, expected 6.0", got)
	}
}

func TestDivGoldschmidt(t *testing.T) {
	ctx := newCtx(t)
	p := Constant(ctx, 7.0, nil)
	q := Constant(ctx, 2.0, nil)
	if got := decodeScalar(ctx, Div(ctx, p, q)); !closeEnough(got, 3.5, 5e-3) {
		t.Errorf("div: got %v, expected 3.5", got)
	}
}

func TestReciprocalSign(t *testing.T) {
	ctx := newCtx(t)
	for _, r := range []float64{4.0, -4.0} {
		q := Constant(ctx, r, nil)
		got := decodeScalar(ctx, Reciprocal(ctx, q))
		want := 1 / r
		if !closeEnough(got, want, 5e-3) {
			t.Errorf("reciprocal(%v): got %v, expected %v", r, got, want)
		}
	}
}

func TestFloorCeil(t *testing.T) {
	ctx := newCtx(t)
	for _, tt := range []struct {
		in, floor, ceil float64
	}{
		{3.75, 3.0, 4.0},
		{-3.75, -4.0, -3.0},
		{2.0, 2.0, 2.0},
	} {
		x := Constant(ctx, tt.in, nil)
		if got := decodeScalar(ctx, Floor(ctx, x)); !closeEnough(got, tt.floor, 1e-4) {
			t.Errorf("floor(%v): got %v, expected %v", tt.in, got, tt.floor)
		}
		if got := decodeScalar(ctx, Ceil(ctx, x)); !closeEnough(got, tt.ceil, 1e-4) {
			t.Errorf("ceil(%v): got %v, expected %v", tt.in, got, tt.ceil)
		}
	}
}

func TestLog2(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 8.0, nil)
	if got := decodeScalar(ctx, Log2(ctx, x)); !closeEnough(got, 3.0, 0.05) {
		t.Errorf("log2(8): got %v, expected ~3.0", got)
	}
}

func TestLog(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, math.E, nil)
	if got := decodeScalar(ctx, Log(ctx, x)); !closeEnough(got, 1.0, 0.05) {
		t.Errorf("log(e): got %v, expected ~1.0", got)
	}
}

func TestExp2(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 3.0, nil)
	if got := decodeScalar(ctx, Exp2(ctx, x)); !closeEnough(got, 8.0, 0.1) {
		t.Errorf("exp2(3): got %v, expected ~8.0", got)
	}
}

func TestExpTaylor(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 1.0, nil)
	got := decodeScalar(ctx, Exp(ctx, x))
	if !closeEnough(got, math.E, 0.1) {
		t.Errorf("exp(1): got %v, expected ~%v", got, math.E)
	}
}

func TestTanh(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 1.0, nil)
	got := decodeScalar(ctx, Tanh(ctx, x))
	if !closeEnough(got, math.Tanh(1.0), 0.05) {
		t.Errorf("tanh(1): got %v, expected ~%v", got, math.Tanh(1.0))
	}
}

func TestSqrtRsqrt(t *testing.T) {
	ctx := newCtx(t)
	x := Constant(ctx, 4.0, nil)
	if got := decodeScalar(ctx, Sqrt(ctx, x)); !closeEnough(got, 2.0, 0.05) {
		t.Errorf("sqrt(4): got %v, expected ~2.0", got)
	}
	if got := decodeScalar(ctx, Rsqrt(ctx, x)); !closeEnough(got, 0.5, 0.05) {
		t.Errorf("rsqrt(4): got %v, expected ~0.5", got)
	}
}

func TestSigmoidModes(t *testing.T) {
	for _, mode := range []config.SigmoidMode{
		config.SigmoidMM1, config.SigmoidSeg3, config.SigmoidReal,
	} {
		cfg := config.Default()
		cfg.SigmoidMode = mode
		ctx, err := session.New(cfg, clear.New(cfg.Field.BitWidth()), 0, "p0")
		if err != nil {
			t.Fatalf("session.New: %s", err)
		}
		x := Constant(ctx, 0.0, nil)
		got := decodeScalar(ctx, Sigmoid(ctx, x))
		if !closeEnough(got, 0.5, 0.2) {
			t.Errorf("sigmoid(0) mode %v: got %v, expected ~0.5", mode, got)
		}
	}
}

func TestRequireFxpPanics(t *testing.T) {
	ctx := newCtx(t)
	intVal := value.Value{DType: value.DTI64, Share: Constant(ctx, 1.0, nil).Share}
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for non-fxp operand")
		}
	}()
	Add(ctx, intVal, intVal)
}
